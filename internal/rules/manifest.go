package rules

import (
	"encoding/json"
	"path"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/layer"
)

// Ecosystems
const (
	EcosystemGo    = "go"
	EcosystemNPM   = "npm"
	EcosystemPyPI  = "pypi"
	EcosystemCargo = "cargo"
)

var manifestPatterns = []string{"go.mod", "package.json", "requirements*.txt", "pyproject.toml", "Cargo.toml"}

// aiSDKs and loggingLibs map ecosystem to known package names. Entries
// ending in "*" match by prefix.
var aiSDKs = map[string][]string{
	EcosystemGo: {
		"github.com/sashabaranov/go-openai",
		"github.com/openai/openai-go*",
		"github.com/anthropics/anthropic-sdk-go",
		"github.com/google/generative-ai-go",
		"google.golang.org/genai",
		"cloud.google.com/go/vertexai",
		"github.com/tmc/langchaingo",
		"github.com/ollama/ollama",
	},
	EcosystemNPM: {
		"openai", "@anthropic-ai/sdk", "@google/generative-ai", "@google/genai",
		"ai", "@ai-sdk/*", "langchain", "@langchain/*", "cohere-ai", "@mistralai/mistralai", "replicate",
	},
	EcosystemPyPI: {
		"openai", "anthropic", "google-generativeai", "google-genai", "langchain", "langchain-*",
		"llama-index", "transformers", "cohere", "mistralai", "litellm",
	},
	EcosystemCargo: {
		"async-openai", "anthropic-sdk", "ollama-rs", "llm",
	},
}

var loggingLibs = map[string][]string{
	EcosystemGo: {
		"go.uber.org/zap", "github.com/rs/zerolog", "github.com/sirupsen/logrus", "github.com/charmbracelet/log",
	},
	EcosystemNPM:   {"winston", "pino", "bunyan", "log4js"},
	EcosystemPyPI:  {"structlog", "loguru", "python-json-logger"},
	EcosystemCargo: {"tracing", "tracing-subscriber", "log", "env_logger", "slog"},
}

func classify(ecosystem, name string) string {
	n := strings.ToLower(name)
	if known(aiSDKs[ecosystem], n) {
		return layer.KindAISDK
	}
	if known(loggingLibs[ecosystem], n) {
		return layer.KindLogging
	}
	return layer.KindOther
}

func known(list []string, name string) bool {
	for _, k := range list {
		if prefix, ok := strings.CutSuffix(k, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == k {
			return true
		}
	}
	return false
}

// ScanManifests parses every dependency manifest in fs. Unparseable
// manifests are listed but contribute no dependencies.
func ScanManifests(fs check.FileSet) layer.DepReport {
	var report layer.DepReport
	for _, f := range fs.Match(manifestPatterns...) {
		var deps []layer.Dependency
		switch base := strings.ToLower(path.Base(f.Path)); {
		case base == "go.mod":
			deps = parseGoMod(f)
		case base == "package.json":
			deps = parsePackageJSON(f)
		case base == "pyproject.toml":
			deps = parsePyProject(f)
		case base == "cargo.toml":
			deps = parseCargo(f)
		case strings.HasPrefix(base, "requirements"):
			deps = parseRequirements(f)
		default:
			continue
		}
		report.Manifests = append(report.Manifests, f.Path)
		for _, d := range deps {
			d.Kind = classify(d.Ecosystem, d.Name)
			report.Add(d)
		}
	}
	return report.Merge(layer.DepReport{})
}

func parseGoMod(f check.File) []layer.Dependency {
	mf, err := modfile.ParseLax(f.Path, []byte(f.Content), nil)
	if err != nil {
		return nil
	}
	deps := make([]layer.Dependency, 0, len(mf.Require))
	for _, r := range mf.Require {
		deps = append(deps, layer.Dependency{
			Name:      r.Mod.Path,
			Version:   r.Mod.Version,
			Ecosystem: EcosystemGo,
			Manifest:  f.Path,
			// Module versions are exact, including pseudo-versions
			Pinned: semver.IsValid(r.Mod.Version),
		})
	}
	return deps
}

func parsePackageJSON(f check.File) []layer.Dependency {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(f.Content), &pkg); err != nil {
		return nil
	}
	var deps []layer.Dependency
	for _, m := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		for name, version := range m {
			deps = append(deps, layer.Dependency{
				Name:      name,
				Version:   version,
				Ecosystem: EcosystemNPM,
				Manifest:  f.Path,
				Pinned:    exactSemver(version),
			})
		}
	}
	return deps
}

// PEP 508 requirement: name, optional extras, optional version specifier
var requirementRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*(===|==|~=|!=|>=|<=|>|<)?\s*([^\s,;#]*)`)

func parseRequirement(line string) (name, op, version string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
		return "", "", "", false
	}
	m := requirementRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", "", false
	}
	return strings.ToLower(m[1]), m[2], m[3], true
}

func pypiDependency(line, manifest string) (layer.Dependency, bool) {
	name, op, version, ok := parseRequirement(line)
	if !ok {
		return layer.Dependency{}, false
	}
	return layer.Dependency{
		Name:      name,
		Version:   op + version,
		Ecosystem: EcosystemPyPI,
		Manifest:  manifest,
		Pinned:    (op == "==" || op == "===") && !strings.Contains(version, "*"),
	}, true
}

func parseRequirements(f check.File) []layer.Dependency {
	var deps []layer.Dependency
	for _, line := range f.Lines() {
		if d, ok := pypiDependency(line, f.Path); ok {
			deps = append(deps, d)
		}
	}
	return deps
}

func parsePyProject(f check.File) []layer.Dependency {
	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal([]byte(f.Content), &doc); err != nil {
		return nil
	}

	var deps []layer.Dependency
	for _, req := range doc.Project.Dependencies {
		if d, ok := pypiDependency(req, f.Path); ok {
			deps = append(deps, d)
		}
	}
	for name, spec := range doc.Tool.Poetry.Dependencies {
		if strings.EqualFold(name, "python") {
			continue
		}
		version := tableVersion(spec)
		deps = append(deps, layer.Dependency{
			Name:      strings.ToLower(name),
			Version:   version,
			Ecosystem: EcosystemPyPI,
			Manifest:  f.Path,
			// Poetry treats a bare version as exact
			Pinned: exactSemver(strings.TrimPrefix(version, "==")),
		})
	}
	return deps
}

func parseCargo(f check.File) []layer.Dependency {
	var doc struct {
		Dependencies map[string]any `toml:"dependencies"`
	}
	if err := toml.Unmarshal([]byte(f.Content), &doc); err != nil {
		return nil
	}
	deps := make([]layer.Dependency, 0, len(doc.Dependencies))
	for name, spec := range doc.Dependencies {
		version := tableVersion(spec)
		deps = append(deps, layer.Dependency{
			Name:      name,
			Version:   version,
			Ecosystem: EcosystemCargo,
			Manifest:  f.Path,
			// A bare Cargo version is a caret requirement; only "=" pins
			Pinned: strings.HasPrefix(version, "=") && exactSemver(strings.TrimPrefix(version, "=")),
		})
	}
	return deps
}

// tableVersion reads `name = "1.0"` or `name = { version = "1.0" }`
func tableVersion(spec any) string {
	switch v := spec.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// exactSemver reports whether v names a single release such as 1.2.3
func exactSemver(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v) && strings.Count(v, ".") >= 2
}
