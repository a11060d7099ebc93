package layer

import (
	"sort"
)

// Dependency kinds recognised by the L3 analyzers
const (
	KindAISDK   = "ai-sdk"
	KindLogging = "logging"
	KindOther   = "other"
)

// Dependency is one declared dependency from a manifest
type Dependency struct {
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	Ecosystem string `json:"ecosystem"`
	Manifest  string `json:"manifest"`
	Kind      string `json:"kind"`
	// Pinned is set when the version resolves to exactly one release
	Pinned bool `json:"pinned"`
}

func (d Dependency) key() string {
	return d.Manifest + "\x00" + d.Ecosystem + "\x00" + d.Name
}

// DepReport is the typed L3 intermediate result. It is passed to L4 and
// exposed on the scan result, never persisted.
type DepReport struct {
	Manifests   []string     `json:"manifests"`
	AISDKs      []Dependency `json:"aiSdks"`
	LoggingLibs []Dependency `json:"loggingLibs"`
	Other       []Dependency `json:"other,omitempty"`
}

// Add files a dependency under its kind
func (r *DepReport) Add(d Dependency) {
	switch d.Kind {
	case KindAISDK:
		r.AISDKs = append(r.AISDKs, d)
	case KindLogging:
		r.LoggingLibs = append(r.LoggingLibs, d)
	default:
		r.Other = append(r.Other, d)
	}
}

// HasAISDK reports whether any AI SDK was resolved
func (r DepReport) HasAISDK() bool { return len(r.AISDKs) > 0 }

// HasLogging reports whether any logging library was resolved
func (r DepReport) HasLogging() bool { return len(r.LoggingLibs) > 0 }

// Merge returns the union of r and other, deduplicated and sorted so that
// the result does not depend on analyzer completion order.
func (r DepReport) Merge(other DepReport) DepReport {
	return DepReport{
		Manifests:   mergeStrings(r.Manifests, other.Manifests),
		AISDKs:      mergeDeps(r.AISDKs, other.AISDKs),
		LoggingLibs: mergeDeps(r.LoggingLibs, other.LoggingLibs),
		Other:       mergeDeps(r.Other, other.Other),
	}
}

func mergeStrings(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func mergeDeps(a, b []Dependency) []Dependency {
	if len(a)+len(b) == 0 {
		return nil
	}
	seen := make(map[string]int, len(a)+len(b))
	out := make([]Dependency, 0, len(a)+len(b))
	for _, d := range append(append([]Dependency{}, a...), b...) {
		if i, ok := seen[d.key()]; ok {
			// A later, more specific declaration wins
			if out[i].Version == "" {
				out[i] = d
			}
			continue
		}
		seen[d.key()] = len(out)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key() < out[j].key() })
	return out
}
