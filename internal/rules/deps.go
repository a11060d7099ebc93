package rules

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/confidence"
	"github.com/felixgeelhaar/complyscan/internal/layer"
)

const (
	skipNoManifests = "no dependency manifests found"
	skipNoAISDK     = "no AI SDK dependency declared"
)

// sdkPinned checks that AI SDK dependencies resolve to exact versions so a
// given build always talks to the same client behaviour.
type sdkPinned struct {
	meta check.Meta
}

func (a *sdkPinned) Meta() check.Meta { return a.meta }

func (a *sdkPinned) Analyze(fs check.FileSet) layer.DepResult {
	facts := ScanManifests(fs)
	res := layer.DepResult{Facts: facts}

	switch {
	case len(facts.Manifests) == 0:
		res.Statuses = []layer.ConfigStatus{{SkipReason: skipNoManifests}}
		return res
	case !facts.HasAISDK():
		res.Statuses = []layer.ConfigStatus{{SkipReason: skipNoAISDK}}
		return res
	}

	var unpinned []layer.Dependency
	for _, d := range facts.AISDKs {
		if !d.Pinned {
			unpinned = append(unpinned, d)
		}
	}
	total := len(facts.AISDKs)
	pinned := total - len(unpinned)

	switch {
	case len(unpinned) == 0:
		res.Statuses = []layer.ConfigStatus{{
			Status:       confidence.ConfigConfigured,
			Explicitness: 1,
			Message:      fmt.Sprintf("all %d AI SDK dependencies are pinned", total),
			File:         facts.AISDKs[0].Manifest,
		}}
	case pinned > 0:
		res.Statuses = []layer.ConfigStatus{{
			Status:       confidence.ConfigDetected,
			Explicitness: float64(pinned) / float64(total),
			Message:      fmt.Sprintf("%d of %d AI SDK dependencies are pinned; unpinned: %s", pinned, total, names(unpinned)),
			Fix:          "Pin AI SDK dependencies to exact versions",
			File:         unpinned[0].Manifest,
		}}
	default:
		res.Statuses = []layer.ConfigStatus{{
			Status:       confidence.ConfigMissing,
			Explicitness: 1,
			Message:      fmt.Sprintf("no AI SDK dependency is pinned: %s", names(unpinned)),
			Fix:          "Pin AI SDK dependencies to exact versions",
			File:         unpinned[0].Manifest,
		}}
	}
	return res
}

// loggingFramework checks that a project using an AI SDK declares a
// structured logging library to record interactions with.
type loggingFramework struct {
	meta check.Meta
}

func (a *loggingFramework) Meta() check.Meta { return a.meta }

func (a *loggingFramework) Analyze(fs check.FileSet) layer.DepResult {
	facts := ScanManifests(fs)
	res := layer.DepResult{Facts: facts}

	if !facts.HasAISDK() {
		res.Statuses = []layer.ConfigStatus{{SkipReason: skipNoAISDK}}
		return res
	}

	if !facts.HasLogging() {
		res.Statuses = []layer.ConfigStatus{{
			Status: confidence.ConfigMissing,
			// Standard library logging may still exist, so the miss is only weakly explicit
			Explicitness: 0.3,
			Message:      "no structured logging library declared alongside the AI SDK",
			Fix:          "Add a structured logger (zap, zerolog, winston, pino, structlog) and log model interactions",
			File:         facts.AISDKs[0].Manifest,
		}}
		return res
	}

	sdkManifests := make(map[string]bool)
	for _, d := range facts.AISDKs {
		sdkManifests[d.Manifest] = true
	}
	for _, l := range facts.LoggingLibs {
		if sdkManifests[l.Manifest] {
			res.Statuses = []layer.ConfigStatus{{
				Status:       confidence.ConfigConfigured,
				Explicitness: 1,
				Message:      fmt.Sprintf("structured logging library %s declared in %s", l.Name, l.Manifest),
				File:         l.Manifest,
			}}
			return res
		}
	}

	l := facts.LoggingLibs[0]
	res.Statuses = []layer.ConfigStatus{{
		Status:       confidence.ConfigDetected,
		Explicitness: 0.5,
		Message:      fmt.Sprintf("logging library %s is declared in %s, not in the manifest using the AI SDK", l.Name, l.Manifest),
		File:         l.Manifest,
	}}
	return res
}

func names(deps []layer.Dependency) string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.Name
	}
	return strings.Join(out, ", ")
}
