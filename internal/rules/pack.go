package rules

import (
	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/layer"
)

// Scoring categories used by the built-in rules
const (
	CategoryTransparency   = "transparency"
	CategoryDocumentation  = "documentation"
	CategoryDataGovernance = "data_governance"
	CategoryHumanOversight = "human_oversight"
	CategoryRecordKeeping  = "record_keeping"
)

// Default returns a registry holding the built-in rule pack
func Default() (*layer.Registry, error) {
	reg := layer.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register adds the built-in rules to reg in emission order
func Register(reg *layer.Registry) error {
	for _, u := range presenceRules() {
		if err := reg.RegisterUnit(u); err != nil {
			return err
		}
	}
	for _, a := range structureRules() {
		if err := reg.RegisterDoc(a); err != nil {
			return err
		}
	}
	for _, a := range dependencyRules() {
		if err := reg.RegisterDep(a); err != nil {
			return err
		}
	}
	for _, p := range patternRules() {
		if err := reg.RegisterPattern(p); err != nil {
			return err
		}
	}
	return nil
}

func presenceRules() []check.Unit {
	return []check.Unit{
		&presence{
			meta: check.Meta{
				ID: "ai-system-documentation", Layer: domain.LayerFilePresence, Category: CategoryDocumentation,
				ObligationID: "eu-ai-act-art-11", Article: "EU AI Act Art. 11", Severity: domain.SeverityHigh,
				Description: "Technical documentation of the AI system exists",
			},
			what:     "AI system documentation",
			fix:      "Add docs/ai-system.md describing purpose, architecture, data, performance and limitations",
			patterns: []string{"ai-system*.md", "ai_system*.md", "docs/ai/*.md", "technical-documentation*.md"},
		},
		&presence{
			meta: check.Meta{
				ID: "risk-management-doc", Layer: domain.LayerFilePresence, Category: CategoryDocumentation,
				ObligationID: "eu-ai-act-art-9", Article: "EU AI Act Art. 9", Severity: domain.SeverityMedium,
				Description: "A risk management document exists",
			},
			what:     "risk management document",
			fix:      "Add RISK_MANAGEMENT.md listing identified risks and mitigations",
			patterns: []string{"risk-management*.md", "risk_management*.md", "risks.md", "docs/risk*.md"},
		},
		&presence{
			meta: check.Meta{
				ID: "privacy-policy", Layer: domain.LayerFilePresence, Category: CategoryDataGovernance,
				ObligationID: "gdpr-art-13", Article: "GDPR Art. 13", Severity: domain.SeverityMedium,
				Description: "A privacy policy describing personal data processing exists",
			},
			what:     "privacy policy",
			fix:      "Add PRIVACY.md describing what personal data is processed and why",
			patterns: []string{"privacy*.md", "privacy-policy*", "privacy_policy*", "docs/privacy*"},
		},
		&presence{
			meta: check.Meta{
				ID: "incident-response-plan", Layer: domain.LayerFilePresence, Category: CategoryRecordKeeping,
				ObligationID: "eu-ai-act-art-73", Article: "EU AI Act Art. 73", Severity: domain.SeverityLow,
				Description: "A plan for reporting serious incidents exists",
			},
			what:     "incident response plan",
			fix:      "Add INCIDENT_RESPONSE.md or a SECURITY.md with a reporting procedure",
			patterns: []string{"incident*.md", "security.md", "docs/incident*"},
		},
	}
}

func structureRules() []layer.DocAnalyzer {
	return []layer.DocAnalyzer{
		&structure{
			meta: check.Meta{
				ID: "ai-documentation-structure", Layer: domain.LayerDocStructure, Category: CategoryDocumentation,
				ObligationID: "eu-ai-act-annex-iv", Article: "EU AI Act Annex IV", Severity: domain.SeverityMedium,
				Description: "AI system documentation covers the Annex IV sections",
			},
			what:     "AI system documentation",
			fix:      "Add the missing sections to the AI system documentation",
			patterns: []string{"ai-system*.md", "ai_system*.md", "docs/ai/*.md", "technical-documentation*.md"},
			sections: []section{
				{name: "Intended purpose", aliases: []string{"purpose", "intended use"}},
				{name: "Architecture", aliases: []string{"architecture", "system design", "design"}},
				{name: "Data", aliases: []string{"data", "dataset"}},
				{name: "Performance", aliases: []string{"performance", "accuracy", "metrics", "evaluation"}},
				{name: "Limitations", aliases: []string{"limitation", "risk", "known issues"}},
				{name: "Human oversight", aliases: []string{"oversight", "human review"}},
			},
		},
		&structure{
			meta: check.Meta{
				ID: "model-card-structure", Layer: domain.LayerDocStructure, Category: CategoryTransparency,
				ObligationID: "eu-ai-act-art-13", Article: "EU AI Act Art. 13", Severity: domain.SeverityLow,
				Description: "Model cards describe use, training data, evaluation and limitations",
			},
			what:     "model card",
			fix:      "Complete the model card sections",
			patterns: []string{"model_card*.md", "model-card*.md", "modelcard*.md"},
			optional: true,
			sections: []section{
				{name: "Model details", aliases: []string{"model details", "overview", "model description"}},
				{name: "Intended use", aliases: []string{"intended use", "uses"}},
				{name: "Training data", aliases: []string{"training", "data"}},
				{name: "Evaluation", aliases: []string{"evaluation", "metrics", "results"}},
				{name: "Limitations", aliases: []string{"limitation", "bias", "ethical", "risks"}},
			},
		},
	}
}

func dependencyRules() []layer.DepAnalyzer {
	return []layer.DepAnalyzer{
		&sdkPinned{meta: check.Meta{
			ID: "ai-sdk-pinned", Layer: domain.LayerDependency, Category: CategoryRecordKeeping,
			ObligationID: "eu-ai-act-art-15", Article: "EU AI Act Art. 15", Severity: domain.SeverityLow,
			Description: "AI SDK dependencies are pinned to exact versions",
		}},
		&loggingFramework{meta: check.Meta{
			ID: "ai-logging-framework", Layer: domain.LayerDependency, Category: CategoryRecordKeeping,
			ObligationID: "eu-ai-act-art-12", Article: "EU AI Act Art. 12", Severity: domain.SeverityMedium,
			Description: "A structured logging library is available for record keeping",
		}},
	}
}

func patternRules() []layer.PatternUnit {
	return []layer.PatternUnit{
		&pattern{
			meta: check.Meta{
				ID: "ai-disclosure", Layer: domain.LayerPattern, Category: CategoryTransparency,
				ObligationID: "eu-ai-act-art-50-1", Article: "EU AI Act Art. 50(1)", Severity: domain.SeverityCritical,
				Description: "Users are told they are interacting with an AI system",
			},
			what: "AI disclosure",
			fix:  "Tell users they are interacting with an AI system, e.g. a visible notice in the chat UI",
			narrow: compile(
				`(?i)\b(you are|you're) (talking|chatting|interacting|speaking) (to|with) an? (ai|artificial intelligence|bot|virtual assistant)\b`,
				`(?i)\bai[- ]generated\b`,
				`(?i)\bgenerated (by|with|using) (an? )?(ai|artificial intelligence)\b`,
				`(?i)\bpowered by (ai|gpt|claude|gemini|an? llm)\b`,
			),
			broad: compile(
				`(?i)\bai[_-]?(disclosure|notice|banner|label)\b`,
				`(?i)\b(ai|artificial intelligence) (assistant|model)\b`,
			),
			context:      compile(append([]string{`(?i)\b(chat|conversation)(bot|window|ui|widget|view)?\b`}, aiCallSites...)...),
			requireAISDK: true,
			corroborate:  layer.DepReport.HasAISDK,
		},
		&pattern{
			meta: check.Meta{
				ID: "content-marking", Layer: domain.LayerPattern, Category: CategoryTransparency,
				ObligationID: "eu-ai-act-art-50-2", Article: "EU AI Act Art. 50(2)", Severity: domain.SeverityHigh,
				Description: "Synthetic media is marked in a machine-readable way",
			},
			what: "content marking",
			fix:  "Mark generated media with C2PA content credentials or a watermark",
			narrow: compile(
				`(?i)\b(c2pa|content[_ -]?credentials)\b`,
				`(?i)\bwatermark(ing|ed)?\b`,
			),
			broad: compile(
				`(?i)\b(provenance|synthetic[_ -]?(content|media))\b`,
				`(?i)x-ai-generated`,
			),
			context: compile(
				`(?i)\bimages?\.(generate|create|edit)\b`,
				`(?i)\b(dall-?e|imagen|stable[_-]?diffusion|midjourney)\b`,
				`(?i)\b(text[_-]?to[_-]?(image|speech|video)|speech\.create|tts)\b`,
			),
			requireAISDK:       true,
			skipWithoutContext: true,
			corroborate:        layer.DepReport.HasAISDK,
		},
		&pattern{
			meta: check.Meta{
				ID: "interaction-logging", Layer: domain.LayerPattern, Category: CategoryRecordKeeping,
				ObligationID: "eu-ai-act-art-12", Article: "EU AI Act Art. 12", Severity: domain.SeverityHigh,
				Description: "Model interactions are logged",
			},
			what: "interaction logging",
			fix:  "Log each model request and response with a request id and timestamp",
			narrow: compile(
				`(?i)\b(log|logger|audit)\w*\.\w+\(.*\b(prompt|completion|model response|messages)\b`,
				`(?i)\b(audit|interaction)[_ -]?log(ger)?\b`,
			),
			broad: compile(
				`(?i)\b(request|trace|correlation)[_ -]?id\b`,
				`(?i)\b(log|logger)\.\w+\(`,
			),
			context:      compile(aiCallSites...),
			requireAISDK: true,
			corroborate:  layer.DepReport.HasLogging,
		},
		&pattern{
			meta: check.Meta{
				ID: "human-oversight", Layer: domain.LayerPattern, Category: CategoryHumanOversight,
				ObligationID: "eu-ai-act-art-14", Article: "EU AI Act Art. 14", Severity: domain.SeverityHigh,
				Description: "A human can review, override or stop the system",
			},
			what: "human oversight mechanism",
			fix:  "Add a human review, approval or override path for model decisions",
			narrow: compile(
				`(?i)\bhuman[_ -]in[_ -]the[_ -]loop\b`,
				`(?i)\b(human|manual)[_ -]?(review|approval|override)\b`,
				`(?i)\brequires?[_ -]?approval\b`,
			),
			broad: compile(
				`(?i)\b(kill[_ -]?switch|override|escalat(e|ion)|fallback)\b`,
			),
			context:      compile(aiCallSites...),
			requireAISDK: true,
		},
		&pattern{
			meta: check.Meta{
				ID: "data-retention", Layer: domain.LayerPattern, Category: CategoryDataGovernance,
				ObligationID: "gdpr-art-5-1-e", Article: "GDPR Art. 5(1)(e)", Severity: domain.SeverityMedium,
				Description: "Stored personal data has a retention limit",
			},
			what: "data retention handling",
			fix:  "Define a retention period and delete or anonymise personal data after it",
			narrow: compile(
				`(?i)\b(data[_ -]?)?retention[_ -]?(period|policy|days|ttl)\b`,
				`(?i)\b(delete|purge)[_ -]?(after|older|expired)\b`,
				`(?i)\bright[_ -]to[_ -](erasure|be[_ -]forgotten)\b`,
			),
			broad: compile(
				`(?i)\b(ttl|expires?[_ ]?at|expiry)\b`,
				`(?i)\bdata[_ -]?retention\b`,
			),
			context: compile(
				`(?i)\b(personal[_ -]?data|pii|user[_ -]?data|conversation[_ -]?history|chat[_ -]?history)\b`,
			),
			skipWithoutContext: true,
		},
	}
}
