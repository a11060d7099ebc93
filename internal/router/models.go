package router

// GetAvailableModels returns the catalog of known AI models
func GetAvailableModels() []Model {
	return []Model{
		// Anthropic Claude Models
		{
			ID:              "claude-sonnet-4",
			Provider:        ProviderAnthropic,
			Name:            "claude-sonnet-4-20250514",
			Type:            ModelTypeReasoning,
			ContextWindow:   200000,
			InputPerMToken:  3.00,
			OutputPerMToken: 15.00,
			CapabilityScore: 95,
		},
		{
			ID:              "claude-sonnet-3.5",
			Provider:        ProviderAnthropic,
			Name:            "claude-3-5-sonnet-20241022",
			Type:            ModelTypeReasoning,
			ContextWindow:   200000,
			InputPerMToken:  3.00,
			OutputPerMToken: 15.00,
			CapabilityScore: 92,
		},
		{
			ID:              "claude-haiku-3.5",
			Provider:        ProviderAnthropic,
			Name:            "claude-3-5-haiku-20241022",
			Type:            ModelTypeFast,
			ContextWindow:   200000,
			InputPerMToken:  0.80,
			OutputPerMToken: 4.00,
			CapabilityScore: 75,
		},

		// OpenAI Models
		{
			ID:              "gpt-4o",
			Provider:        ProviderOpenAI,
			Name:            "gpt-4o-2024-08-06",
			Type:            ModelTypeReasoning,
			ContextWindow:   128000,
			InputPerMToken:  2.50,
			OutputPerMToken: 10.00,
			CapabilityScore: 88,
		},
		{
			ID:              "gpt-4o-mini",
			Provider:        ProviderOpenAI,
			Name:            "gpt-4o-mini-2024-07-18",
			Type:            ModelTypeCheap,
			ContextWindow:   128000,
			InputPerMToken:  0.15,
			OutputPerMToken: 0.60,
			CapabilityScore: 70,
		},
	}
}

// GetModelByID finds a model by its ID or its provider-side name
func GetModelByID(id string) *Model {
	models := GetAvailableModels()
	for _, m := range models {
		if m.ID == id || m.Name == id {
			return &m
		}
	}
	return nil
}

// GetModelsByProvider returns all models for a provider
func GetModelsByProvider(provider Provider) []Model {
	models := GetAvailableModels()
	var result []Model
	for _, m := range models {
		if m.Provider == provider {
			result = append(result, m)
		}
	}
	return result
}

// GetCheapestModel returns the cheapest model of a provider
func GetCheapestModel(provider Provider) *Model {
	models := GetModelsByProvider(provider)
	if len(models) == 0 {
		return nil
	}

	cheapest := &models[0]
	for i := range models {
		if models[i].InputPerMToken < cheapest.InputPerMToken {
			cheapest = &models[i]
		}
	}
	return cheapest
}
