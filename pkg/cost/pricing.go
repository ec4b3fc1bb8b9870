package cost

import (
	"github.com/shopspring/decimal"
)

// Model identifiers with built-in pricing.
const (
	ModelMistralLarge  = "mistral-large-latest"
	ModelMistralMedium = "mistral-medium-latest"
	ModelMistralSmall  = "mistral-small-latest"

	// DefaultModel prices calls whose model is unknown or unspecified.
	DefaultModel = ModelMistralMedium
)

//nolint:gochecknoglobals // Constant divisor
var perMillion = decimal.NewFromInt(1_000_000)

// Tier holds per-million-token rates in USD.
type Tier struct {
	InputPerMillion  float64 `json:"input"`
	OutputPerMillion float64 `json:"output"`
}

// Pricing maps model names to tiers. Unknown models resolve to Default.
type Pricing struct {
	Tiers   map[string]Tier `json:"tiers"`
	Default string          `json:"default"`
}

// DefaultPricing returns the built-in Mistral rate table.
func DefaultPricing() (pricing *Pricing) {
	pricing = &Pricing{
		Tiers: map[string]Tier{
			ModelMistralLarge:  {InputPerMillion: 2.00, OutputPerMillion: 6.00},
			ModelMistralMedium: {InputPerMillion: 0.40, OutputPerMillion: 2.00},
			ModelMistralSmall:  {InputPerMillion: 0.10, OutputPerMillion: 0.30},
		},
		Default: DefaultModel,
	}
	return pricing
}

// Merge returns a copy of p with overrides applied. A non-empty defaultModel replaces Default.
func (p *Pricing) Merge(overrides map[string]Tier, defaultModel string) (merged *Pricing) {
	merged = &Pricing{
		Tiers:   make(map[string]Tier, len(p.Tiers)+len(overrides)),
		Default: p.Default,
	}
	for name, tier := range p.Tiers {
		merged.Tiers[name] = tier
	}
	for name, tier := range overrides {
		merged.Tiers[name] = tier
	}
	if defaultModel != "" {
		merged.Default = defaultModel
	}
	return merged
}

// Resolve returns the model name a call is recorded under and the tier it is priced on.
// An empty model means the default; an unknown model keeps its name but uses the default tier.
func (p *Pricing) Resolve(model string) (name string, tier Tier) {
	name = model
	if name == "" {
		name = p.Default
	}

	tier, ok := p.Tiers[name]
	if !ok {
		tier = p.Tiers[p.Default]
	}

	return name, tier
}

// CalculateCost returns the USD cost of a call. It never fails.
func (p *Pricing) CalculateCost(inputTokens, outputTokens int, model string) (cost float64) {
	cost, _ = p.cost(inputTokens, outputTokens, model).Float64()
	return cost
}

func (p *Pricing) cost(inputTokens, outputTokens int, model string) (cost decimal.Decimal) {
	_, tier := p.Resolve(model)

	input := decimal.NewFromInt(int64(inputTokens)).Div(perMillion).Mul(decimal.NewFromFloat(tier.InputPerMillion))
	output := decimal.NewFromInt(int64(outputTokens)).Div(perMillion).Mul(decimal.NewFromFloat(tier.OutputPerMillion))

	cost = input.Add(output)
	return cost
}

// CalculateCost prices a call against the built-in rate table.
func CalculateCost(inputTokens, outputTokens int, model string) (cost float64) {
	cost = DefaultPricing().CalculateCost(inputTokens, outputTokens, model)
	return cost
}
