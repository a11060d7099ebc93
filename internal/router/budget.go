package router

// Budget tracks estimated spending against a limit. A zero limit is unlimited.
// It is not safe for concurrent use; reservations are made in input order
// before calls fan out so the outcome does not depend on scheduling.
type Budget struct {
	LimitUSD   float64 `json:"limit_usd"`
	SpentUSD   float64 `json:"spent_usd"`
	UsageCount int     `json:"usage_count"`
}

// NewBudget creates a budget with the given limit
func NewBudget(limitUSD float64) *Budget {
	return &Budget{LimitUSD: limitUSD}
}

// Reserve books cost if it fits and reports whether it did
func (b *Budget) Reserve(cost float64) bool {
	if b.LimitUSD > 0 && b.SpentUSD+cost > b.LimitUSD {
		return false
	}
	b.SpentUSD += cost
	b.UsageCount++
	return true
}

// Remaining returns the unreserved amount; negative limits mean unlimited
func (b *Budget) Remaining() float64 {
	if b.LimitUSD <= 0 {
		return -1
	}
	return b.LimitUSD - b.SpentUSD
}
