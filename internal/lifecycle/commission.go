package lifecycle

import (
	"math"

	"jobmarket/internal/domain"
)

// Commission is the platform's cut of budget at pct percent.
func Commission(budget, pct float64) (float64, error) {
	if err := checkTerms(budget, pct); err != nil {
		return 0, err
	}
	return budget * pct / 100, nil
}

// ProviderReceives is what the provider is paid out after commission.
func ProviderReceives(budget, pct float64) (float64, error) {
	c, err := Commission(budget, pct)
	if err != nil {
		return 0, err
	}
	return budget - c, nil
}

// PercentageOf recovers the percentage a commission represents of budget.
func PercentageOf(commission, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return commission / budget * 100
}

// ToCents converts a currency amount to the smallest unit, rounding half away from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func checkTerms(budget, pct float64) error {
	if budget < 0 || math.IsNaN(budget) || math.IsInf(budget, 0) {
		return domain.Validation("budget must be a non-negative amount")
	}
	if pct < 0 || pct > 100 || math.IsNaN(pct) {
		return domain.Validation("commission percentage must be between 0 and 100")
	}
	return nil
}
