// Package calc holds the profit/loss arithmetic. Pure IEEE-754 doubles, no
// rounding; display formatting is the caller's concern.
package calc

// Input is a hypothetical position: how much was invested, the price paid
// per token, and the price to evaluate the position at.
type Input struct {
	Investment    float64
	PurchasePrice float64
	TargetPrice   float64
}

// Result is the evaluated position.
type Result struct {
	TokensOwned float64
	FinalValue  float64
	ProfitLoss  float64
}

// Evaluate computes the position. A zero or negative purchase price yields
// zero tokens rather than an infinity or NaN.
func Evaluate(in Input) Result {
	var tokens float64
	if in.PurchasePrice > 0 {
		tokens = in.Investment / in.PurchasePrice
	}
	finalValue := tokens * in.TargetPrice
	return Result{
		TokensOwned: tokens,
		FinalValue:  finalValue,
		ProfitLoss:  finalValue - in.Investment,
	}
}
