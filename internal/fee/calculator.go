package fee

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// branch identifies which rule of the schedule produced a fee.
type branch int

const (
	branchNone branch = iota
	branchUntaxed
	branchPercentage
	branchBelowThreshold
	branchFixed
)

// Calculator computes platform fees from an immutable schedule.
type Calculator struct {
	schedule Schedule
}

// NewCalculator validates the schedule and returns a calculator bound to it.
func NewCalculator(s Schedule) (*Calculator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{schedule: s}, nil
}

// MustNewCalculator behaves like NewCalculator but panics on an invalid schedule.
func MustNewCalculator(s Schedule) *Calculator {
	c, err := NewCalculator(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Schedule returns the schedule the calculator was built with.
func (c *Calculator) Schedule() Schedule {
	return c.schedule
}

// Calculate returns the fee in minor units for one unit priced at priceCents.
// Non-positive prices carry no fee. The percentage fee is rounded half away from zero,
// which for the positive amounts involved is the same as rounding half up.
func (c *Calculator) Calculate(priceCents int64, clientTaxed bool) int64 {
	amount, _ := c.calculate(priceCents, clientTaxed)
	return amount
}

// CalculateOptional treats a missing price like a zero price.
func (c *Calculator) CalculateOptional(priceCents *int64, clientTaxed *bool) int64 {
	if priceCents == nil {
		return 0
	}
	taxed := clientTaxed != nil && *clientTaxed
	return c.Calculate(*priceCents, taxed)
}

func (c *Calculator) calculate(priceCents int64, clientTaxed bool) (int64, branch) {
	if priceCents <= 0 {
		return 0, branchNone
	}
	s := c.schedule
	base := s.FixedClientFee
	if !clientTaxed {
		return base, branchUntaxed
	}
	if priceCents > s.ThresholdCents {
		return base + c.percentageOf(priceCents), branchPercentage
	}
	if priceCents <= s.ThresholdCents && clientTaxed {
		return base + s.FixedFeeBelowThreshold, branchBelowThreshold
	}
	// Unreachable while the two checks above cover every taxed price. Kept until the
	// intended use of FixedFee is confirmed.
	return base + s.FixedFee, branchFixed
}

func (c *Calculator) percentageOf(priceCents int64) int64 {
	return decimal.NewFromInt(priceCents).
		Mul(c.schedule.PercentageFee).
		Div(hundred).
		Round(0).
		IntPart()
}
