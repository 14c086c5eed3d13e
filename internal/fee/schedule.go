package fee

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultThresholdCents is the price boundary between the two taxed fee regimes (39.90).
const DefaultThresholdCents int64 = 3990

// ErrInvalidSchedule is returned when a schedule carries values the calculator cannot honour.
var ErrInvalidSchedule = errors.New("invalid fee schedule")

// Schedule holds the platform fee knobs. Amounts are minor units; PercentageFee is on a
// 0-100 scale and may be fractional.
type Schedule struct {
	FixedClientFee         int64
	PercentageFee          decimal.Decimal
	FixedFee               int64
	ThresholdCents         int64
	FixedFeeBelowThreshold int64
}

// DefaultSchedule returns a schedule with every fee at zero and the default threshold.
func DefaultSchedule() Schedule {
	return Schedule{
		PercentageFee:  decimal.Zero,
		ThresholdCents: DefaultThresholdCents,
	}
}

// Validate rejects negative amounts and percentages outside 0..100.
func (s Schedule) Validate() error {
	switch {
	case s.FixedClientFee < 0:
		return fmt.Errorf("%w: fixed client fee must not be negative", ErrInvalidSchedule)
	case s.FixedFee < 0:
		return fmt.Errorf("%w: fixed fee must not be negative", ErrInvalidSchedule)
	case s.FixedFeeBelowThreshold < 0:
		return fmt.Errorf("%w: fixed fee below threshold must not be negative", ErrInvalidSchedule)
	case s.ThresholdCents < 0:
		return fmt.Errorf("%w: threshold must not be negative", ErrInvalidSchedule)
	case s.PercentageFee.IsNegative() || s.PercentageFee.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: percentage fee must be between 0 and 100", ErrInvalidSchedule)
	}
	return nil
}
