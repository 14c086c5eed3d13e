package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ticket-checkout/internal/fee"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cents(v Money) *Money { return &v }

func newTestEngine(t *testing.T, s fee.Schedule) *Engine {
	t.Helper()
	calc, err := fee.NewCalculator(s)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return NewEngine(calc)
}

// deployedSchedule mirrors the constants used in the checkout scenarios.
func deployedSchedule() fee.Schedule {
	return fee.Schedule{
		FixedClientFee: 100,
		PercentageFee:  decimal.NewFromInt(5),
		ThresholdCents: fee.DefaultThresholdCents,
	}
}

func clientFeeOnly(amount int64) fee.Schedule {
	return fee.Schedule{FixedClientFee: amount, PercentageFee: decimal.Zero, ThresholdCents: fee.DefaultThresholdCents}
}

// festival has two days, two ticket types and one batch pricing both types.
func festival() *Event {
	return &Event{
		ID:   "evt-1",
		Name: "Festival",
		Dates: []EventDate{
			{ID: "d1", Date: testNow.AddDate(0, 1, 0)},
			{ID: "d2", Date: testNow.AddDate(0, 1, 1)},
		},
		TicketTypes: []TicketType{{ID: "vip", Name: "VIP"}, {ID: "gen", Name: "General"}},
		Batches: []EventBatch{
			{
				ID:        "b1",
				Name:      "Lot 1",
				Price:     cents(1500),
				StartDate: testNow.AddDate(0, -1, 0),
				IsActive:  true,
				TicketTypes: []EventBatchTicketType{
					{TicketTypeID: "vip", Price: cents(5000)},
					{TicketTypeID: "gen", Price: cents(2000)},
				},
			},
		},
	}
}
