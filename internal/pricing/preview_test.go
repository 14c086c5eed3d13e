package pricing

import "testing"

func TestPreviewAgreesWithItemTotal(t *testing.T) {
	engine := newTestEngine(t, deployedSchedule())
	ev := festival()
	ev.Dates[1].HasSpecificPrice = true
	ev.Dates[1].Price = cents(4500)
	ev.Dates[1].TicketTypePrices = []EventDateTicketTypePrice{{TicketTypeID: "vip", Price: 9000}}

	cases := []struct {
		name string
		sel  Selection
		calc func(Selection) Money
	}{
		{
			name: "days and types",
			sel:  Selection{Event: ev, BatchID: "b1", Days: []string{"d1", "d2"}, TicketTypes: map[string]int{"vip": 2, "gen": 1, "none": 0}, ClientTaxed: true},
			calc: engine.TotalForSelectedDaysAndTypes,
		},
		{
			name: "batch types",
			sel:  Selection{Event: ev, BatchID: "b1", TicketTypes: map[string]int{"vip": 1, "gen": 3, "ghost": 2}, ClientTaxed: true},
			calc: engine.TotalForBatchTicketTypes,
		},
		{
			name: "days without types",
			sel:  Selection{Event: ev, Days: []string{"d1", "d2"}, Quantity: 2, ClientTaxed: true},
			calc: engine.TotalForMultipleDaysWithoutTicketTypes,
		},
		{
			name: "nothing selected",
			sel:  Selection{Event: ev, BatchID: "b1", Quantity: 3, ClientTaxed: false},
			calc: engine.CurrentPrice,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			preview := tc.calc(tc.sel)
			if current := engine.CurrentPrice(tc.sel); current != preview {
				t.Fatalf("CurrentPrice %d disagrees with calculator %d", current, preview)
			}
			item := NewItem(engine.CartItem(tc.sel))
			if total := engine.ItemTotal(item, ev); total != preview {
				t.Fatalf("ItemTotal %d disagrees with preview %d", total, preview)
			}
			if preview == 0 {
				t.Fatal("expected a non-zero preview")
			}
		})
	}
}

func TestTotalForSelectedDaysAndTypesValues(t *testing.T) {
	engine := newTestEngine(t, clientFeeOnly(100))
	ev := festival()
	sel := Selection{Event: ev, BatchID: "b1", Days: []string{"d1", "d2"}, TicketTypes: map[string]int{"gen": 2}}
	if got := engine.TotalForSelectedDaysAndTypes(sel); got != (4000+100)*2 {
		t.Fatalf("expected 8200, got %d", got)
	}
	sel.Event = nil
	if got := engine.TotalForSelectedDaysAndTypes(sel); got != 0 {
		t.Fatalf("expected zero without event, got %d", got)
	}
}

func TestCurrentPriceNothingSelected(t *testing.T) {
	engine := newTestEngine(t, deployedSchedule())
	ev := festival()
	sel := Selection{Event: ev, BatchID: "b1", Quantity: 2, ClientTaxed: true}
	// Batch flat price 1500 is below the threshold.
	if got := engine.CurrentPrice(sel); got != (1500+100)*2 {
		t.Fatalf("expected 3200, got %d", got)
	}
}
