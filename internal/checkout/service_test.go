package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/ticket-checkout/internal/fee"
	"github.com/noah-isme/ticket-checkout/internal/obs"
	"github.com/noah-isme/ticket-checkout/internal/pricing"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cents(v int64) *int64 { return &v }

func newTestService(t *testing.T) *Service {
	t.Helper()
	calc, err := fee.NewCalculator(fee.Schedule{
		FixedClientFee: 100,
		PercentageFee:  decimal.NewFromInt(5),
		ThresholdCents: fee.DefaultThresholdCents,
	})
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return &Service{
		Engine:   pricing.NewEngine(calc),
		Currency: "BRL",
		Logger:   obs.NewNopLogger(),
		NewID:    func() string { return "quote-1" },
		Now:      func() time.Time { return testNow },
	}
}

func festival() pricing.Event {
	return pricing.Event{
		ID:   "evt-1",
		Name: "Festival",
		Dates: []pricing.EventDate{
			{ID: "d1", Date: testNow.AddDate(0, 1, 0)},
			{ID: "d2", Date: testNow.AddDate(0, 1, 1)},
		},
		TicketTypes: []pricing.TicketType{{ID: "vip", Name: "VIP"}, {ID: "gen", Name: "General"}},
		Batches: []pricing.EventBatch{{
			ID:        "b1",
			Name:      "Lot 1",
			Price:     cents(1500),
			StartDate: testNow.AddDate(0, -1, 0),
			IsActive:  true,
			TicketTypes: []pricing.EventBatchTicketType{
				{TicketTypeID: "vip", Price: cents(5000)},
				{TicketTypeID: "gen", Price: cents(2000)},
			},
		}},
	}
}

func TestQuoteAggregatesItems(t *testing.T) {
	svc := newTestService(t)
	out, err := svc.Quote(context.Background(), QuoteInput{
		Events: []pricing.Event{festival()},
		Items: []pricing.CartItem{
			{
				EventID:       "evt-1",
				BatchID:       "b1",
				IsClientTaxed: true,
				TicketTypes:   []pricing.CartItemTicketType{{TicketTypeID: "vip", Days: []string{"d1"}, Quantity: 1}},
			},
			{EventID: "evt-2", Price: 1000, Quantity: 2, IsClientTaxed: true},
		},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 5000 + (100 + 250) and (1000 + 100) * 2.
	if out.Subtotal != 7000 || out.Fees != 550 || out.Total != 7550 {
		t.Fatalf("unexpected totals: %+v", out)
	}
	if out.ID != "quote-1" || out.Currency != "BRL" {
		t.Fatalf("unexpected quote header: %+v", out)
	}
	if len(out.Items) != 2 || out.Items[0].Shape != "multi_day_with_types" || out.Items[1].Shape != "simple" {
		t.Fatalf("unexpected items: %+v", out.Items)
	}
	line := out.Items[0].Lines[0]
	if line.Key != "vip_d1" || line.UnitPrice == nil || *line.UnitPrice != 5000 || line.Fee != 350 {
		t.Fatalf("unexpected line: %+v", line)
	}
}

func TestQuoteCountsUnresolvedLines(t *testing.T) {
	svc := newTestService(t)
	out, err := svc.Quote(context.Background(), QuoteInput{
		Events: []pricing.Event{festival()},
		Items: []pricing.CartItem{{
			EventID: "evt-1",
			BatchID: "b1",
			TicketTypes: []pricing.CartItemTicketType{
				{TicketTypeID: "gen", Days: []string{"d1"}, Quantity: 1},
				{TicketTypeID: "missing", Days: []string{"d1"}, Quantity: 2},
			},
		}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if out.UnresolvedLines != 1 {
		t.Fatalf("expected 1 unresolved line, got %d", out.UnresolvedLines)
	}
	if out.Total != 2100 {
		t.Fatalf("expected unresolved line to contribute zero, got %d", out.Total)
	}
	if out.Items[0].Lines[1].UnitPrice != nil {
		t.Fatalf("expected nil unit price for unresolved line")
	}
}

func TestQuoteStrictRejectsUnpriceable(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Quote(context.Background(), QuoteInput{
		Strict: true,
		Events: []pricing.Event{festival()},
		Items: []pricing.CartItem{{
			EventID:     "evt-1",
			BatchID:     "b1",
			TicketTypes: []pricing.CartItemTicketType{{TicketTypeID: "missing", Days: []string{"d1"}, Quantity: 1}},
		}},
	})
	if !errors.Is(err, ErrUnpriceable) {
		t.Fatalf("expected ErrUnpriceable, got %v", err)
	}

	_, err = svc.Quote(context.Background(), QuoteInput{
		Strict: true,
		Items:  []pricing.CartItem{{EventID: "nope", Price: 100, Quantity: 1}},
	})
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestQuoteRejectsEmptyCartAndBadCatalog(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Quote(context.Background(), QuoteInput{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	ev := festival()
	_, err := svc.Quote(context.Background(), QuoteInput{
		Events: []pricing.Event{ev, ev},
		Items:  []pricing.CartItem{{EventID: "evt-1", Price: 100, Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestQuoteResolvesOpenBatch(t *testing.T) {
	svc := newTestService(t)
	item := pricing.CartItem{
		EventID:     "evt-1",
		TicketTypes: []pricing.CartItemTicketType{{TicketTypeID: "gen", Days: []string{"d1"}, Quantity: 1}},
	}
	out, err := svc.Quote(context.Background(), QuoteInput{Events: []pricing.Event{festival()}, Items: []pricing.CartItem{item}})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if out.Total != 2100 {
		t.Fatalf("expected open batch price with fee, got %d", out.Total)
	}

	svc.Now = func() time.Time { return testNow.AddDate(-1, 0, 0) }
	out, err = svc.Quote(context.Background(), QuoteInput{Events: []pricing.Event{festival()}, Items: []pricing.CartItem{item}})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if out.Total != 0 || out.UnresolvedLines != 1 {
		t.Fatalf("expected no batch before the sale opens, got %+v", out)
	}
}

func TestQuotePartiallyPricedDays(t *testing.T) {
	svc := newTestService(t)
	ev := festival()
	ev.Dates[0].HasSpecificPrice = true
	ev.Dates[0].Price = cents(3000)
	ev.Batches[0].TicketTypes = []pricing.EventBatchTicketType{{TicketTypeID: "A"}}
	out, err := svc.Quote(context.Background(), QuoteInput{
		Events: []pricing.Event{ev},
		Items: []pricing.CartItem{{
			EventID:     "evt-1",
			BatchID:     "b1",
			TicketTypes: []pricing.CartItemTicketType{{TicketTypeID: "A", Days: []string{"d1", "d2"}, Quantity: 2}},
		}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if out.Total != (3000+100)*2 {
		t.Fatalf("expected priced day to be charged, got %d", out.Total)
	}
	line := out.Items[0].Lines[0]
	if line.UnitPrice == nil || *line.UnitPrice != 3000 || !line.Partial {
		t.Fatalf("unexpected line: %+v", line)
	}
	if out.UnresolvedLines != 1 {
		t.Fatalf("expected the partial line to be reported, got %d", out.UnresolvedLines)
	}
}

func TestQuoteRejectsOutOfRangePrices(t *testing.T) {
	svc := newTestService(t)
	ev := festival()
	ev.Dates[0].HasSpecificPrice = true
	ev.Dates[0].Price = cents(-5000)
	_, err := svc.Quote(context.Background(), QuoteInput{
		Events: []pricing.Event{ev},
		Items:  []pricing.CartItem{{EventID: "evt-1", Price: 100, Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidCatalog) || !errors.Is(err, pricing.ErrInvalidPrice) {
		t.Fatalf("expected invalid catalog price, got %v", err)
	}

	_, err = svc.Quote(context.Background(), QuoteInput{
		Items: []pricing.CartItem{{Price: 5_000_000_000_000_000_000, Quantity: 2}},
	})
	if !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}

	_, err = svc.Preview(context.Background(), PreviewInput{Event: ev, BatchID: "b1", Quantity: 1})
	if !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected preview to reject the catalog, got %v", err)
	}
}

func TestQuoteRecordsMetrics(t *testing.T) {
	svc := newTestService(t)
	reg := prometheus.NewRegistry()
	svc.Metrics = obs.NewQuoteMetrics("test", reg)

	_, err := svc.Quote(context.Background(), QuoteInput{
		Items: []pricing.CartItem{{Price: 1000, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if got := testutil.ToFloat64(svc.Metrics.QuotesTotal.WithLabelValues("simple", "priced")); got != 1 {
		t.Fatalf("expected one priced item, got %v", got)
	}
}

func TestQuoteUsesRequestedCurrency(t *testing.T) {
	svc := newTestService(t)
	out, err := svc.Quote(context.Background(), QuoteInput{
		Currency: "usd",
		Items:    []pricing.CartItem{{Price: 1000, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if out.Currency != "USD" {
		t.Fatalf("expected USD, got %s", out.Currency)
	}
}

func TestPreviewModes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   PreviewInput
		want int64
	}{
		{
			name: "current defaults to batch price",
			in:   PreviewInput{Event: festival(), BatchID: "b1", Quantity: 2, IsClientTaxed: true},
			want: (1500 + 100) * 2,
		},
		{
			name: "batch ticket types",
			in: PreviewInput{
				Mode:          ModeBatchTypes,
				Event:         festival(),
				BatchID:       "b1",
				TicketTypes:   map[string]int{"vip": 1, "gen": 2},
				IsClientTaxed: true,
			},
			want: (5000 + 350) + (2000+100)*2,
		},
		{
			name: "days and types",
			in: PreviewInput{
				Mode:        ModeDaysAndTypes,
				Event:       festival(),
				BatchID:     "b1",
				Days:        []string{"d1", "d2"},
				TicketTypes: map[string]int{"gen": 1},
			},
			want: 4000 + 100,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := svc.Preview(ctx, tc.in)
			if err != nil {
				t.Fatalf("preview: %v", err)
			}
			if out.Total != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, out.Total)
			}
			ev := tc.in.Event
			if got := svc.Engine.ItemTotal(pricing.NewItem(out.Item), &ev); got != out.Total {
				t.Fatalf("cart item total %d disagrees with preview %d", got, out.Total)
			}
		})
	}
}

func TestPreviewRejectsUnknownMode(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Preview(context.Background(), PreviewInput{Mode: "bogus", Event: festival()})
	if !errors.Is(err, ErrInvalidPreviewMode) {
		t.Fatalf("expected ErrInvalidPreviewMode, got %v", err)
	}
}

func TestFee(t *testing.T) {
	svc := newTestService(t)
	got := svc.Fee(5000, true)
	if got.Fee != 350 || got.Total != 5350 {
		t.Fatalf("unexpected fee quote: %+v", got)
	}
	if got := svc.Fee(0, true); got.Fee != 0 || got.Total != 0 {
		t.Fatalf("expected free zero price, got %+v", got)
	}
}
