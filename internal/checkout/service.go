package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/ticket-checkout/internal/obs"
	"github.com/noah-isme/ticket-checkout/internal/pricing"
)

var (
	// ErrEmptyCart is returned when a quote is requested for no items.
	ErrEmptyCart = errors.New("cart has no items")
	// ErrInvalidCatalog is returned when the supplied event snapshots cannot be indexed.
	ErrInvalidCatalog = errors.New("invalid event catalog")
	// ErrUnknownEvent is returned in strict mode when an item references an event that
	// was not supplied.
	ErrUnknownEvent = errors.New("event not found in catalog")
	// ErrUnpriceable is returned in strict mode when a sub-line could not be priced.
	ErrUnpriceable = errors.New("cart contains lines that could not be priced")
	// ErrInvalidPreviewMode is returned for an unsupported preview calculator.
	ErrInvalidPreviewMode = errors.New("unsupported preview mode")
	// ErrInvalidItem is returned when a cart item carries an out of range price or quantity.
	ErrInvalidItem = errors.New("invalid cart item")
)

// Preview modes select which live-total calculator answers a preview request.
const (
	ModeCurrent      = "current"
	ModeDaysAndTypes = "days_and_types"
	ModeBatchTypes   = "batch_types"
	ModeDays         = "days"
)

// Service prices carts and purchase selections.
type Service struct {
	Engine   *pricing.Engine
	Currency string
	Logger   zerolog.Logger
	Metrics  *obs.QuoteMetrics
	Tracer   trace.Tracer
	NewID    func() string
	// Now picks the open batch for items and selections that reference none.
	Now func() time.Time
}

// QuoteInput is a cart plus the catalog snapshots its items reference.
type QuoteInput struct {
	Currency string
	// Strict rejects quotes that reference unknown events or contain unpriceable lines
	// instead of counting them as zero.
	Strict bool
	Items  []pricing.CartItem
	Events []pricing.Event
}

// Quote is the priced cart.
type Quote struct {
	ID              string      `json:"quoteId"`
	Currency        string      `json:"currency"`
	Subtotal        int64       `json:"subtotal"`
	Fees            int64       `json:"fees"`
	Total           int64       `json:"total"`
	UnresolvedLines int         `json:"unresolvedLines"`
	Items           []QuoteItem `json:"items"`
}

// QuoteItem is the priced result of one cart item.
type QuoteItem struct {
	EventID    string      `json:"eventId"`
	Shape      string      `json:"shape"`
	Subtotal   int64       `json:"subtotal"`
	Fees       int64       `json:"fees"`
	Total      int64       `json:"total"`
	Unresolved int         `json:"unresolved"`
	Lines      []QuoteLine `json:"lines"`
}

// QuoteLine is one priced sub-line. UnitPrice is nil when the line could not be priced.
type QuoteLine struct {
	Key          string `json:"key,omitempty"`
	TicketTypeID string `json:"ticketTypeId,omitempty"`
	DayID        string `json:"dayId,omitempty"`
	Kind         string `json:"kind"`
	UnitPrice    *int64 `json:"unitPrice"`
	Fee          int64  `json:"fee"`
	Quantity     int    `json:"quantity"`
	Subtotal     int64  `json:"subtotal"`
	Fees         int64  `json:"fees"`
	Total        int64  `json:"total"`
	Fallback     bool   `json:"fallback,omitempty"`
	// Partial is set when some of the line's days could not be priced and contributed zero.
	Partial bool `json:"partial,omitempty"`
}

// PreviewInput describes a purchase being configured.
type PreviewInput struct {
	Mode          string
	Event         pricing.Event
	BatchID       string
	Days          []string
	TicketTypes   map[string]int
	Quantity      int
	IsClientTaxed bool
}

// Preview is the live total for a selection and the cart item it would become.
type Preview struct {
	Mode  string           `json:"mode"`
	Total int64            `json:"total"`
	Item  pricing.CartItem `json:"item"`
}

// FeeQuote is the fee charged on one unit.
type FeeQuote struct {
	Price       int64 `json:"price"`
	Fee         int64 `json:"fee"`
	Total       int64 `json:"total"`
	ClientTaxed bool  `json:"isClientTaxed"`
}

// Quote prices every item of the cart.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if s == nil || s.Engine == nil {
		return Quote{}, errors.New("checkout service not configured")
	}
	ctx, span := s.tracer().Start(ctx, "checkout.quote")
	defer span.End()

	if len(in.Items) == 0 {
		return Quote{}, ErrEmptyCart
	}
	catalog, err := indexEvents(in.Events)
	if err != nil {
		return Quote{}, err
	}
	now := s.now()
	items := make([]pricing.Item, 0, len(in.Items))
	for i, ci := range in.Items {
		if err := ci.Validate(); err != nil {
			return Quote{}, fmt.Errorf("%w: item %d: %w", ErrInvalidItem, i, err)
		}
		ev, ok := catalog.Event(ci.EventID)
		if in.Strict && !ok {
			return Quote{}, fmt.Errorf("%w: item %d references %q", ErrUnknownEvent, i, ci.EventID)
		}
		ci.BatchID = batchID(ci.BatchID, ev, now)
		items = append(items, pricing.NewItem(ci))
	}

	summary := s.Engine.Summarize(items, catalog)
	if in.Strict && summary.UnresolvedLines > 0 {
		return Quote{}, fmt.Errorf("%w: %d unresolved", ErrUnpriceable, summary.UnresolvedLines)
	}

	quote := Quote{
		ID:              s.newID(),
		Currency:        s.currency(in.Currency),
		Subtotal:        summary.Subtotal,
		Fees:            summary.Fees,
		Total:           summary.Total,
		UnresolvedLines: summary.UnresolvedLines,
		Items:           make([]QuoteItem, 0, len(summary.Items)),
	}
	for _, is := range summary.Items {
		s.Metrics.ObserveItem(is.Shape.String(), is.Unresolved)
		quote.Items = append(quote.Items, toQuoteItem(is))
	}
	s.Metrics.ObserveTotal(quote.Total)

	span.SetAttributes(
		attribute.String("quote.id", quote.ID),
		attribute.Int("quote.items", len(quote.Items)),
		attribute.Int64("quote.total", quote.Total),
		attribute.Int("quote.unresolved_lines", quote.UnresolvedLines),
	)
	logger := s.logger(ctx)
	evt := logger.Debug()
	if quote.UnresolvedLines > 0 {
		evt = logger.Warn()
	}
	evt.Str("quote_id", quote.ID).
		Int("items", len(quote.Items)).
		Int64("total", quote.Total).
		Int("unresolved_lines", quote.UnresolvedLines).
		Msg("checkout quote")
	return quote, nil
}

// Preview computes the live total for a selection using the calculator picked by Mode.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (Preview, error) {
	if s == nil || s.Engine == nil {
		return Preview{}, errors.New("checkout service not configured")
	}
	_, span := s.tracer().Start(ctx, "checkout.preview")
	defer span.End()

	event := in.Event
	if err := event.ValidatePrices(); err != nil {
		return Preview{}, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	sel := pricing.Selection{
		Event:       &event,
		BatchID:     batchID(in.BatchID, &event, s.now()),
		Days:        in.Days,
		TicketTypes: in.TicketTypes,
		Quantity:    in.Quantity,
		ClientTaxed: in.IsClientTaxed,
	}
	mode := strings.TrimSpace(in.Mode)
	if mode == "" {
		mode = ModeCurrent
	}
	var total int64
	switch mode {
	case ModeCurrent:
		total = s.Engine.CurrentPrice(sel)
	case ModeDaysAndTypes:
		total = s.Engine.TotalForSelectedDaysAndTypes(sel)
	case ModeBatchTypes:
		total = s.Engine.TotalForBatchTicketTypes(sel)
	case ModeDays:
		total = s.Engine.TotalForMultipleDaysWithoutTicketTypes(sel)
	default:
		return Preview{}, fmt.Errorf("%w: %q", ErrInvalidPreviewMode, in.Mode)
	}
	span.SetAttributes(attribute.String("preview.mode", mode), attribute.Int64("preview.total", total))
	return Preview{Mode: mode, Total: total, Item: s.Engine.CartItem(sel)}, nil
}

// Fee returns the fee for a single unit.
func (s *Service) Fee(price int64, clientTaxed bool) FeeQuote {
	f := s.Engine.Fee(price, clientTaxed)
	if price < 0 {
		price = 0
	}
	return FeeQuote{Price: price, Fee: f, Total: price + f, ClientTaxed: clientTaxed}
}

func indexEvents(events []pricing.Event) (pricing.Events, error) {
	seen := make(map[string]struct{}, len(events))
	for i, ev := range events {
		id := strings.TrimSpace(ev.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: event %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate event %q", ErrInvalidCatalog, id)
		}
		seen[id] = struct{}{}
		if err := ev.ValidatePrices(); err != nil {
			return nil, fmt.Errorf("%w: event %q: %w", ErrInvalidCatalog, id, err)
		}
	}
	return pricing.NewEvents(events), nil
}

// batchID keeps an explicit batch reference and otherwise selects the batch open at now.
func batchID(requested string, ev *pricing.Event, now time.Time) string {
	if requested != "" {
		return requested
	}
	if b, ok := ev.ActiveBatch(now); ok {
		return b.ID
	}
	return ""
}

func toQuoteItem(is pricing.ItemSummary) QuoteItem {
	item := QuoteItem{
		EventID:    is.EventID,
		Shape:      is.Shape.String(),
		Subtotal:   is.Subtotal,
		Fees:       is.Fees,
		Total:      is.Total,
		Unresolved: is.Unresolved,
		Lines:      make([]QuoteLine, 0, len(is.Lines)),
	}
	for _, l := range is.Lines {
		line := QuoteLine{
			TicketTypeID: l.Key.TicketTypeID,
			DayID:        l.Key.DayID,
			Kind:         l.Kind.String(),
			Fee:          l.Fee,
			Quantity:     l.Quantity,
			Subtotal:     l.Subtotal,
			Fees:         l.Fees,
			Total:        l.Total,
			Fallback:     l.Fallback,
		}
		if !l.Fallback {
			line.Key = l.Key.String("_")
		}
		if l.UnitPrice.Resolved {
			unit := l.UnitPrice.Cents
			line.UnitPrice = &unit
			line.Partial = l.UnitPrice.Partial
		}
		item.Lines = append(item.Lines, line)
	}
	return item
}

// logger prefers the request-scoped logger installed by the HTTP middleware.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}

func (s *Service) tracer() trace.Tracer {
	if s.Tracer != nil {
		return s.Tracer
	}
	return otel.Tracer("checkout")
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) currency(requested string) string {
	if c := strings.ToUpper(strings.TrimSpace(requested)); c != "" {
		return c
	}
	return s.Currency
}
