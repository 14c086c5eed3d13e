package pricing

// FeeCalculator computes the per-unit platform fee for a price.
type FeeCalculator interface {
	Calculate(priceCents Money, clientTaxed bool) Money
}

// Engine prices cart items against event snapshots. Results depend only on its
// arguments and the fee calculator; it holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	fees FeeCalculator
}

// NewEngine constructs an engine using the provided fee calculator.
func NewEngine(fees FeeCalculator) *Engine {
	return &Engine{fees: fees}
}

// LineTotal is the priced result of one sub-line.
type LineTotal struct {
	Key       LineKey
	Kind      LineKind
	UnitPrice Price
	Fee       Money
	Quantity  int
	Subtotal  Money
	Fees      Money
	Total     Money
	// Fallback is set when the line was priced from the item's flat price because no
	// event snapshot was available.
	Fallback bool
}

// Fee returns the fee for one unit priced at priceCents.
func (e *Engine) Fee(priceCents Money, clientTaxed bool) Money {
	if e.fees == nil {
		return 0
	}
	return e.fees.Calculate(priceCents, clientTaxed)
}

// ItemTotal returns unit prices plus fees multiplied by quantity, summed over the item.
// Missing data contributes zero rather than failing the computation.
func (e *Engine) ItemTotal(item Item, event *Event) Money {
	var total Money
	for _, l := range e.Breakdown(item, event) {
		total += l.Total
	}
	return total
}

// Breakdown prices every sub-line of the item along the path chosen by its shape.
func (e *Engine) Breakdown(item Item, event *Event) []LineTotal {
	switch item.Shape {
	case ShapeSimple:
		return []LineTotal{e.simple(item)}
	case ShapeMultiDayWithTypes:
		return e.multiDayWithTypes(item, event)
	case ShapeDayBasedWithoutTypes:
		return e.dayBasedWithoutTypes(item, event)
	case ShapeDaysWithTypes:
		return e.daysWithTypes(item, event)
	default:
		return e.typesWithPrice(item)
	}
}

// DaysWithTypesTotal prices a mix of day sub-lines and explicitly priced sub-lines,
// regardless of the shape the item was classified as.
func (e *Engine) DaysWithTypesTotal(item Item, event *Event) Money {
	var total Money
	for _, l := range e.daysWithTypes(item, event) {
		total += l.Total
	}
	return total
}

func (e *Engine) simple(item Item) LineTotal {
	return e.price(LineKey{}, LineTypeWithPrice, Resolved(item.Price), item.Quantity, item.IsClientTaxed)
}

func (e *Engine) multiDayWithTypes(item Item, event *Event) []LineTotal {
	if event == nil {
		return []LineTotal{e.fallback(item)}
	}
	batch := batchFor(item, event)
	out := make([]LineTotal, 0, len(item.Lines))
	for _, l := range item.Lines {
		price := Unresolved
		if l.Kind == LineDayWithType {
			price = PriceForDays(l.Days, l.TicketTypeID, event, batch)
		}
		out = append(out, e.price(l.Key(), l.Kind, price, l.Quantity, item.IsClientTaxed))
	}
	return out
}

func (e *Engine) dayBasedWithoutTypes(item Item, event *Event) []LineTotal {
	if event == nil {
		return []LineTotal{e.fallback(item)}
	}
	out := make([]LineTotal, 0, len(item.Lines))
	for _, l := range item.Lines {
		price := Unresolved
		if date, ok := event.Date(l.FirstDay()); ok {
			price = date.SpecificPrice()
		}
		out = append(out, e.price(l.Key(), l.Kind, price, l.Quantity, item.IsClientTaxed))
	}
	return out
}

func (e *Engine) daysWithTypes(item Item, event *Event) []LineTotal {
	batch := batchFor(item, event)
	out := make([]LineTotal, 0, len(item.Lines))
	for _, l := range item.Lines {
		var price Price
		switch {
		case len(l.Days) > 0:
			price = PriceForDays(l.Days, l.TicketTypeID, event, batch)
		default:
			price = PriceOf(l.Price)
		}
		out = append(out, e.price(l.Key(), l.Kind, price, l.Quantity, item.IsClientTaxed))
	}
	return out
}

func (e *Engine) typesWithPrice(item Item) []LineTotal {
	out := make([]LineTotal, 0, len(item.Lines))
	for _, l := range item.Lines {
		out = append(out, e.price(l.Key(), l.Kind, PriceOf(l.Price), l.Quantity, item.IsClientTaxed))
	}
	return out
}

// fallback spreads the item's flat price over its sub-line quantities. The per-unit
// price is rounded half up to whole cents before the fee is computed.
func (e *Engine) fallback(item Item) LineTotal {
	qty := item.TotalQuantity()
	line := LineTotal{
		Kind:     LineTypeWithPrice,
		Quantity: qty,
		Subtotal: item.Price,
		Fallback: true,
	}
	if qty > 0 {
		perUnit := (item.Price*2 + Money(qty)) / (2 * Money(qty))
		line.UnitPrice = Resolved(perUnit)
		line.Fee = e.Fee(perUnit, item.IsClientTaxed)
		line.Fees = line.Fee * Money(qty)
	}
	line.Total = line.Subtotal + line.Fees
	return line
}

func (e *Engine) price(key LineKey, kind LineKind, unit Price, qty int, taxed bool) LineTotal {
	line := LineTotal{Key: key, Kind: kind, UnitPrice: unit, Quantity: qty}
	if !unit.Resolved {
		return line
	}
	line.Fee = e.Fee(unit.Cents, taxed)
	line.Subtotal = unit.Cents * Money(qty)
	line.Fees = line.Fee * Money(qty)
	line.Total = line.Subtotal + line.Fees
	return line
}

// batchFor returns the batch referenced by the item. Items without a batch id have no
// batch; callers that want the open batch resolve it with Event.ActiveBatch first.
func batchFor(item Item, event *Event) *EventBatch {
	b, _ := event.Batch(item.BatchID)
	return b
}
