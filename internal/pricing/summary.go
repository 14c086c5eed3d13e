package pricing

// Catalog looks up event snapshots by id.
type Catalog interface {
	Event(id string) (*Event, bool)
}

// Events is an in-memory Catalog.
type Events map[string]*Event

// NewEvents indexes events by id.
func NewEvents(events []Event) Events {
	out := make(Events, len(events))
	for i := range events {
		out[events[i].ID] = &events[i]
	}
	return out
}

// Event implements Catalog.
func (m Events) Event(id string) (*Event, bool) {
	ev, ok := m[id]
	return ev, ok && ev != nil
}

// ItemSummary aggregates the priced lines of one cart item.
type ItemSummary struct {
	EventID    string
	Shape      ItemShape
	Subtotal   Money
	Fees       Money
	Total      Money
	// Unresolved counts sub-lines with a quantity whose price was missing or only
	// partially resolved.
	Unresolved int
	Lines      []LineTotal
}

// Summary aggregates computed pricing components for a whole cart.
type Summary struct {
	Subtotal        Money
	Fees            Money
	Total           Money
	UnresolvedLines int
	Items           []ItemSummary
}

// Summarize prices each item against its event in the catalog. Items whose event is
// unknown are priced without a snapshot.
func (e *Engine) Summarize(items []Item, catalog Catalog) Summary {
	summary := Summary{Items: make([]ItemSummary, 0, len(items))}
	for _, it := range items {
		var event *Event
		if catalog != nil {
			event, _ = catalog.Event(it.EventID)
		}
		is := ItemSummary{EventID: it.EventID, Shape: it.Shape, Lines: e.Breakdown(it, event)}
		for _, l := range is.Lines {
			is.Subtotal += l.Subtotal
			is.Fees += l.Fees
			is.Total += l.Total
			if !l.UnitPrice.Complete() && l.Quantity > 0 {
				is.Unresolved++
			}
		}
		summary.Subtotal += is.Subtotal
		summary.Fees += is.Fees
		summary.Total += is.Total
		summary.UnresolvedLines += is.Unresolved
		summary.Items = append(summary.Items, is)
	}
	return summary
}
