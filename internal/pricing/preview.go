package pricing

import (
	"slices"
	"sort"
)

// Selection is a purchase being configured: the days and ticket type quantities picked
// so far. It backs live total previews.
type Selection struct {
	Event       *Event
	BatchID     string
	Days        []string
	TicketTypes map[string]int
	Quantity    int
	ClientTaxed bool
}

func (s Selection) hasTicketTypes() bool {
	for _, qty := range s.TicketTypes {
		if qty > 0 {
			return true
		}
	}
	return false
}

// selectedTypes returns ticket type ids with a positive quantity in stable order.
func (s Selection) selectedTypes() []string {
	ids := make([]string, 0, len(s.TicketTypes))
	// Go 1.21 toolchain: stands in for slices.Sorted(maps.Keys(s.TicketTypes)).
	keys := make([]string, 0, len(s.TicketTypes))
	for id := range s.TicketTypes {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	for _, id := range keys {
		if s.TicketTypes[id] > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (e *Engine) selectionBatch(s Selection) *EventBatch {
	return batchFor(Item{CartItem: CartItem{BatchID: s.BatchID}}, s.Event)
}

// TotalForSelectedDaysAndTypes prices every selected ticket type across all selected
// days. The fee applies once to the summed day price.
func (e *Engine) TotalForSelectedDaysAndTypes(s Selection) Money {
	if s.Event == nil || len(s.Days) == 0 {
		return 0
	}
	batch := e.selectionBatch(s)
	var total Money
	for _, id := range s.selectedTypes() {
		unit := PriceForDays(s.Days, id, s.Event, batch)
		total += e.price(LineKey{}, LineDayWithType, unit, s.TicketTypes[id], s.ClientTaxed).Total
	}
	return total
}

// TotalForBatchTicketTypes prices the selected ticket types at their batch prices.
func (e *Engine) TotalForBatchTicketTypes(s Selection) Money {
	batch := e.selectionBatch(s)
	var total Money
	for _, id := range s.selectedTypes() {
		unit := batch.TicketTypePrice(id)
		total += e.price(LineKey{}, LineTypeWithPrice, unit, s.TicketTypes[id], s.ClientTaxed).Total
	}
	return total
}

// TotalForMultipleDaysWithoutTicketTypes prices Quantity tickets for each selected day
// at the day's specific price. Days without one contribute nothing.
func (e *Engine) TotalForMultipleDaysWithoutTicketTypes(s Selection) Money {
	var total Money
	for _, day := range s.Days {
		unit := Unresolved
		if date, ok := s.Event.Date(day); ok {
			unit = date.SpecificPrice()
		}
		total += e.price(LineKey{}, LineDayOnly, unit, s.Quantity, s.ClientTaxed).Total
	}
	return total
}

// CurrentPrice dispatches to the calculator matching what has been selected. With
// nothing selected it prices Quantity tickets at the batch price.
func (e *Engine) CurrentPrice(s Selection) Money {
	switch {
	case len(s.Days) > 0 && s.hasTicketTypes():
		return e.TotalForSelectedDaysAndTypes(s)
	case s.hasTicketTypes():
		return e.TotalForBatchTicketTypes(s)
	case len(s.Days) > 0:
		return e.TotalForMultipleDaysWithoutTicketTypes(s)
	default:
		unit := BatchPrice(s.Event, e.selectionBatch(s))
		return e.price(LineKey{}, LineTypeWithPrice, Resolved(unit), s.Quantity, s.ClientTaxed).Total
	}
}

// CartItem builds the cart item equivalent to the selection, so that pricing it with
// ItemTotal yields CurrentPrice.
func (e *Engine) CartItem(s Selection) CartItem {
	ci := CartItem{BatchID: s.BatchID, Quantity: s.Quantity, IsClientTaxed: s.ClientTaxed}
	if s.Event != nil {
		ci.EventID = s.Event.ID
		ci.EventName = s.Event.Name
	}
	switch {
	case len(s.Days) > 0 && s.hasTicketTypes():
		for _, id := range s.selectedTypes() {
			ci.TicketTypes = append(ci.TicketTypes, CartItemTicketType{
				TicketTypeID: id,
				Quantity:     s.TicketTypes[id],
				Days:         slices.Clone(s.Days),
			})
		}
	case s.hasTicketTypes():
		batch := e.selectionBatch(s)
		for _, id := range s.selectedTypes() {
			line := CartItemTicketType{TicketTypeID: id, Quantity: s.TicketTypes[id]}
			if p := batch.TicketTypePrice(id); p.Resolved {
				price := p.Cents
				line.Price = &price
			}
			ci.TicketTypes = append(ci.TicketTypes, line)
		}
	case len(s.Days) > 0:
		for _, day := range s.Days {
			ci.TicketTypes = append(ci.TicketTypes, CartItemTicketType{Quantity: s.Quantity, Days: []string{day}})
		}
	default:
		ci.Price = BatchPrice(s.Event, e.selectionBatch(s))
	}
	return ci
}
