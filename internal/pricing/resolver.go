package pricing

// PriceForDay resolves the unit price of a ticket type on one event date. The most
// specific override wins:
//  1. the date's per-ticket-type price, then its flat price, when the date has a specific price;
//  2. the batch price for the ticket type, when the batch prices ticket types;
//  3. otherwise the price is unresolved.
func PriceForDay(eventDateID, ticketTypeID string, event *Event, batch *EventBatch) Price {
	if date, ok := event.Date(eventDateID); ok && date.HasSpecificPrice {
		if p := date.TicketTypePrice(ticketTypeID); p.Resolved {
			return p
		}
		if p := date.SpecificPrice(); p.Resolved {
			return p
		}
	}
	if batch.HasTicketTypePrices() {
		return batch.TicketTypePrice(ticketTypeID)
	}
	return Unresolved
}

// PriceForDays sums PriceForDay over every day. Days without a price contribute zero;
// the sum is partial when some were missing and unresolved when all were.
func PriceForDays(days []string, ticketTypeID string, event *Event, batch *EventBatch) Price {
	sum := Unresolved
	for i, day := range days {
		p := PriceForDay(day, ticketTypeID, event, batch)
		if i == 0 {
			sum = p
			continue
		}
		sum = sum.Add(p)
	}
	return sum
}

// BatchPrice returns the flat price for an event and batch. The first date in catalog
// order with a specific flat price wins over the batch's own price. Without a batch the
// event's flat price applies. Ticket-type overrides are not considered.
func BatchPrice(event *Event, batch *EventBatch) Money {
	if event != nil {
		for i := range event.Dates {
			if p := event.Dates[i].SpecificPrice(); p.Resolved {
				return p.Cents
			}
		}
	}
	if batch != nil {
		return PriceOf(batch.Price).OrZero()
	}
	if event != nil {
		return PriceOf(event.Price).OrZero()
	}
	return 0
}
