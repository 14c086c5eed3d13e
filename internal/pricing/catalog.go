package pricing

import (
	"errors"
	"fmt"
	"time"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// MaxPrice bounds every unit price the engine accepts. With bounded quantities and day
// counts, totals stay far below the int64 range.
const MaxPrice Money = 100_000_000

// ErrInvalidPrice is returned for a negative price or one above MaxPrice.
var ErrInvalidPrice = errors.New("price out of range")

func checkPrice(field string, cents Money) error {
	if cents < 0 || cents > MaxPrice {
		return fmt.Errorf("%w: %s is %d", ErrInvalidPrice, field, cents)
	}
	return nil
}

func checkOptionalPrice(field string, cents *Money) error {
	if cents == nil {
		return nil
	}
	return checkPrice(field, *cents)
}

// Event is a read-only catalog snapshot supplied by the caller.
type Event struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Price       *Money       `json:"price,omitempty"`
	Dates       []EventDate  `json:"eventDates,omitempty"`
	TicketTypes []TicketType `json:"ticketTypes,omitempty"`
	Batches     []EventBatch `json:"eventBatches,omitempty"`
}

// TicketType is a named admission category.
type TicketType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventDate is one concrete occurrence of an event. Date-level prices only apply when
// HasSpecificPrice is set.
type EventDate struct {
	ID               string                     `json:"id"`
	Date             time.Time                  `json:"date"`
	StartTime        *string                    `json:"startTime,omitempty"`
	EndTime          *string                    `json:"endTime,omitempty"`
	HasSpecificPrice bool                       `json:"hasSpecificPrice"`
	Price            *Money                     `json:"price,omitempty"`
	TicketTypePrices []EventDateTicketTypePrice `json:"eventDateTicketTypePrices,omitempty"`
}

// EventDateTicketTypePrice overrides a ticket type's price on a single date.
type EventDateTicketTypePrice struct {
	TicketTypeID string `json:"ticketTypeId"`
	Price        Money  `json:"price"`
}

// EventBatch is a time-boxed pricing tier.
type EventBatch struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Price       *Money                 `json:"price,omitempty"`
	StartDate   time.Time              `json:"startDate"`
	EndDate     *time.Time             `json:"endDate,omitempty"`
	IsActive    bool                   `json:"isActive"`
	TicketTypes []EventBatchTicketType `json:"eventBatchTicketTypes,omitempty"`
}

// EventBatchTicketType scopes a ticket type's price within a batch. A nil price means the
// type is not sold in the batch.
type EventBatchTicketType struct {
	TicketTypeID string `json:"ticketTypeId"`
	Price        *Money `json:"price,omitempty"`
}

// ValidatePrices rejects a snapshot with any price outside 0..MaxPrice.
func (e *Event) ValidatePrices() error {
	if e == nil {
		return nil
	}
	if err := checkOptionalPrice("price", e.Price); err != nil {
		return err
	}
	for i, d := range e.Dates {
		if err := checkOptionalPrice(fmt.Sprintf("eventDates[%d].price", i), d.Price); err != nil {
			return err
		}
		for j, tp := range d.TicketTypePrices {
			if err := checkPrice(fmt.Sprintf("eventDates[%d].eventDateTicketTypePrices[%d].price", i, j), tp.Price); err != nil {
				return err
			}
		}
	}
	for i, b := range e.Batches {
		if err := checkOptionalPrice(fmt.Sprintf("eventBatches[%d].price", i), b.Price); err != nil {
			return err
		}
		for j, tt := range b.TicketTypes {
			if err := checkOptionalPrice(fmt.Sprintf("eventBatches[%d].eventBatchTicketTypes[%d].price", i, j), tt.Price); err != nil {
				return err
			}
		}
	}
	return nil
}

// Date returns the event date with the given id.
func (e *Event) Date(id string) (*EventDate, bool) {
	if e == nil || id == "" {
		return nil, false
	}
	for i := range e.Dates {
		if e.Dates[i].ID == id {
			return &e.Dates[i], true
		}
	}
	return nil, false
}

// Batch returns the batch with the given id.
func (e *Event) Batch(id string) (*EventBatch, bool) {
	if e == nil || id == "" {
		return nil, false
	}
	for i := range e.Batches {
		if e.Batches[i].ID == id {
			return &e.Batches[i], true
		}
	}
	return nil, false
}

// ActiveBatch returns the active batch whose window contains now. When several qualify
// the one that started first wins.
func (e *Event) ActiveBatch(now time.Time) (*EventBatch, bool) {
	if e == nil {
		return nil, false
	}
	var found *EventBatch
	for i := range e.Batches {
		b := &e.Batches[i]
		if !b.OpenAt(now) {
			continue
		}
		if found == nil || b.StartDate.Before(found.StartDate) {
			found = b
		}
	}
	return found, found != nil
}

// OpenAt reports whether the batch is active and now falls inside its window.
func (b *EventBatch) OpenAt(now time.Time) bool {
	if b == nil || !b.IsActive {
		return false
	}
	if now.Before(b.StartDate) {
		return false
	}
	if b.EndDate != nil && now.After(*b.EndDate) {
		return false
	}
	return true
}

// HasTicketTypePrices reports whether the batch prices ticket types individually.
func (b *EventBatch) HasTicketTypePrices() bool {
	return b != nil && len(b.TicketTypes) > 0
}

// TicketTypePrice looks up the batch price for a ticket type.
func (b *EventBatch) TicketTypePrice(ticketTypeID string) Price {
	if b == nil {
		return Unresolved
	}
	for _, tt := range b.TicketTypes {
		if tt.TicketTypeID != ticketTypeID {
			continue
		}
		if tt.Price == nil {
			return Unresolved
		}
		return Resolved(*tt.Price)
	}
	return Unresolved
}

// SpecificPrice returns the flat date price when the date overrides pricing.
func (d *EventDate) SpecificPrice() Price {
	if d == nil || !d.HasSpecificPrice || d.Price == nil {
		return Unresolved
	}
	return Resolved(*d.Price)
}

// TicketTypePrice returns the date override for a ticket type when the date overrides pricing.
func (d *EventDate) TicketTypePrice(ticketTypeID string) Price {
	if d == nil || !d.HasSpecificPrice || ticketTypeID == "" {
		return Unresolved
	}
	for _, p := range d.TicketTypePrices {
		if p.TicketTypeID == ticketTypeID {
			return Resolved(p.Price)
		}
	}
	return Unresolved
}
