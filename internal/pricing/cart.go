package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidQuantity is returned for a negative quantity.
var ErrInvalidQuantity = errors.New("quantity must not be negative")

// CartItem is one purchase line as built by the caller.
type CartItem struct {
	EventID       string               `json:"eventId"`
	EventName     string               `json:"eventName,omitempty"`
	BatchID       string               `json:"batchId,omitempty"`
	Price         Money                `json:"price"`
	Quantity      int                  `json:"quantity"`
	IsClientTaxed bool                 `json:"isClientTaxed"`
	TicketTypes   []CartItemTicketType `json:"ticketTypes,omitempty"`
}

// CartItemTicketType is a sub-line of a cart item.
type CartItemTicketType struct {
	TicketTypeID string   `json:"ticketTypeId,omitempty"`
	Price        *Money   `json:"price,omitempty"`
	Quantity     int      `json:"quantity"`
	Days         []string `json:"days,omitempty"`
}

// Validate rejects prices outside 0..MaxPrice and negative quantities.
func (c CartItem) Validate() error {
	if err := checkPrice("price", c.Price); err != nil {
		return err
	}
	if c.Quantity < 0 {
		return fmt.Errorf("%w: quantity is %d", ErrInvalidQuantity, c.Quantity)
	}
	for i, tt := range c.TicketTypes {
		if err := checkOptionalPrice(fmt.Sprintf("ticketTypes[%d].price", i), tt.Price); err != nil {
			return err
		}
		if tt.Quantity < 0 {
			return fmt.Errorf("%w: ticketTypes[%d].quantity is %d", ErrInvalidQuantity, i, tt.Quantity)
		}
	}
	return nil
}

// LineKind classifies a sub-line by which pricing dimensions it carries.
type LineKind int

const (
	// LineTypeWithPrice has no days; its own price applies.
	LineTypeWithPrice LineKind = iota
	// LineDayOnly has days but no ticket type; the event date prices it.
	LineDayOnly
	// LineDayWithType has days and a ticket type; each (day, type) pair is resolved.
	LineDayWithType
)

func (k LineKind) String() string {
	switch k {
	case LineDayOnly:
		return "day_only"
	case LineDayWithType:
		return "day_with_type"
	default:
		return "type_with_price"
	}
}

// ItemShape is the pricing path selected for a whole cart item.
type ItemShape int

const (
	// ShapeSimple items have no sub-lines.
	ShapeSimple ItemShape = iota
	// ShapeMultiDayWithTypes items have at least one sub-line with days and a ticket type.
	ShapeMultiDayWithTypes
	// ShapeDayBasedWithoutTypes items have day sub-lines without ticket types.
	ShapeDayBasedWithoutTypes
	// ShapeDaysWithTypes items mix day sub-lines and priced sub-lines.
	ShapeDaysWithTypes
	// ShapeTypesWithPrice items only carry explicitly priced sub-lines.
	ShapeTypesWithPrice
)

func (s ItemShape) String() string {
	switch s {
	case ShapeMultiDayWithTypes:
		return "multi_day_with_types"
	case ShapeDayBasedWithoutTypes:
		return "day_based_without_types"
	case ShapeDaysWithTypes:
		return "days_with_types"
	case ShapeTypesWithPrice:
		return "types_with_price"
	default:
		return "simple"
	}
}

// Line is a classified sub-line.
type Line struct {
	Kind         LineKind
	TicketTypeID string
	Days         []string
	Price        *Money
	Quantity     int
}

// FirstDay returns the first day the line applies to, or "".
func (l Line) FirstDay() string {
	if len(l.Days) == 0 {
		return ""
	}
	return l.Days[0]
}

// Key returns the identifier addressing this line within its item.
func (l Line) Key() LineKey {
	switch l.Kind {
	case LineDayOnly:
		return LineKey{DayID: l.FirstDay()}
	case LineDayWithType:
		return LineKey{TicketTypeID: l.TicketTypeID, DayID: l.FirstDay()}
	default:
		return LineKey{TicketTypeID: l.TicketTypeID}
	}
}

// Item is a cart item whose sub-lines have been classified once.
type Item struct {
	CartItem
	Shape ItemShape
	Lines []Line
}

// ClassifyLine derives the kind of a sub-line from the fields it carries.
func ClassifyLine(tt CartItemTicketType) LineKind {
	switch {
	case len(tt.Days) > 0 && tt.TicketTypeID == "":
		return LineDayOnly
	case len(tt.Days) > 0:
		return LineDayWithType
	default:
		return LineTypeWithPrice
	}
}

// NewItem classifies every sub-line and selects the item's pricing path.
func NewItem(ci CartItem) Item {
	item := Item{CartItem: ci}
	if len(ci.TicketTypes) == 0 {
		item.Shape = ShapeSimple
		return item
	}
	var hasDays, hasDayWithType, hasDayOnly bool
	item.Lines = make([]Line, 0, len(ci.TicketTypes))
	for _, tt := range ci.TicketTypes {
		kind := ClassifyLine(tt)
		switch kind {
		case LineDayOnly:
			hasDays, hasDayOnly = true, true
		case LineDayWithType:
			hasDays, hasDayWithType = true, true
		}
		item.Lines = append(item.Lines, Line{
			Kind:         kind,
			TicketTypeID: tt.TicketTypeID,
			Days:         tt.Days,
			Price:        tt.Price,
			Quantity:     tt.Quantity,
		})
	}
	switch {
	case hasDays && hasDayWithType:
		item.Shape = ShapeMultiDayWithTypes
	case hasDays && hasDayOnly:
		item.Shape = ShapeDayBasedWithoutTypes
	case hasDays:
		item.Shape = ShapeDaysWithTypes
	default:
		item.Shape = ShapeTypesWithPrice
	}
	return item
}

// TotalQuantity sums the sub-line quantities.
func (it Item) TotalQuantity() int {
	total := 0
	for _, l := range it.Lines {
		total += l.Quantity
	}
	return total
}
