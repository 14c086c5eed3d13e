package checkout

import "github.com/noah-isme/ticket-checkout/internal/pricing"

type quoteRequest struct {
	Currency string            `json:"currency" validate:"omitempty,len=3,alpha"`
	Strict   bool              `json:"strict"`
	Items    []cartItemPayload `json:"items" validate:"required,min=1,max=100,dive"`
	Events   []pricing.Event   `json:"events" validate:"max=50"`
}

type cartItemPayload struct {
	EventID       string              `json:"eventId" validate:"max=128"`
	EventName     string              `json:"eventName" validate:"max=256"`
	BatchID       string              `json:"batchId" validate:"max=128"`
	Price         int64               `json:"price" validate:"gte=0,lte=100000000"`
	Quantity      int                 `json:"quantity" validate:"gte=0,lte=1000"`
	IsClientTaxed bool                `json:"isClientTaxed"`
	TicketTypes   []ticketTypePayload `json:"ticketTypes" validate:"max=200,dive"`
}

type ticketTypePayload struct {
	TicketTypeID string   `json:"ticketTypeId" validate:"max=128"`
	Price        *int64   `json:"price" validate:"omitempty,gte=0,lte=100000000"`
	Quantity     int      `json:"quantity" validate:"gte=0,lte=1000"`
	Days         []string `json:"days" validate:"max=366,dive,required,max=128"`
}

func (p cartItemPayload) toCartItem() pricing.CartItem {
	item := pricing.CartItem{
		EventID:       p.EventID,
		EventName:     p.EventName,
		BatchID:       p.BatchID,
		Price:         p.Price,
		Quantity:      p.Quantity,
		IsClientTaxed: p.IsClientTaxed,
	}
	if len(p.TicketTypes) > 0 {
		item.TicketTypes = make([]pricing.CartItemTicketType, 0, len(p.TicketTypes))
		for _, tt := range p.TicketTypes {
			item.TicketTypes = append(item.TicketTypes, pricing.CartItemTicketType{
				TicketTypeID: tt.TicketTypeID,
				Price:        tt.Price,
				Quantity:     tt.Quantity,
				Days:         tt.Days,
			})
		}
	}
	return item
}

func (r quoteRequest) toInput() QuoteInput {
	in := QuoteInput{Currency: r.Currency, Strict: r.Strict, Events: r.Events}
	in.Items = make([]pricing.CartItem, 0, len(r.Items))
	for _, it := range r.Items {
		in.Items = append(in.Items, it.toCartItem())
	}
	return in
}

type previewRequest struct {
	Mode          string         `json:"mode" validate:"omitempty,oneof=current days_and_types batch_types days"`
	Event         pricing.Event  `json:"event"`
	BatchID       string         `json:"batchId" validate:"max=128"`
	Days          []string       `json:"days" validate:"max=366,dive,required,max=128"`
	TicketTypes   map[string]int `json:"ticketTypes" validate:"max=200,dive,keys,required,max=128,endkeys,gte=0,lte=1000"`
	Quantity      int            `json:"quantity" validate:"gte=0,lte=1000"`
	IsClientTaxed bool           `json:"isClientTaxed"`
}

func (r previewRequest) toInput() PreviewInput {
	return PreviewInput{
		Mode:          r.Mode,
		Event:         r.Event,
		BatchID:       r.BatchID,
		Days:          r.Days,
		TicketTypes:   r.TicketTypes,
		Quantity:      r.Quantity,
		IsClientTaxed: r.IsClientTaxed,
	}
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}
