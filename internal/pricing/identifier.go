package pricing

// LineKey addresses a sub-line within a cart item. Day-only lines are keyed by their
// first day, day lines with a ticket type by both, and everything else by ticket type.
type LineKey struct {
	TicketTypeID string
	DayID        string
}

// KeyOf returns the key for a raw sub-line.
func KeyOf(tt CartItemTicketType) LineKey {
	return Line{Kind: ClassifyLine(tt), TicketTypeID: tt.TicketTypeID, Days: tt.Days}.Key()
}

// String renders the key in the legacy "<type><sep><day>" form used by clients that
// still key maps by string. sep is "-" or "_".
func (k LineKey) String(sep string) string {
	switch {
	case k.TicketTypeID == "":
		return k.DayID
	case k.DayID == "":
		return k.TicketTypeID
	default:
		return k.TicketTypeID + sep + k.DayID
	}
}

// FilterByKey returns the sub-lines that are not addressed by key.
func FilterByKey(lines []CartItemTicketType, key LineKey) []CartItemTicketType {
	out := make([]CartItemTicketType, 0, len(lines))
	for _, tt := range lines {
		if KeyOf(tt) == key {
			continue
		}
		out = append(out, tt)
	}
	return out
}

// UpdateQuantityByKey returns a copy of lines with the quantity of every sub-line
// addressed by key set to qty. A non-positive qty removes those sub-lines.
func UpdateQuantityByKey(lines []CartItemTicketType, key LineKey, qty int) []CartItemTicketType {
	if qty <= 0 {
		return FilterByKey(lines, key)
	}
	out := make([]CartItemTicketType, len(lines))
	copy(out, lines)
	for i := range out {
		if KeyOf(out[i]) == key {
			out[i].Quantity = qty
		}
	}
	return out
}

// Quantities maps sub-line keys to selected quantities.
type Quantities map[LineKey]int

// Set records qty for key, deleting the entry when qty is not positive.
func (q Quantities) Set(key LineKey, qty int) {
	if qty <= 0 {
		delete(q, key)
		return
	}
	q[key] = qty
}

// QuantitiesOf indexes the quantities of a cart item's sub-lines by key.
func QuantitiesOf(lines []CartItemTicketType) Quantities {
	q := make(Quantities, len(lines))
	for _, tt := range lines {
		q[KeyOf(tt)] += tt.Quantity
	}
	return q
}
