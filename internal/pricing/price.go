package pricing

// Price is a unit price that may not be resolvable from the data at hand. Unresolved
// prices count as zero when totals are aggregated. A partial price is a sum in which some
// components resolved and others did not; Cents holds the resolved part.
type Price struct {
	Cents    Money
	Resolved bool
	Partial  bool
}

// Unresolved marks a price that could not be determined.
var Unresolved = Price{}

// Resolved wraps a known price.
func Resolved(cents Money) Price {
	return Price{Cents: cents, Resolved: true}
}

// OrZero collapses an unresolved price to zero.
func (p Price) OrZero() Money {
	if !p.Resolved {
		return 0
	}
	return p.Cents
}

// Complete reports whether every component of the price resolved.
func (p Price) Complete() bool {
	return p.Resolved && !p.Partial
}

// Add sums two prices. Unresolved operands contribute zero. The sum is resolved when
// either operand is and partial when any component is missing.
func (p Price) Add(other Price) Price {
	return Price{
		Cents:    p.OrZero() + other.OrZero(),
		Resolved: p.Resolved || other.Resolved,
		Partial:  p.Partial || other.Partial || p.Resolved != other.Resolved,
	}
}

// PriceOf converts an optional amount.
func PriceOf(cents *Money) Price {
	if cents == nil {
		return Unresolved
	}
	return Resolved(*cents)
}
