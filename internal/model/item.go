package model

import "fmt"

// Price is a fixed-point currency amount in minor units (e.g. cents).
// Amounts are never converted to floats.
type Price struct {
	MinorUnits int64
	Decimals   int
	Code       string
}

// String renders the price as a decimal major-unit value, e.g. "4.99 EUR".
func (p Price) String() string {
	if p.Decimals <= 0 {
		return fmt.Sprintf("%d %s", p.MinorUnits, p.Code)
	}

	div := int64(1)
	for i := 0; i < p.Decimals; i++ {
		div *= 10
	}

	sign := ""
	units := p.MinorUnits
	if units < 0 {
		sign = "-"
		units = -units
	}

	return fmt.Sprintf("%s%d.%0*d %s", sign, units/div, p.Decimals, units%div, p.Code)
}

// Item is one surprise bag offer, rebuilt from the marketplace payload every
// poll cycle and discarded afterwards. Key is the stable identity used to
// correlate offers across polls: it is derived from the source's store and
// item identifiers, never from display names.
type Item struct {
	Key       string
	Store     string
	Name      string
	Price     Price
	Available int
	Address   string
	IsNew     bool
}
