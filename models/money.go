package models

import "fmt"

// Cents represents a currency amount in integer minor units.
// Costs are never stored or computed as floating point.
type Cents int64

// Dollars returns the amount formatted as a decimal dollar string, e.g. "45.00".
func (c Cents) Dollars() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// String implements fmt.Stringer.
func (c Cents) String() string {
	return c.Dollars()
}
