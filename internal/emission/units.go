package emission

// ToAtomic converts a display-unit amount to atomic units, rounding half
// up. Amounts must be non-negative.
func (p Params) ToAtomic(coins float64) uint64 {
	return uint64(coins*p.UnitScale + 0.5)
}

// FromAtomic converts atomic units to the display unit.
func (p Params) FromAtomic(amount uint64) float64 {
	return float64(amount) / p.UnitScale
}
