package combat

import "math/bits"

// Allocate spreads totalCasualties strength points over the given units in
// proportion to each category's contribution (quantity * multiplier).
// Each category loses floor(total * contribution / totalStrength) units, capped at its quantity.
// The rounding remainder is dropped, so the losses may sum to less than totalCasualties.
func Allocate(units []UnitStrength, totalCasualties int64) map[string]int64 {
	losses := make(map[string]int64, len(units))
	if totalCasualties <= 0 {
		return losses
	}

	var totalStrength uint64
	for _, u := range units {
		if u.Quantity <= 0 || u.Multiplier <= 0 {
			continue
		}
		totalStrength += uint64(u.Quantity) * uint64(u.Multiplier)
	}
	if totalStrength == 0 {
		return losses
	}

	for _, u := range units {
		if u.Quantity <= 0 || u.Multiplier <= 0 {
			continue
		}
		contribution := uint64(u.Quantity) * uint64(u.Multiplier)

		// contribution <= totalStrength keeps the quotient within 64 bits.
		hi, lo := bits.Mul64(uint64(totalCasualties), contribution)
		lost, _ := bits.Div64(hi, lo, totalStrength)

		lost = min(lost, uint64(u.Quantity))
		if lost > 0 {
			losses[u.Category] += int64(lost)
		}
	}

	return losses
}
