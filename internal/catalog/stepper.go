package catalog

// Unbounded disables the upper bound of a QuantityStepper.
const Unbounded = -1

// QuantityStepper is the bounded quantity control of a cart line.
type QuantityStepper struct {
	Quantity int `json:"quantity"`
	Min      int `json:"min"`
	Max      int `json:"max"`
}

// NewQuantityStepper builds a stepper; min below 1 becomes 1 and a quantity
// under min is raised to min. A negative max means no upper bound.
func NewQuantityStepper(quantity, min, max int) *QuantityStepper {
	if min < 1 {
		min = 1
	}
	if quantity < min {
		quantity = min
	}
	if max < 0 {
		max = Unbounded
	}
	return &QuantityStepper{Quantity: quantity, Min: min, Max: max}
}

func (s *QuantityStepper) CanIncrement() bool {
	return s.Max == Unbounded || s.Quantity < s.Max
}

func (s *QuantityStepper) CanDecrement() bool {
	return s.Quantity > s.Min
}

// Increment adds one unless the upper bound is reached.
func (s *QuantityStepper) Increment() bool {
	if !s.CanIncrement() {
		return false
	}
	s.Quantity++
	return true
}

// Decrement removes one unless the lower bound is reached.
func (s *QuantityStepper) Decrement() bool {
	if !s.CanDecrement() {
		return false
	}
	s.Quantity--
	return true
}

// StepCeiling is the increment ceiling for an enriched cart line.
func StepCeiling(item EnrichedCartItem) int {
	if item.UnlimitedStock {
		return Unbounded
	}
	return item.MaxStock
}
