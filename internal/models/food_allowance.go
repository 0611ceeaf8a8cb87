package models

import "math"

// Food allowance field names, as used on the wire and as bulk keys.
const (
	FoodBreakfast           = "breakfast"
	FoodReinforcedBreakfast = "reinforcedBreakfast"
	FoodSnack1              = "snack1"
	FoodAfternoonSnack      = "afternoonSnack"
	FoodDryMeal             = "dryMeal"
	FoodLunch               = "lunch"
	FoodTransport           = "transport"
)

const (
	MaxFoodCounter = 10
	MaxTransport   = 50.0
	TransportStep  = 0.25
)

// FoodCounterFields lists the integer counters in display order.
var FoodCounterFields = []string{
	FoodBreakfast,
	FoodReinforcedBreakfast,
	FoodSnack1,
	FoodAfternoonSnack,
	FoodDryMeal,
	FoodLunch,
}

// FoodFields lists every food allowance field, transport last.
var FoodFields = []string{
	FoodBreakfast,
	FoodReinforcedBreakfast,
	FoodSnack1,
	FoodAfternoonSnack,
	FoodDryMeal,
	FoodLunch,
	FoodTransport,
}

type FoodAllowance struct {
	Breakfast           int     `json:"breakfast" validate:"min=0,max=10"`
	ReinforcedBreakfast int     `json:"reinforcedBreakfast" validate:"min=0,max=10"`
	Snack1              int     `json:"snack1" validate:"min=0,max=10"`
	AfternoonSnack      int     `json:"afternoonSnack" validate:"min=0,max=10"`
	DryMeal             int     `json:"dryMeal" validate:"min=0,max=10"`
	Lunch               int     `json:"lunch" validate:"min=0,max=10"`
	Transport           float64 `json:"transport" validate:"min=0,max=50"`
}

// IsFoodField reports whether name addresses a food allowance field.
func IsFoodField(name string) bool {
	for _, f := range FoodFields {
		if f == name {
			return true
		}
	}
	return false
}

// ClampCounter brings a counter value into [0, MaxFoodCounter], rounding to
// the nearest whole unit.
func ClampCounter(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= MaxFoodCounter {
		return MaxFoodCounter
	}
	return int(math.Round(v))
}

// ClampTransport brings a transport amount into [0, MaxTransport] on the
// TransportStep grid.
func ClampTransport(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= MaxTransport {
		return MaxTransport
	}
	return math.Round(v/TransportStep) * TransportStep
}

// Set stores a clamped value in the named field. It returns false for an
// unknown field name.
func (f *FoodAllowance) Set(field string, value float64) bool {
	switch field {
	case FoodBreakfast:
		f.Breakfast = ClampCounter(value)
	case FoodReinforcedBreakfast:
		f.ReinforcedBreakfast = ClampCounter(value)
	case FoodSnack1:
		f.Snack1 = ClampCounter(value)
	case FoodAfternoonSnack:
		f.AfternoonSnack = ClampCounter(value)
	case FoodDryMeal:
		f.DryMeal = ClampCounter(value)
	case FoodLunch:
		f.Lunch = ClampCounter(value)
	case FoodTransport:
		f.Transport = ClampTransport(value)
	default:
		return false
	}
	return true
}

// Get returns the value of the named field.
func (f FoodAllowance) Get(field string) (float64, bool) {
	switch field {
	case FoodBreakfast:
		return float64(f.Breakfast), true
	case FoodReinforcedBreakfast:
		return float64(f.ReinforcedBreakfast), true
	case FoodSnack1:
		return float64(f.Snack1), true
	case FoodAfternoonSnack:
		return float64(f.AfternoonSnack), true
	case FoodDryMeal:
		return float64(f.DryMeal), true
	case FoodLunch:
		return float64(f.Lunch), true
	case FoodTransport:
		return f.Transport, true
	}
	return 0, false
}

// Clamped returns a copy with every field brought into range.
func (f FoodAllowance) Clamped() FoodAllowance {
	out := f
	for _, name := range FoodFields {
		v, _ := f.Get(name)
		out.Set(name, v)
	}
	return out
}
