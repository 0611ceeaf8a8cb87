package models

// Totals is the live aggregation over the records being edited.
type Totals struct {
	Breakfast           int     `json:"breakfast"`
	ReinforcedBreakfast int     `json:"reinforcedBreakfast"`
	Snack1              int     `json:"snack1"`
	AfternoonSnack      int     `json:"afternoonSnack"`
	DryMeal             int     `json:"dryMeal"`
	Lunch               int     `json:"lunch"`
	Transport           float64 `json:"transport"`
	VacationCount       int     `json:"vacationCount"`
	PermissionCount     int     `json:"permissionCount"`
	RecordCount         int     `json:"recordCount"`
	WorkedHours         float64 `json:"workedHours"`
}

// Add folds one record into the totals. Records whose times do not parse
// contribute nothing to WorkedHours.
func (t *Totals) Add(r *AttendanceRecord) {
	f := r.FoodAllowance
	t.Breakfast += f.Breakfast
	t.ReinforcedBreakfast += f.ReinforcedBreakfast
	t.Snack1 += f.Snack1
	t.AfternoonSnack += f.AfternoonSnack
	t.DryMeal += f.DryMeal
	t.Lunch += f.Lunch
	t.Transport += f.Transport
	if r.IsVacation {
		t.VacationCount++
	}
	if r.HasPermission() {
		t.PermissionCount++
	}
	if h, err := r.WorkedHours(); err == nil {
		t.WorkedHours += h
	}
	t.RecordCount++
}

// Counter returns the summed value of a food counter by field name.
func (t Totals) Counter(field string) int {
	switch field {
	case FoodBreakfast:
		return t.Breakfast
	case FoodReinforcedBreakfast:
		return t.ReinforcedBreakfast
	case FoodSnack1:
		return t.Snack1
	case FoodAfternoonSnack:
		return t.AfternoonSnack
	case FoodDryMeal:
		return t.DryMeal
	case FoodLunch:
		return t.Lunch
	}
	return 0
}
