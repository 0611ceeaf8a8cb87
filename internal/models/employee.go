package models

type Employee struct {
	ID       uint              `json:"id"`
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	AreaID   *uint             `json:"areaId,omitempty"`
	Defaults *EmployeeDefaults `json:"defaults,omitempty"`
}

// EmployeeDefaults holds optional per-employee overrides. They are carried
// through from the roster but not consulted when records are seeded.
type EmployeeDefaults struct {
	EntryTime       *string        `json:"entryTime,omitempty"`
	ExitTime        *string        `json:"exitTime,omitempty"`
	LunchDuration   *int           `json:"lunchDuration,omitempty"`
	IsVacation      *bool          `json:"isVacation,omitempty"`
	PermissionHours *float64       `json:"permissionHours,omitempty"`
	FoodAllowance   *FoodAllowance `json:"foodAllowance,omitempty"`
}
