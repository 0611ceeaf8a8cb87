package models

// Area is a work zone as served by the roster API. The default schedule is
// informational only: seeding never reads it.
type Area struct {
	ID                   uint    `json:"id"`
	Name                 string  `json:"name"`
	DefaultEntryTime     string  `json:"defaultEntryTime"`
	DefaultExitTime      string  `json:"defaultExitTime"`
	DefaultLunchDuration int     `json:"defaultLunchDuration"`
	DefaultWorkingHours  float64 `json:"defaultWorkingHours"`
}

// AreaRoster is one element of the roster response: an area and the
// employees currently assigned to it.
type AreaRoster struct {
	AreaID    uint       `json:"areaId"`
	AreaName  string     `json:"areaName"`
	Employees []Employee `json:"employees"`
}

// EmployeeCount returns the number of employees across all rosters, counting
// an employee listed under two areas twice.
func EmployeeCount(rosters []AreaRoster) int {
	n := 0
	for _, r := range rosters {
		n += len(r.Employees)
	}
	return n
}
