package models

// Report is the aggregated dashboard payload. It is recomputed on every
// stats request and never persisted.
type Report struct {
	Dates             []string                            `json:"dates"`
	Sections          map[string][]int                    `json:"sections"`
	RosterTotals      map[string]int                      `json:"rosterTotals"`
	StudentsBySection map[string][]StudentSummary         `json:"studentsBySection"`
	Details           map[string]map[string]DetailRosters `json:"details"`
	Orphans           int                                 `json:"orphans"`
}

// StudentSummary is one roster row ranked by absences on the dashboard.
type StudentSummary struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Absences int    `json:"absences"`
}

// DetailRosters partitions one section's roster for one date.
type DetailRosters struct {
	Present []PresentEntry `json:"present"`
	Absent  []AbsentEntry  `json:"absent"`
}

// PresentEntry identifies a student who attended.
type PresentEntry struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// AbsentEntry identifies a student who missed the date; the email is carried
// so staff can follow up from the dashboard.
type AbsentEntry struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
