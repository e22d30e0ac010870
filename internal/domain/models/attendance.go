package models

import "time"

// AttendanceRecord is a single accepted submission. The (UID, Date) pair is
// unique across the collection; records are never updated or deleted outside
// of the test tooling.
type AttendanceRecord struct {
	UID       string    `bson:"uid" json:"uid"`
	Date      string    `bson:"date" json:"date"` // YYYY-MM-DD in the lab timezone
	Section   string    `bson:"section" json:"section"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
