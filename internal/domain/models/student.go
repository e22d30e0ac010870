package models

// Student is one enrolled student as provisioned by the roster importer.
// Rows are immutable during normal operation; UID is unique.
type Student struct {
	UID     string `bson:"uid" json:"uid"`
	Name    string `bson:"name" json:"name"`
	Section string `bson:"section" json:"section"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
}
