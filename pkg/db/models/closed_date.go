package models

import "time"

// ClosedDate marks one calendar day as closed. Presence of a row means the
// date is locked; reopen deletes the row.
type ClosedDate struct {
	Date     string    `gorm:"column:date;type:text;primaryKey" json:"date"`
	ClosedAt time.Time `gorm:"column:closed_at;not null" json:"closedAt"`
	ClosedBy string    `gorm:"column:closed_by;type:text;not null" json:"closedBy"`
}
