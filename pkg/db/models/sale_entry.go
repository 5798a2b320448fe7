package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleEntry is one recorded cash sale for a venue location on a given day.
// Entries are immutable once stored; the only mutation is deletion.
type SaleEntry struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Date      string          `gorm:"column:date;type:text;not null;index" json:"date"`
	Location  string          `gorm:"column:location;type:text;not null" json:"location"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric;not null" json:"amount"`
	Memo      string          `gorm:"column:memo;type:text" json:"memo,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// Year returns the calendar year of the entry's sale date, or 0 when the
// date is malformed.
func (s SaleEntry) Year() int {
	if len(s.Date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s.Date[:4])
	if err != nil {
		return 0
	}
	return year
}
