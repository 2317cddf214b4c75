package orm

import (
	"time"
)

// RelayStatus represents the progress of the event relay.
type RelayStatus struct {
	ID        uint64 `gorm:"primary_key"`
	Published uint64
	LastID    uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName change default table name
func (c RelayStatus) TableName() string {
	return "relay_status"
}
