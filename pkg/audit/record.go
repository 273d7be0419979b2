package audit

import "time"

// Record is a single append-only entry in the audit ledger: one row per
// dispatched command.
type Record struct {
	ID           uint64    `gorm:"column:id;primaryKey"`
	ConnectionID string    `gorm:"column:connection_id"`
	Peer         string    `gorm:"column:peer"`
	Command      string    `gorm:"column:command"`
	Status       int       `gorm:"column:status"`
	Filename     string    `gorm:"column:filename"`
	Offset       uint64    `gorm:"column:offset"`
	Size         uint64    `gorm:"column:size"`
	DurationMs   int64     `gorm:"column:duration_ms"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName pins the GORM table name to the one created by the migrations,
// bypassing GORM's pluralization guess.
func (Record) TableName() string {
	return "audit_records"
}
