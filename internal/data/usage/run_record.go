package usage

import "time"

// RunRecord is one generation run in the usage ledger. It holds run metadata only.
type RunRecord struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Fingerprint    string    `gorm:"size:80;index:idx_generation_runs_fingerprint;not null"`
	Kind           string    `gorm:"size:16;not null"`
	Provider       string    `gorm:"size:32;not null"`
	Model          string    `gorm:"size:128"`
	Cached         bool      `gorm:"not null;default:false"`
	Degraded       bool      `gorm:"not null;default:false"`
	CandidateCount int       `gorm:"not null"`
	AverageScore   float64   `gorm:"not null"`
	Cost           float64   `gorm:"not null"`
	DurationMillis int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"index:idx_generation_runs_created_at;not null"`
}

// TableName defines the table name for the RunRecord model.
func (RunRecord) TableName() string {
	return "generation_runs"
}
