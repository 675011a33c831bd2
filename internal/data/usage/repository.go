package usage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"seopro/app/internal/domain/content"
)

// Repository persists generation runs using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed usage ledger.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ content.UsageRepository = (*Repository)(nil)

// Record appends a run to the ledger.
func (r *Repository) Record(ctx context.Context, record content.UsageRecord) error {
	kind := strings.TrimSpace(string(record.Kind))
	if kind == "" {
		return eris.New("usage record kind is required")
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := &RunRecord{
		ID:             uuid.NewString(),
		Fingerprint:    record.Fingerprint,
		Kind:           kind,
		Provider:       record.Provider,
		Model:          record.Model,
		Cached:         record.Cached,
		Degraded:       record.Degraded,
		CandidateCount: record.CandidateCount,
		AverageScore:   record.AverageScore,
		Cost:           record.Cost,
		DurationMillis: record.Duration.Milliseconds(),
		CreatedAt:      createdAt,
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.logError(logrus.Fields{"kind": kind, "fingerprint": record.Fingerprint}, err, "recording generation run")
		return eris.Wrapf(err, "recording %s generation run", kind)
	}

	return nil
}

type summaryRow struct {
	Runs         int64
	CachedRuns   int64
	DegradedRuns int64
	TotalCost    float64
	AverageScore float64
}

// Summary aggregates every recorded run.
func (r *Repository) Summary(ctx context.Context) (content.UsageSummary, error) {
	var row summaryRow

	err := r.db.WithContext(ctx).
		Model(&RunRecord{}).
		Select(`COUNT(*) AS runs,
			COALESCE(SUM(CASE WHEN cached THEN 1 ELSE 0 END), 0) AS cached_runs,
			COALESCE(SUM(CASE WHEN degraded THEN 1 ELSE 0 END), 0) AS degraded_runs,
			COALESCE(SUM(cost), 0) AS total_cost,
			COALESCE(AVG(average_score), 0) AS average_score`).
		Scan(&row).Error
	if err != nil {
		r.logError(nil, err, "summarizing generation runs")
		return content.UsageSummary{}, eris.Wrap(err, "summarizing generation runs")
	}

	return content.UsageSummary{
		Runs:         row.Runs,
		CachedRuns:   row.CachedRuns,
		DegradedRuns: row.DegradedRuns,
		TotalCost:    row.TotalCost,
		AverageScore: row.AverageScore,
	}, nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
