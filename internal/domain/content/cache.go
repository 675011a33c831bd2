package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultCacheTTL is how long a generation result stays servable.
const DefaultCacheTTL = 24 * time.Hour

// Cache memoizes generation results by request fingerprint.
// Get must report a miss for any entry older than the cache TTL.
type Cache interface {
	Get(ctx context.Context, key string) (*GenerationResult, bool, error)
	Put(ctx context.Context, key string, result GenerationResult) error
}

// Fingerprint derives the cache key for a normalized request. Every request field
// takes part in the key, serialized in declaration order.
func Fingerprint(req GenerationRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", eris.Wrap(err, "serializing generation request")
	}

	sum := sha256.Sum256(payload)
	return string(req.Kind) + "_" + hex.EncodeToString(sum[:]), nil
}

// UsageRepository persists run metadata for the usage ledger.
type UsageRepository interface {
	Record(ctx context.Context, record UsageRecord) error
	Summary(ctx context.Context) (UsageSummary, error)
}

// ErrUsageUnavailable is returned when no usage ledger is configured.
var ErrUsageUnavailable = eris.New("usage ledger is not configured")
