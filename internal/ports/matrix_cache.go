package ports

import (
	"context"

	"gas-route-service/internal/domain"
)

// Shared memo of provider results keyed by rounded coordinate pairs.
//
// Entries are append-only within the cache's lifetime and expire after a
// fixed TTL; implementations must support concurrent readers with
// serialized writes. Cache errors are reported so callers can log and
// continue; a cache problem never fails a planning run.
type MatrixCache interface {
	Get(ctx context.Context, origin, destination domain.Coordinates) (LegEstimate, bool, error)
	Put(ctx context.Context, origin, destination domain.Coordinates, leg LegEstimate) error
}
