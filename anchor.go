package prooflog

import (
	"context"
	"errors"
	"fmt"
)

// ErrAnchorConflict is returned when a conditional anchor write is
// rejected: a record already exists for the run under a different
// counter, or under the same counter with a different root. Callers
// must not retry with a fresh counter automatically: a conflict can be
// the first visible sign of an attempted rollback.
var ErrAnchorConflict = errors.New("anchor conflict")

// AnchorStore binds Merkle roots to an externally issued monotonic
// counter. For any single run the counter sequence is strictly
// increasing and gapless from 1; remote variants guarantee this under
// concurrent callers via the backing service's atomic primitives.
type AnchorStore interface {
	// NextCounter issues the next counter value for the run.
	NextCounter(ctx context.Context, runID string) (int64, error)

	// AnchorRoot records merkleRoot under (runID, counter). Remote
	// variants accept the write only as a first write or as an
	// idempotent retry of the same (counter, root) pair, and reject
	// anything else with ErrAnchorConflict.
	AnchorRoot(ctx context.Context, runID string, counter int64, merkleRoot string, meta map[string]string) error
}

// OpenAnchorStore selects an anchor backend from configuration. The
// variant is fixed at process start; there is no runtime switching.
func OpenAnchorStore(ctx context.Context, cfg *Config) (AnchorStore, error) {
	switch cfg.AnchorBackend {
	case BackendLocal:
		return OpenLocalAnchorStore(cfg.AnchorPath)
	case BackendDynamo:
		return OpenDynamoAnchorStore(ctx, cfg.AnchorTable, cfg.AWSRegion)
	case BackendRedis:
		return OpenRedisAnchorStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case BackendHTTP:
		return OpenHTTPAnchorStore(cfg.GatewayURL, cfg.GatewayToken), nil
	default:
		return nil, fmt.Errorf("unknown anchor backend %q", cfg.AnchorBackend)
	}
}
