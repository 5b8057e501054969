package remote

import (
	"fmt"

	"github.com/geobrowser/geogenesis-sub006/internal/graph"
	"github.com/geobrowser/geogenesis-sub006/internal/query"
)

// EncodeFilter translates a condition tree into the filter string the search
// endpoint accepts: canonical JSON with sorted keys and NFC-normalized
// strings. Canonical form matters because the server caches results by the
// literal filter string, so two structurally equal conditions must encode
// identically.
func EncodeFilter(cond *query.Condition) (string, error) {
	if cond == nil {
		return "{}", nil
	}
	data, err := graph.MarshalCanonical(cond)
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}
	return string(data), nil
}
