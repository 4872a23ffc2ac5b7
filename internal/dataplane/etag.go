package dataplane

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/store"
)

// nextETag draws the next value of name's monotonic sequence and hashes
// it into an opaque token, per spec §9's REDESIGN FLAG: "implement as a
// hash of a monotonically increasing write sequence per-row, not a
// timestamp, to avoid clock skew". Hashing (rather than returning the
// counter verbatim) keeps the token opaque to callers, matching spec
// §3's "opaque version token" definition of ETag — there's no ecosystem
// library for hashing a single int64 into a fixed-width token, so this
// uses the standard library's sha256 directly.
func nextETag(ctx context.Context, tx *store.Tx, name string) (string, error) {
	counter, err := tx.NextSequence(ctx, name)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", name, counter)))
	return hex.EncodeToString(sum[:8]), nil
}

func twinSequenceName(twinID string) string {
	return "twin:" + twinID
}

func relationshipSequenceName(sourceID, relationshipID string) string {
	return "rel:" + sourceID + "/" + relationshipID
}
