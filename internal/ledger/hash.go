package ledger

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// ComputeHash chains an entry to its predecessor. The entry's own ID and Hash are not covered.
func ComputeHash(prevHash string, e Entry) string {
	payload := fmt.Sprintf("%s|%d|%s|%d|%d|%s|%d",
		prevHash,
		e.NationID,
		e.Kind,
		e.Amount,
		e.BalanceAfter,
		e.Description,
		e.CreatedAt.UnixMilli(),
	)
	sum := blake3.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
