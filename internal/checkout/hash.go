package checkout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mkristof/go-storefront/internal/cart"
)

// stateHash fingerprints cart content for the idempotency window. Lines are
// sorted by product so the hash is independent of insertion order; item ids
// are excluded on purpose — two carts with the same products, quantities
// and snapshots are the same submission.
func stateHash(c cart.Cart) string {
	lines := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, it.ProductID+":"+strconv.Itoa(it.Qty)+":"+strconv.Itoa(it.PriceCents))
	}
	sort.Strings(lines)
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(lines, ";")))
}
