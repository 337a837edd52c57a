package xid

import "github.com/google/uuid"

// New returns a prefixed opaque identifier, e.g. "item-8f14e45f-...".
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
