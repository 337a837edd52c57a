package xid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	a := New("item")
	b := New("item")

	if !strings.HasPrefix(a, "item-") {
		t.Fatalf("expected item- prefix, got %s", a)
	}
	if a == b {
		t.Fatalf("expected unique ids, got %s twice", a)
	}
}
