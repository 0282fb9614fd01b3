package mysql

import (
	"errors"
	"testing"
)

func TestTablesWithPrefix(t *testing.T) {
	plain, err := tablesWithPrefix("")
	if err != nil {
		t.Fatalf("empty prefix: %v", err)
	}
	if plain.products != "products" || plain.pending != "pending_orders" {
		t.Fatalf("unexpected unprefixed names: %+v", plain)
	}

	prefixed, err := tablesWithPrefix("pos_")
	if err != nil {
		t.Fatalf("prefix: %v", err)
	}
	if prefixed.cart != "pos_draft_cart" {
		t.Fatalf("expected pos_draft_cart, got %q", prefixed.cart)
	}
	if prefixed.version != "pos_schema_version" {
		t.Fatalf("expected pos_schema_version, got %q", prefixed.version)
	}
}

func TestValidatePrefix(t *testing.T) {
	valid := []string{"", "pos_", "POS1_", "appdb.pos_", "appdb."}
	for _, prefix := range valid {
		if err := validatePrefix(prefix); err != nil {
			t.Fatalf("expected valid prefix %q: %v", prefix, err)
		}
	}

	invalid := []string{"pos-", "pos;drop", "a..b", ".pos_", "pos _"}
	for _, prefix := range invalid {
		err := validatePrefix(prefix)
		if !errors.Is(err, ErrInvalidTablePrefix) {
			t.Fatalf("expected invalid prefix %q, got %v", prefix, err)
		}
	}
}
