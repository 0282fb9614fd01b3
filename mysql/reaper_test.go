package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestNewReaperDefaults(t *testing.T) {
	reaper, err := NewReaper(&sql.DB{}, ReaperConfig{MaxAttempts: 10})
	if err != nil {
		t.Fatalf("expected reaper, got %v", err)
	}
	if reaper.cfg.CheckEvery != defaultReapEvery {
		t.Fatalf("expected default check interval")
	}
	if reaper.cfg.Limit != defaultReapLimit {
		t.Fatalf("expected default limit")
	}
	if reaper.cfg.LockName != defaultReapLockPrefix+"pending_orders" {
		t.Fatalf("unexpected lock name %q", reaper.cfg.LockName)
	}
}

func TestNewReaperValidation(t *testing.T) {
	db := &sql.DB{}
	if _, err := NewReaper(nil, ReaperConfig{MaxAttempts: 10}); !errors.Is(err, ErrDBRequired) {
		t.Fatalf("expected ErrDBRequired, got %v", err)
	}
	if _, err := NewReaper(db, ReaperConfig{}); !errors.Is(err, ErrReapPolicyRequired) {
		t.Fatalf("expected ErrReapPolicyRequired, got %v", err)
	}
	if _, err := NewReaper(db, ReaperConfig{MaxAge: -time.Hour}); !errors.Is(err, ErrReapAgeInvalid) {
		t.Fatalf("expected ErrReapAgeInvalid, got %v", err)
	}
	if _, err := NewReaper(db, ReaperConfig{MaxAttempts: 10, Limit: -1}); !errors.Is(err, ErrReapLimitInvalid) {
		t.Fatalf("expected ErrReapLimitInvalid, got %v", err)
	}
}

func TestReapValidation(t *testing.T) {
	store, err := NewStore(&sql.DB{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Reap(context.Background(), ReapOptions{}); !errors.Is(err, ErrReapPolicyRequired) {
		t.Fatalf("expected ErrReapPolicyRequired, got %v", err)
	}
	if _, err := store.Reap(context.Background(), ReapOptions{MaxAttempts: 5, Limit: -1}); !errors.Is(err, ErrReapLimitInvalid) {
		t.Fatalf("expected ErrReapLimitInvalid, got %v", err)
	}
}
