package repository

import "testing"

func TestDBDialectNameDefaultsToSQLite(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db should default to sqlite, got %s", got)
	}
}

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres like operator want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite like operator want LIKE got %s", got)
	}
}

func TestLockTimeoutStatementByDialect(t *testing.T) {
	if got := lockTimeoutStatementByDialect("postgres", 1500); got != "SET LOCAL lock_timeout = '1500ms'" {
		t.Fatalf("unexpected postgres statement: %s", got)
	}
	if got := lockTimeoutStatementByDialect("sqlite", 1500); got != "" {
		t.Fatalf("sqlite should not set lock timeout, got %s", got)
	}
	if got := lockTimeoutStatementByDialect("postgres", 0); got != "" {
		t.Fatalf("zero timeout should be skipped, got %s", got)
	}
}
