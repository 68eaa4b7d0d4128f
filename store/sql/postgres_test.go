package sqlstore

import "testing"

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	if _, err := OpenPostgres("   "); err == nil {
		t.Fatalf("expected error for blank dsn")
	}
}

func TestNewPostgresRepositoryFactory_RequiresDSN(t *testing.T) {
	if _, err := NewPostgresRepositoryFactory(""); err == nil {
		t.Fatalf("expected error for blank dsn")
	}
}
