package store

import (
	"context"
	"log"
	"os"
	"testing"
)

func testDatabaseURL() string {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		log.Panic("TEST_DATABASE_URL is required")
	}

	return url
}

// newTestStore returns a Store backed by TEST_DATABASE_URL, closed
// automatically when the test completes. Rows are never cleaned up. The
// tests insert rows with freshly generated uuids, but GetJob takes any
// eligible row of a task identifier, so the GetJob-based tests expect no
// leftover unlocked, due rows for their task identifiers (a freshly
// migrated database).
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(context.Background(), testDatabaseURL())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)

	return s
}
