package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avollaro/formsmith/config"
	"github.com/avollaro/formsmith/database"
	"github.com/avollaro/formsmith/model"
)

// newTestDB opens a fresh in-memory database, migrated and seeded. The DSN
// is derived from the test name so parallel tests never share state; shared
// cache keeps the database alive across the pool's connections.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(config.Config{
		DBUrl:         "file:" + name + "?mode=memory&cache=shared",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin123",
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestForm(t *testing.T, forms *FormStore, form model.Form) *model.Form {
	t.Helper()
	require.NoError(t, forms.Create(context.Background(), &form))
	return &form
}
