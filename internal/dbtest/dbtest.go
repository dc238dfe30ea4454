// Package dbtest opens migrated in-memory SQLite catalogs for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PKayu/cannabis-compare-sub000/db/migrations"
	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
)

// Logger discards everything.
func Logger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// New returns a fresh, migrated catalog database that is closed when the test ends.
func New(t testing.TB) database.DB {
	t.Helper()

	logger := Logger()
	db, err := database.Open(context.Background(), database.Config{Driver: database.DriverSQLite}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrationService(logger, &database.MigrationConfig{Source: migrations.FS})
	require.NoError(t, migrator.Migrate(db))

	return db
}

// AssertStatus asserts that err is an HTTP error carrying code.
func AssertStatus(t testing.TB, err error, code int) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, code, httperror.GetStatusCode(err), "expected %d, got: %d", code, httperror.GetStatusCode(err))
}
