package statistics

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantpick/internal/database"
)

func setupTestDB(t *testing.T, name string) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)

	schema, err := database.Schema(name)
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

const samplePrices = `Date,A,B
2024-01-03,110,50
2024-01-02,100,50
2024-01-04,99,55
`
