package sqldb

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetup(t *testing.T) {
	cfg := (&Config{Port: "not-a-port", Username: "feed"}).Setup()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "feed", cfg.Username)
	assert.Equal(t, "host=localhost port=5432 user=feed dbname=pricefeed password=postgres sslmode=disable", cfg.String())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6432")
	cfg := NewConfigFromEnv().Setup()
	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, "6432", cfg.Port)
}

func TestNewSQLite(t *testing.T) {
	db, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, sqlx.QUESTION, sqlx.BindType(SQLite))

	var one int
	require.NoError(t, db.Get(&one, db.Rebind("SELECT ?"), 1))
	assert.Equal(t, 1, one)
}
