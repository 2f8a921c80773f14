package db

import (
	"testing"

	"crop-advisor/confs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN_URL(t *testing.T) {
	dsn, err := BuildDSN(confs.DBConfig{URL: "postgres://u:p@host/db"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@host/db?sslmode=require", dsn)

	dsn, err = BuildDSN(confs.DBConfig{URL: "postgres://u:p@host/db?connect_timeout=5"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@host/db?connect_timeout=5&sslmode=require", dsn)

	dsn, err = BuildDSN(confs.DBConfig{URL: "postgres://u:p@host/db?sslmode=disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@host/db?sslmode=disable", dsn)
}

func TestBuildDSN_Parameters(t *testing.T) {
	cfg := confs.DBConfig{Host: "localhost", Port: "5432", User: "crops", Password: "pw", Name: "advisor"}
	dsn, err := BuildDSN(cfg)
	require.NoError(t, err)
	assert.Equal(t, "host=localhost user=crops password=pw dbname=advisor port=5432 sslmode=disable TimeZone=UTC", dsn)

	cfg.Host = "db.internal"
	dsn, err = BuildDSN(cfg)
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=require")
}

func TestBuildDSN_Missing(t *testing.T) {
	_, err := BuildDSN(confs.DBConfig{Host: "localhost"})
	assert.Error(t, err)
}
