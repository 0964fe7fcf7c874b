package dbpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jsonbstore/docdb/internal/config"
)

func TestSanitizeTableName(t *testing.T) {
	assert.Equal(t, "users", SanitizeTableName("users"))
	assert.Equal(t, "my_orders", SanitizeTableName("my-orders"))
	assert.Equal(t, "users", SanitizeTableName("Users"))
	assert.Equal(t, "a_b_c", SanitizeTableName("a.b;c"))
}

func TestBuildConnectionString_Minimal(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "docdb"}
	dsn := buildConnectionString(cfg)
	assert.Equal(t, "host=localhost port=5432 dbname=docdb sslmode=disable", dsn)
}

func TestBuildConnectionString_WithCredentialsAndTimeout(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:           "db.internal",
		Port:           5433,
		Name:           "docdb",
		SSLMode:        "require",
		User:           "docdb",
		Password:       "secret",
		ConnectTimeout: 5 * time.Second,
	}
	dsn := buildConnectionString(cfg)
	assert.Equal(t, "host=db.internal port=5433 dbname=docdb sslmode=require user=docdb password=secret connect_timeout=5", dsn)
}
