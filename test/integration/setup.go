package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS courses (
			id VARCHAR(50) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS vouchers (
			id UUID PRIMARY KEY,
			code VARCHAR(64) UNIQUE NOT NULL,
			kind VARCHAR(20) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at TIMESTAMPTZ,
			max_usage INTEGER NOT NULL CHECK (max_usage >= 1),
			used_count INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0 AND used_count <= max_usage),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS voucher_courses (
			voucher_id UUID NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
			course_id VARCHAR(50) NOT NULL REFERENCES courses(id),
			PRIMARY KEY (voucher_id, course_id)
		);

		CREATE TABLE IF NOT EXISTS enrollments (
			id UUID PRIMARY KEY,
			user_id VARCHAR(50) NOT NULL,
			course_id VARCHAR(50) NOT NULL REFERENCES courses(id),
			status VARCHAR(20) NOT NULL,
			progress_percentage REAL NOT NULL DEFAULT 0,
			enrolled_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, course_id)
		);

		CREATE TABLE IF NOT EXISTS redemptions (
			id UUID PRIMARY KEY,
			user_id VARCHAR(50) NOT NULL,
			voucher_id UUID NOT NULL REFERENCES vouchers(id),
			course_id VARCHAR(50) NOT NULL,
			amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
			redeemed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_voucher_courses_voucher_id ON voucher_courses(voucher_id);
		CREATE INDEX IF NOT EXISTS idx_enrollments_user_id ON enrollments(user_id);
		CREATE INDEX IF NOT EXISTS idx_redemptions_voucher_id ON redemptions(voucher_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedCourses inserts test course data into the database.
func SeedCourses(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	courses := []struct {
		id    string
		title string
	}{
		{"C001", "Introduction to Go"},
		{"C002", "Concurrent Programming"},
		{"C003", "Database Internals"},
		{"C004", "Distributed Systems"},
		{"C005", "API Design"},
	}

	for _, c := range courses {
		_, err := pool.Exec(ctx,
			"INSERT INTO courses (id, title, description) VALUES ($1, $2, $3)",
			c.id, c.title, fmt.Sprintf("Test course %s", c.id),
		)
		if err != nil {
			t.Fatalf("failed to seed course %s: %v", c.id, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"redemptions", "enrollments", "voucher_courses", "vouchers", "courses"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
