package migrations

import (
	"database/sql"
	"fmt"
)

const createTestResults = `
	CREATE TABLE IF NOT EXISTS test_results (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		student_number VARCHAR(20) NOT NULL,
		test_id VARCHAR(20) NOT NULL,
		scanned_on TIMESTAMPTZ NOT NULL,
		available_marks INTEGER NOT NULL,
		obtained_marks INTEGER NOT NULL,
		UNIQUE (student_number, test_id)
	)`

const createTestIDIndex = `
	CREATE INDEX IF NOT EXISTS idx_test_results_test_id ON test_results (test_id)`

// InitSchema creates the results table if needed and verifies it exists.
// The UNIQUE constraint on (student_number, test_id) is what the merge
// upsert relies on.
func InitSchema(db *sql.DB) error {
	for _, stmt := range []string{createTestResults, createTestIDIndex} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)`

	if err := db.QueryRow(query, "test_results").Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("required table test_results does not exist")
	}

	return nil
}
