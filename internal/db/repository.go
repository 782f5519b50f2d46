package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bhagyaj/Markr/internal/model"
)

// Repository is the durable store for merged test results, keyed by
// (student_number, test_id).
type Repository interface {
	// WithinTx runs fn against a transaction. Every write staged by fn
	// commits together, or none do.
	WithinTx(ctx context.Context, fn func(tx ResultTx) error) error
	ListByTest(ctx context.Context, testID string) ([]model.TestResult, error)
}

// ResultTx is the transaction-scoped view used by the merge resolver.
// Get locks the row for the rest of the transaction, serializing
// concurrent imports that touch the same key. FOR UPDATE cannot lock a
// row that does not exist yet, so Upsert itself only overwrites when
// the incoming scan time is strictly later: two imports racing on a
// brand-new key both read nil, and whichever commits second must not
// clobber a later scan with an earlier one.
type ResultTx interface {
	Get(ctx context.Context, studentNumber, testID string) (*model.TestResult, error)
	// Upsert inserts the record, or overwrites an existing row only
	// when the record's scan time is strictly later. A losing write is
	// a no-op, never an error.
	Upsert(ctx context.Context, rec model.TestResult) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithinTx(ctx context.Context, fn func(tx ResultTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&resultTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) ListByTest(ctx context.Context, testID string) ([]model.TestResult, error) {
	query := `SELECT first_name, last_name, student_number, test_id, scanned_on, available_marks, obtained_marks
			  FROM test_results WHERE test_id = $1 ORDER BY student_number`

	rows, err := r.db.QueryContext(ctx, query, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var rec model.TestResult
		err := rows.Scan(&rec.FirstName, &rec.LastName, &rec.StudentNumber,
			&rec.TestID, &rec.ScannedOn, &rec.AvailableMarks, &rec.ObtainedMarks)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

type resultTx struct {
	tx *sql.Tx
}

func (t *resultTx) Get(ctx context.Context, studentNumber, testID string) (*model.TestResult, error) {
	query := `SELECT first_name, last_name, student_number, test_id, scanned_on, available_marks, obtained_marks
			  FROM test_results WHERE student_number = $1 AND test_id = $2 FOR UPDATE`

	var rec model.TestResult
	err := t.tx.QueryRowContext(ctx, query, studentNumber, testID).Scan(
		&rec.FirstName, &rec.LastName, &rec.StudentNumber,
		&rec.TestID, &rec.ScannedOn, &rec.AvailableMarks, &rec.ObtainedMarks,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (t *resultTx) Upsert(ctx context.Context, rec model.TestResult) error {
	query := `INSERT INTO test_results (first_name, last_name, student_number, test_id, scanned_on, available_marks, obtained_marks)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (student_number, test_id) DO UPDATE SET
				  first_name = EXCLUDED.first_name,
				  last_name = EXCLUDED.last_name,
				  scanned_on = EXCLUDED.scanned_on,
				  available_marks = EXCLUDED.available_marks,
				  obtained_marks = EXCLUDED.obtained_marks
			  WHERE test_results.scanned_on < EXCLUDED.scanned_on`

	_, err := t.tx.ExecContext(ctx, query, rec.FirstName, rec.LastName,
		rec.StudentNumber, rec.TestID, rec.ScannedOn, rec.AvailableMarks, rec.ObtainedMarks)
	return err
}
