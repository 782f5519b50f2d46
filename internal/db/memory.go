package db

import (
	"context"
	"sync"

	"github.com/bhagyaj/Markr/internal/model"
)

// MemoryRepository is an in-memory Repository used by tests and local
// development. Writes inside WithinTx are staged and only become
// visible when fn returns nil, mirroring the Postgres transaction.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[memKey]model.TestResult

	// CommitErr, when set, makes every commit fail with that error.
	CommitErr error
}

type memKey struct {
	studentNumber string
	testID        string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[memKey]model.TestResult)}
}

func (r *MemoryRepository) WithinTx(ctx context.Context, fn func(tx ResultTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{repo: r, staged: make(map[memKey]model.TestResult)}
	if err := fn(tx); err != nil {
		return err
	}
	if r.CommitErr != nil {
		return r.CommitErr
	}

	for k, v := range tx.staged {
		r.records[k] = v
	}
	return nil
}

func (r *MemoryRepository) ListByTest(ctx context.Context, testID string) ([]model.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var results []model.TestResult
	for k, v := range r.records {
		if k.testID == testID {
			results = append(results, v)
		}
	}
	return results, nil
}

// Len reports the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Lookup returns the stored record for a key, outside any transaction.
func (r *MemoryRepository) Lookup(studentNumber, testID string) (model.TestResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[memKey{studentNumber: studentNumber, testID: testID}]
	return rec, ok
}

type memoryTx struct {
	repo   *MemoryRepository
	staged map[memKey]model.TestResult
}

func (t *memoryTx) Get(ctx context.Context, studentNumber, testID string) (*model.TestResult, error) {
	k := memKey{studentNumber: studentNumber, testID: testID}
	if rec, ok := t.staged[k]; ok {
		cp := rec
		return &cp, nil
	}
	if rec, ok := t.repo.records[k]; ok {
		cp := rec
		return &cp, nil
	}
	return nil, nil
}

// Upsert mirrors the Postgres guard: an existing row is only
// overwritten when the record's scan time is strictly later.
func (t *memoryTx) Upsert(ctx context.Context, rec model.TestResult) error {
	k := memKey{studentNumber: rec.StudentNumber, testID: rec.TestID}

	if cur, ok := t.staged[k]; ok {
		if rec.ScannedOn.After(cur.ScannedOn) {
			t.staged[k] = rec
		}
		return nil
	}
	if cur, ok := t.repo.records[k]; ok && !rec.ScannedOn.After(cur.ScannedOn) {
		return nil
	}

	t.staged[k] = rec
	return nil
}
