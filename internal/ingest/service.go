package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bhagyaj/Markr/internal/db"
	"github.com/bhagyaj/Markr/internal/logger"
	"github.com/bhagyaj/Markr/internal/model"
	"github.com/bhagyaj/Markr/pkg/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	problemBadScannedOn = "Invalid or missing scanned-on timestamp"
	problemBadMarks     = "Invalid numeric available or obtained attributes in summary-marks"
)

// Service runs the ingest pipeline: parse, validate, merge, commit.
// It holds no state across imports; the repository is the only shared
// resource.
type Service struct {
	parsers   map[string]Parser
	validator *Validator
	repo      db.Repository
	log       zerolog.Logger
}

func NewService(repo db.Repository) *Service {
	return &Service{
		parsers:   newParsers(),
		validator: NewValidator(),
		repo:      repo,
		log:       logger.For("ingest"),
	}
}

// Import processes one batch payload. It returns a summary on success,
// or one of: ErrUnsupportedContentKind, a MalformedDocumentError, a
// ValidationError carrying the ordered problem list, or a StoreError
// when the commit failed and the batch was rolled back.
func (s *Service) Import(ctx context.Context, contentKind string, payload []byte) (*model.ImportSummary, error) {
	parser, ok := s.parsers[NormalizeContentKind(contentKind)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedContentKind, contentKind)
	}

	candidates, err := parser.Parse(ctx, payload)
	if err != nil {
		return nil, err
	}

	verdict := s.validator.Validate(candidates)
	if !verdict.OK {
		ve := &errors.ValidationError{}
		for _, p := range verdict.Problems {
			ve.Problems = append(ve.Problems, p.Message)
		}
		return nil, ve
	}

	records, problems := toResults(candidates)
	if len(problems) > 0 {
		return nil, &errors.ValidationError{Problems: problems}
	}

	batchID := uuid.NewString()
	log := s.log.With().Str("batch_id", batchID).Logger()

	var testIDs []string
	err = s.repo.WithinTx(ctx, func(tx db.ResultTx) error {
		// Candidates fold into a pending set in strict input order,
		// seeded lazily from the store, so duplicates within the batch
		// and pre-existing rows take the same merge path.
		pending := make(map[resultKey]model.TestResult)
		var order []resultKey

		for _, rec := range records {
			k := keyOf(rec)
			current, seen := pending[k]
			if !seen {
				stored, err := tx.Get(ctx, k.studentNumber, k.testID)
				if err != nil {
					return err
				}
				if stored != nil {
					current = *stored
					seen = true
				}
				order = append(order, k)
			}

			if seen {
				pending[k] = resolve(rec, &current)
			} else {
				pending[k] = resolve(rec, nil)
			}
		}

		for _, k := range order {
			if err := tx.Upsert(ctx, pending[k]); err != nil {
				return err
			}
		}

		seenTests := make(map[string]bool)
		for _, k := range order {
			if !seenTests[k.testID] {
				seenTests[k.testID] = true
				testIDs = append(testIDs, k.testID)
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Batch commit failed, rolled back")
		return nil, errors.NewStoreError(err)
	}

	log.Info().
		Int("records", len(records)).
		Strs("test_ids", testIDs).
		Msg("Batch imported")

	return &model.ImportSummary{
		BatchID:       batchID,
		RecordsMerged: len(records),
		TestIDs:       testIDs,
	}, nil
}

// toResults converts validated candidates into typed records. The
// validator has already guaranteed field presence; what remains is
// numeric and timestamp conversion.
func toResults(candidates []model.Candidate) ([]model.TestResult, []string) {
	var problems []string
	records := make([]model.TestResult, 0, len(candidates))

	for _, c := range candidates {
		scannedOn, err := time.Parse(time.RFC3339, strings.TrimSpace(c.ScannedOn))
		if err != nil {
			problems = append(problems, problemBadScannedOn)
			continue
		}

		available, errA := strconv.Atoi(strings.TrimSpace(c.SummaryMarks.Available))
		obtained, errO := strconv.Atoi(strings.TrimSpace(c.SummaryMarks.Obtained))
		if errA != nil || errO != nil || available < 0 || obtained < 0 {
			problems = append(problems, problemBadMarks)
			continue
		}

		records = append(records, model.TestResult{
			FirstName:      strings.TrimSpace(*c.FirstName),
			LastName:       strings.TrimSpace(*c.LastName),
			StudentNumber:  strings.TrimSpace(*c.StudentNumber),
			TestID:         strings.TrimSpace(*c.TestID),
			ScannedOn:      scannedOn,
			AvailableMarks: available,
			ObtainedMarks:  obtained,
		})
	}

	return records, problems
}
