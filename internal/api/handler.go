package api

import (
	"errors"
	"net/http"

	"github.com/bhagyaj/Markr/internal/archive"
	"github.com/bhagyaj/Markr/internal/config"
	"github.com/bhagyaj/Markr/internal/ingest"
	"github.com/bhagyaj/Markr/internal/logger"
	"github.com/bhagyaj/Markr/internal/metrics"
	"github.com/bhagyaj/Markr/internal/stats"
	markrerrors "github.com/bhagyaj/Markr/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	ingest   *ingest.Service
	stats    *stats.Service
	archiver *archive.Archiver
	cfg      *config.Config
	log      zerolog.Logger
}

// NewHandler wires the transport to the core services. archiver may be
// nil when batch archiving is not configured.
func NewHandler(
	ingestSvc *ingest.Service,
	statsSvc *stats.Service,
	archiver *archive.Archiver,
	cfg *config.Config,
) *Handler {
	return &Handler{
		ingest:   ingestSvc,
		stats:    statsSvc,
		archiver: archiver,
		cfg:      cfg,
		log:      logger.For("api"),
	}
}

// ImportResults handles POST /import: a whole batch is either merged
// and committed, or rejected with an itemized problem list.
func (h *Handler) ImportResults(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	contentKind := c.GetHeader("Content-Type")
	summary, err := h.ingest.Import(c.Request.Context(), contentKind, payload)
	if err != nil {
		h.writeImportError(c, contentKind, err)
		return
	}

	metrics.ImportsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	metrics.RecordsMergedTotal.Add(float64(summary.RecordsMerged))

	h.stats.Invalidate(c.Request.Context(), summary.TestIDs)
	if h.archiver != nil {
		h.archiver.Submit(summary.BatchID, contentKind, payload)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Results imported successfully",
		"batch_id":       summary.BatchID,
		"records_merged": summary.RecordsMerged,
	})
}

func (h *Handler) writeImportError(c *gin.Context, contentKind string, err error) {
	var validationErr *markrerrors.ValidationError
	var malformedErr *markrerrors.MalformedDocumentError
	var storeErr markrerrors.StoreError

	switch {
	case errors.Is(err, markrerrors.ErrUnsupportedContentKind):
		metrics.ImportsTotal.WithLabelValues(metrics.OutcomeUnsupported).Inc()
		c.String(http.StatusUnsupportedMediaType, "Unsupported Media Type")

	case errors.As(err, &malformedErr):
		metrics.ImportsTotal.WithLabelValues(metrics.OutcomeMalformed).Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":              "Incomplete record(s)",
			"incomplete_records": []gin.H{{"error": malformedErr.Problem}},
		})

	case errors.As(err, &validationErr):
		metrics.ImportsTotal.WithLabelValues(metrics.OutcomeValidationFailed).Inc()
		problems := make([]gin.H, 0, len(validationErr.Problems))
		for _, p := range validationErr.Problems {
			problems = append(problems, gin.H{"error": p})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":              "Incomplete record(s)",
			"incomplete_records": problems,
		})

	case errors.As(err, &storeErr):
		metrics.ImportsTotal.WithLabelValues(metrics.OutcomeStoreError).Inc()
		h.log.Error().Err(err).Msg("Batch import failed at commit")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})

	default:
		metrics.ImportsTotal.WithLabelValues(metrics.OutcomeStoreError).Inc()
		h.log.Error().Err(err).Msg("Batch import failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// AggregateResults handles GET /results/:test_id/aggregate.
func (h *Handler) AggregateResults(c *gin.Context) {
	testID := c.Param("test_id")

	statistics, err := h.stats.Aggregate(c.Request.Context(), testID)
	switch {
	case err == nil:
		metrics.AggregatesTotal.WithLabelValues(metrics.ResultOK).Inc()
		c.JSON(http.StatusOK, statistics)

	case errors.Is(err, markrerrors.ErrTestNotFound):
		metrics.AggregatesTotal.WithLabelValues(metrics.ResultNotFound).Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "No results found for test"})

	case errors.Is(err, markrerrors.ErrNoAvailableMarks):
		metrics.AggregatesTotal.WithLabelValues(metrics.ResultError).Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Stored records have no available marks"})

	default:
		metrics.AggregatesTotal.WithLabelValues(metrics.ResultError).Inc()
		h.log.Error().Err(err).Str("test_id", testID).Msg("Failed to aggregate results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// DownloadBatch handles GET /batches/:batch_id, replaying the raw
// payload of an archived batch.
func (h *Handler) DownloadBatch(c *gin.Context) {
	if h.archiver == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Batch archiving is not enabled"})
		return
	}

	batchID := c.Param("batch_id")
	rc, contentKind, err := h.archiver.Fetch(c.Request.Context(), batchID)
	switch {
	case err == nil:
		defer rc.Close()
		c.DataFromReader(http.StatusOK, -1, contentKind, rc, nil)

	case errors.Is(err, markrerrors.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No archived batch found"})

	default:
		h.log.Error().Err(err).Str("batch_id", batchID).Msg("Failed to fetch archived batch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}
