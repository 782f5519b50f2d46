package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bhagyaj/Markr/internal/api"
	"github.com/bhagyaj/Markr/internal/archive"
	"github.com/bhagyaj/Markr/internal/config"
	"github.com/bhagyaj/Markr/internal/db"
	"github.com/bhagyaj/Markr/internal/ingest"
	"github.com/bhagyaj/Markr/internal/stats"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleBatch = `<?xml version="1.0" encoding="UTF-8" ?>
<mcq-test-results>
	<mcq-test-result scanned-on="2017-12-04T13:47:10+11:00">
		<first-name>Bob</first-name>
		<last-name>Bob</last-name>
		<student-number>2394</student-number>
		<test-id>9863</test-id>
		<summary-marks available="20" obtained="17" />
	</mcq-test-result>
</mcq-test-results>`

func newRouter(repo db.Repository) *gin.Engine {
	return newRouterWith(repo, nil)
}

func newRouterWith(repo db.Repository, archiver *archive.Archiver) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.App.Name = "markr-results"
	cfg.App.Version = "test"

	handler := api.NewHandler(ingest.NewService(repo), stats.NewService(repo, nil), archiver, cfg)
	router := gin.New()
	api.SetupRoutes(router, handler)
	return router
}

// stubStorage serves canned archive objects. Exists errors on absent
// keys the way S3 HeadObject does.
type stubStorage struct {
	objects map[string][]byte
}

func (s *stubStorage) Upload(ctx context.Context, key string, data io.Reader) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = payload
	return nil
}

func (s *stubStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	payload, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (s *stubStorage) Exists(ctx context.Context, key string) (bool, error) {
	if _, ok := s.objects[key]; !ok {
		return false, errors.New("NotFound: head object failed")
	}
	return true, nil
}

func doRequest(router *gin.Engine, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportEndpoint(t *testing.T) {
	Convey("Given the results API", t, func() {
		repo := db.NewMemoryRepository()
		router := newRouter(repo)

		Convey("When posting a valid batch with the markr content type", func() {
			w := doRequest(router, http.MethodPost, "/import", "text/xml+markr", []byte(sampleBatch))

			Convey("Then the batch is imported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Results imported successfully")

				stored, ok := repo.Lookup("2394", "9863")
				So(ok, ShouldBeTrue)
				So(stored.ObtainedMarks, ShouldEqual, 17)
			})
		})

		Convey("When posting with an undeclared content type", func() {
			w := doRequest(router, http.MethodPost, "/import", "application/json", []byte(sampleBatch))

			Convey("Then it is refused as unsupported media", func() {
				So(w.Code, ShouldEqual, http.StatusUnsupportedMediaType)
				So(repo.Len(), ShouldEqual, 0)
			})
		})

		Convey("When posting a batch with validation problems", func() {
			batch := strings.Replace(sampleBatch, "<student-number>2394</student-number>", "", 1)
			batch = strings.Replace(batch, "<test-id>9863</test-id>", "", 1)
			w := doRequest(router, http.MethodPost, "/import", "text/xml+markr", []byte(batch))

			Convey("Then the ordered problem list is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var body struct {
					Error             string `json:"error"`
					IncompleteRecords []struct {
						Error string `json:"error"`
					} `json:"incomplete_records"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Error, ShouldEqual, "Incomplete record(s)")
				So(body.IncompleteRecords, ShouldHaveLength, 1)
				So(body.IncompleteRecords[0].Error, ShouldEqual, "Missing fields: student-number, test-id")
				So(repo.Len(), ShouldEqual, 0)
			})
		})

		Convey("When posting bytes that are not XML", func() {
			w := doRequest(router, http.MethodPost, "/import", "text/xml+markr", []byte("<mcq-test-results>"))

			Convey("Then the syntax problem is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "Invalid XML syntax")
			})
		})

		Convey("When posting an empty batch", func() {
			w := doRequest(router, http.MethodPost, "/import", "text/xml+markr",
				[]byte("<mcq-test-results></mcq-test-results>"))

			Convey("Then the no-records problem is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "No mcq-test-result elements found")
			})
		})
	})
}

func TestAggregateEndpoint(t *testing.T) {
	Convey("Given the results API with an imported batch", t, func() {
		repo := db.NewMemoryRepository()
		router := newRouter(repo)

		w := doRequest(router, http.MethodPost, "/import", "text/xml+markr", []byte(sampleBatch))
		So(w.Code, ShouldEqual, http.StatusOK)

		Convey("When requesting the aggregate for that test", func() {
			w := doRequest(router, http.MethodGet, "/results/9863/aggregate", "", nil)

			Convey("Then the statistics JSON matches the stored record", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var body map[string]float64
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["count"], ShouldEqual, 1)
				So(body["mean"], ShouldEqual, 17.0)
				So(body["stddev"], ShouldEqual, 0.0)
				So(body["min"], ShouldEqual, 17)
				So(body["max"], ShouldEqual, 17)
				So(body["p25"], ShouldEqual, 85.0)
				So(body["p50"], ShouldEqual, 85.0)
				So(body["p75"], ShouldEqual, 85.0)
			})
		})

		Convey("When requesting the aggregate for an unknown test", func() {
			w := doRequest(router, http.MethodGet, "/results/0000/aggregate", "", nil)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When requesting the health endpoint", func() {
			w := doRequest(router, http.MethodGet, "/health", "", nil)

			Convey("Then the service reports healthy", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "healthy")
			})
		})
	})
}

func TestDownloadBatchEndpoint(t *testing.T) {
	Convey("Given the results API with an archived batch", t, func() {
		repo := db.NewMemoryRepository()
		store := &stubStorage{objects: map[string][]byte{
			"batches/abc-123.xml": []byte(sampleBatch),
		}}
		router := newRouterWith(repo, archive.New(store, 1))

		Convey("When fetching the archived batch by id", func() {
			w := doRequest(router, http.MethodGet, "/batches/abc-123", "", nil)

			Convey("Then the original payload is replayed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/xml+markr")
				So(w.Body.String(), ShouldEqual, sampleBatch)
			})
		})

		Convey("When fetching an unknown batch id", func() {
			w := doRequest(router, http.MethodGet, "/batches/nope", "", nil)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When archiving is not configured", func() {
			bare := newRouter(repo)
			w := doRequest(bare, http.MethodGet, "/batches/abc-123", "", nil)

			Convey("Then the endpoint reports not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
