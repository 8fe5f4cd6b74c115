package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/sentinel/internal/adapters/collector"
	"github.com/okian/sentinel/internal/adapters/feedback"
	"github.com/okian/sentinel/internal/adapters/http/api"
	service "github.com/okian/sentinel/internal/app"
	"github.com/okian/sentinel/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeEngine serves canned scores and records calls.
type fakeEngine struct {
	scores   map[string]scoring.ScoreRecord
	cached   map[string]bool
	errs     map[string]error
	feedback []string
	batchErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		scores: make(map[string]scoring.ScoreRecord),
		cached: make(map[string]bool),
		errs:   make(map[string]error),
	}
}

func (f *fakeEngine) GetScore(_ context.Context, identifier string, _ bool) (scoring.ScoreRecord, bool, error) {
	if err, ok := f.errs[identifier]; ok {
		return scoring.ScoreRecord{}, false, err
	}
	rec, ok := f.scores[identifier]
	if !ok {
		return scoring.ScoreRecord{}, false, collector.ErrNotFound
	}
	return rec, f.cached[identifier], nil
}

func (f *fakeEngine) AnalyzeBatch(ctx context.Context, identifiers []string, refresh bool) ([]service.Result, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	results := make([]service.Result, len(identifiers))
	for i, id := range identifiers {
		rec, cached, err := f.GetScore(ctx, id, refresh)
		results[i] = service.Result{Identifier: id, Record: rec, Cached: cached, Err: err}
	}
	return results, nil
}

func (f *fakeEngine) RecordFeedback(_ context.Context, identifier string, kind feedback.Kind, _ string) error {
	f.feedback = append(f.feedback, identifier+":"+string(kind))
	return nil
}

func (f *fakeEngine) GetStats(context.Context) (service.Stats, error) {
	return service.Stats{TotalAnalyzed: 7, ModelVersion: "heuristic-v1", SchemaVersion: 1}, nil
}

func newTestServer(engine api.Engine) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(engine).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func scoreFor(id string, p float64) scoring.ScoreRecord {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return scoring.ScoreRecord{
		Identifier:     id,
		Probability:    p,
		Confidence:     0.8,
		Classification: scoring.Classify(p),
		AnalyzedAt:     now,
		ExpiresAt:      now.Add(48 * time.Hour),
	}
}

func TestScoreEndpoint(t *testing.T) {
	Convey("Given the API over a fake engine", t, func() {
		engine := newFakeEngine()
		engine.scores["alice"] = scoreFor("alice", 0.62)
		engine.cached["alice"] = true
		srv := newTestServer(engine)
		defer srv.Close()

		Convey("When fetching a known account's score", func() {
			resp, err := http.Get(srv.URL + "/v1/score/alice")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the score record is returned with the cache flag", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["username"], ShouldEqual, "alice")
				So(body["bot_probability"], ShouldAlmostEqual, 0.62)
				So(body["classification"], ShouldEqual, "likely_bot")
				So(body["cached"], ShouldEqual, true)
			})
		})

		Convey("When fetching an unknown account", func() {
			resp, err := http.Get(srv.URL + "/v1/score/nobody")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it responds 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the upstream rate limit is exhausted", func() {
			engine.errs["busy"] = collector.ErrRateLimited
			resp, err := http.Get(srv.URL + "/v1/score/busy")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it responds 429", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When the identifier is percent-encoded", func() {
			engine.scores["bot hunter"] = scoreFor("bot hunter", 0.1)
			resp, err := http.Get(srv.URL + "/v1/score/bot%20hunter")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the engine sees the decoded identifier", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["username"], ShouldEqual, "bot hunter")
			})
		})

		Convey("When the identifier holds a literal percent sign", func() {
			engine.scores["50%off"] = scoreFor("50%off", 0.1)
			resp, err := http.Get(srv.URL + "/v1/score/50%25off")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is decoded exactly once", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["username"], ShouldEqual, "50%off")
			})
		})

		Convey("When the identifier is missing from the path", func() {
			resp, err := http.Get(srv.URL + "/v1/score/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it responds 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Post(srv.URL+"/v1/score/alice", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it responds 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestBatchEndpoint(t *testing.T) {
	Convey("Given the API over a fake engine", t, func() {
		engine := newFakeEngine()
		engine.scores["alice"] = scoreFor("alice", 0.62)
		engine.scores["carol"] = scoreFor("carol", 0.10)
		engine.cached["carol"] = true
		srv := newTestServer(engine)
		defer srv.Close()

		post := func(body string) *http.Response {
			resp, err := http.Post(srv.URL+"/v1/analyze/batch", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When analyzing a mixed batch", func() {
			resp := post(`{"usernames":["alice","nobody","carol"]}`)
			defer resp.Body.Close()

			Convey("Then per-item statuses reflect each outcome in order", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					Results []struct {
						Username string          `json:"username"`
						Status   string          `json:"status"`
						Score    json.RawMessage `json:"score"`
						Error    string          `json:"error"`
					} `json:"results"`
					ProcessingTimeMS *int64 `json:"processing_time_ms"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(len(body.Results), ShouldEqual, 3)

				So(body.Results[0].Username, ShouldEqual, "alice")
				So(body.Results[0].Status, ShouldEqual, "completed")
				So(body.Results[0].Score, ShouldNotBeNil)

				So(body.Results[1].Username, ShouldEqual, "nobody")
				So(body.Results[1].Status, ShouldEqual, "error")
				So(body.Results[1].Error, ShouldNotBeEmpty)

				So(body.Results[2].Username, ShouldEqual, "carol")
				So(body.Results[2].Status, ShouldEqual, "cached")

				So(body.ProcessingTimeMS, ShouldNotBeNil)
			})
		})

		Convey("When the engine rejects the batch shape", func() {
			engine.batchErr = service.ErrBatchTooLarge
			resp := post(`{"usernames":["alice"]}`)
			defer resp.Body.Close()

			Convey("Then it responds 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the request body is not JSON", func() {
			resp := post(`not json`)
			defer resp.Body.Close()

			Convey("Then it responds 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestFeedbackEndpoint(t *testing.T) {
	Convey("Given the API over a fake engine", t, func() {
		engine := newFakeEngine()
		srv := newTestServer(engine)
		defer srv.Close()

		post := func(body string) *http.Response {
			resp, err := http.Post(srv.URL+"/v1/feedback", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When submitting valid feedback", func() {
			resp := post(`{"username":"alice","feedback_type":"false_positive","note":"human after review"}`)
			defer resp.Body.Close()

			Convey("Then it is accepted and forwarded to the engine", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(engine.feedback, ShouldResemble, []string{"alice:false_positive"})
			})
		})

		Convey("When the feedback kind is unknown", func() {
			resp := post(`{"username":"alice","feedback_type":"sus"}`)
			defer resp.Body.Close()

			Convey("Then it responds 400 without touching the engine", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(engine.feedback, ShouldBeEmpty)
			})
		})

		Convey("When the username is missing", func() {
			resp := post(`{"feedback_type":"confirmed_bot"}`)
			defer resp.Body.Close()

			Convey("Then it responds 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the API over a fake engine", t, func() {
		srv := newTestServer(newFakeEngine())
		defer srv.Close()

		Convey("When fetching stats", func() {
			resp, err := http.Get(srv.URL + "/v1/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the snapshot is rendered as JSON", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var stats map[string]any
				So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
				So(stats["total_accounts_analyzed"], ShouldEqual, 7)
				So(stats["model_version"], ShouldEqual, "heuristic-v1")
			})
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		srv := newTestServer(newFakeEngine())
		defer srv.Close()

		Convey("When probing /healthz", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it serves the metrics exposition", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func ExampleNewServer() {
	engine := newFakeEngine()
	engine.scores["alice"] = scoreFor("alice", 0.62)

	mux := http.NewServeMux()
	api.NewServer(engine).Register(context.Background(), mux)

	req := httptest.NewRequest(http.MethodGet, "/v1/score/alice", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	fmt.Println(rec.Code)
	// Output: 200
}
