package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aaronalt/gcc-lulc/internal/area"
	"github.com/aaronalt/gcc-lulc/internal/pipeline"
	"github.com/aaronalt/gcc-lulc/internal/store"
)

// stubExecutor returns a fixed result or error.
type stubExecutor struct {
	result *pipeline.Result
	err    error
	gotReq pipeline.Request
}

func (s *stubExecutor) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testHandlers(t *testing.T, exec RunExecutor) (*Handlers, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewHandlers(st, exec, logger), st
}

func defaultResult() *pipeline.Result {
	return &pipeline.Result{
		SceneCount: 3,
		Areas: []area.ClassArea{
			{Class: 1, Name: "Mangrove", Pixels: 10, Hectares: 0.9, Percent: 62.5},
			{Class: 8, Name: "Water", Pixels: 6, Hectares: 0.54, Percent: 37.5},
		},
	}
}

func TestCreateRun_Success(t *testing.T) {
	exec := &stubExecutor{result: defaultResult()}
	h, _ := testHandlers(t, exec)
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	body := `{"aoi": "gulf-coast", "sensor": "oli", "collection": "landsat-c2l2-sr",
		"start": "2024-01-01", "end": "2024-03-31", "bbox": [-90, 29, -89, 30]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}

	var run store.Run
	if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if run.Status != store.StatusCompleted {
		t.Errorf("Status = %s, want completed", run.Status)
	}
	if run.SceneCount != 3 {
		t.Errorf("SceneCount = %d, want 3", run.SceneCount)
	}
	if exec.gotReq.Sensor != "oli" || exec.gotReq.Collection != "landsat-c2l2-sr" {
		t.Errorf("Executor got %+v", exec.gotReq)
	}
	if exec.gotReq.Start == nil || exec.gotReq.Start.Year() != 2024 {
		t.Errorf("Start not parsed: %v", exec.gotReq.Start)
	}
}

func TestCreateRun_Validation(t *testing.T) {
	h, _ := testHandlers(t, &stubExecutor{result: defaultResult()})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{not json`},
		{"missing aoi", `{"sensor": "oli", "collection": "c"}`},
		{"unknown sensor", `{"aoi": "a", "sensor": "modis", "collection": "c"}`},
		{"missing collection", `{"aoi": "a", "sensor": "oli"}`},
		{"bad bbox", `{"aoi": "a", "sensor": "oli", "collection": "c", "bbox": [1, 2]}`},
		{"bad date", `{"aoi": "a", "sensor": "oli", "collection": "c", "start": "junk"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCreateRun_PipelineFailure(t *testing.T) {
	exec := &stubExecutor{err: errors.New("no scenes matched")}
	h, st := testHandlers(t, exec)
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	body := `{"aoi": "gulf", "sensor": "tm", "collection": "c"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Status = %d, want 502", w.Code)
	}

	// The failure must be recorded on the run.
	runs, err := st.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != store.StatusFailed {
		t.Errorf("Runs = %+v, want one failed run", runs)
	}
	if !strings.Contains(runs[0].Error, "no scenes") {
		t.Errorf("Run error = %q", runs[0].Error)
	}
}

func TestGetRun(t *testing.T) {
	h, st := testHandlers(t, &stubExecutor{result: defaultResult()})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	run, err := st.CreateRun(context.Background(), store.Run{
		AOI: "gulf", Sensor: "oli", Collection: "c", Start: "s", End: "e",
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+run.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	var got store.Run
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != run.ID || got.AOI != "gulf" {
		t.Errorf("Run = %+v", got)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	h, _ := testHandlers(t, &stubExecutor{})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", w.Code)
	}
	var apiErr APIError
	if err := json.NewDecoder(w.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Code != ErrCodeNotFound {
		t.Errorf("Error code = %s", apiErr.Code)
	}
}

func TestGetRunAreas(t *testing.T) {
	h, st := testHandlers(t, &stubExecutor{})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	run, err := st.CreateRun(context.Background(), store.Run{
		AOI: "gulf", Sensor: "oli", Collection: "c", Start: "s", End: "e",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveAreas(context.Background(), run.ID, defaultResult().Areas); err != nil {
		t.Fatal(err)
	}

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+run.ID+"/areas", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d", w.Code)
		}
		var resp struct {
			RunID string           `json:"run_id"`
			Areas []area.ClassArea `json:"areas"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Areas) != 2 {
			t.Errorf("Areas = %+v", resp.Areas)
		}
	})

	t.Run("csv", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+run.ID+"/areas?format=csv", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("Content-Type = %s", ct)
		}
		if !strings.Contains(w.Body.String(), "1,Mangrove,10") {
			t.Errorf("CSV body = %s", w.Body.String())
		}
	})

	t.Run("bad format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/runs/"+run.ID+"/areas?format=xml", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", w.Code)
		}
	})
}

func TestClasses(t *testing.T) {
	h, _ := testHandlers(t, &stubExecutor{})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	req := httptest.NewRequest(http.MethodGet, "/v1/classes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	var resp struct {
		Classes []struct {
			Value int    `json:"value"`
			Name  string `json:"name"`
			Hex   string `json:"color"`
		} `json:"classes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Classes) != 8 {
		t.Errorf("Class count = %d, want 8", len(resp.Classes))
	}
}

func TestLegend(t *testing.T) {
	h, _ := testHandlers(t, &stubExecutor{})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	req := httptest.NewRequest(http.MethodGet, "/v1/legend.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %s", ct)
	}
}

func TestHealth(t *testing.T) {
	h, _ := testHandlers(t, &stubExecutor{})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("Body = %s", w.Body.String())
	}
}

func TestNotFoundRoute(t *testing.T) {
	h, _ := testHandlers(t, &stubExecutor{})
	router := NewRouter(h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", w.Code)
	}
}
