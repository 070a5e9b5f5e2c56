package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/observability"
	"github.com/matzehuels/macroplace/pkg/pipeline"
	"github.com/matzehuels/macroplace/pkg/placer"
)

func design(t *testing.T, w, h float64) *netlist.Design {
	t.Helper()
	return netlist.NewBuilder("two", geom.Rect{UX: 100, UY: 100}).
		Macro("A", w, h, "O1", "O2").
		Macro("B", w, h, "I1", "I2").
		Connect("A/O1", "B/I1").
		Connect("A/O2", "B/I2").
		MustBuild()
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	h := New(Config{}).Handler()
	for _, path := range []string{"/healthz", "/version"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
		if rec.Header().Get(HeaderRequestID) == "" {
			t.Errorf("GET %s: no request ID", path)
		}
	}
}

func TestRequestIDPropagated(t *testing.T) {
	h := New(Config{}).Handler()
	const id = "3f1c9a0e-6f7b-4c1d-9a53-0d1e2f3a4b5c"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != id {
		t.Errorf("request ID = %q, want %q", got, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "not a uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got == "not a uuid" || got == "" {
		t.Errorf("invalid request ID kept: %q", got)
	}
}

func TestPlace(t *testing.T) {
	h := New(Config{}).Handler()
	rec := post(t, h, "/v1/place", PlaceRequest{
		Design:    design(t, 10, 10),
		Options:   &pipeline.Options{Views: []string{pipeline.ViewTree}, Formats: []string{"dot"}},
		WriteBack: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp PlaceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result == nil || len(resp.Placements) != 2 {
		t.Fatalf("placements = %+v", resp.Result)
	}
	if resp.Cached {
		t.Error("first request reported a cache hit")
	}
	if _, ok := resp.Artifacts["tree.dot"]; !ok {
		t.Errorf("artifacts = %v, want tree.dot", keys(resp.Artifacts))
	}
	if resp.PlacedDesign == nil {
		t.Fatal("placed design missing")
	}
	for _, p := range resp.Placements {
		inst := resp.PlacedDesign.Instance(p.Name)
		if inst == nil || inst.X != p.LX || inst.Y != p.LY {
			t.Errorf("placed design %s = %+v, want (%v, %v)", p.Name, inst, p.LX, p.LY)
		}
	}
}

func TestWeights(t *testing.T) {
	h := New(Config{}).Handler()
	// Too large to place, but weights are still reported.
	rec := post(t, h, "/v1/weights", PlaceRequest{Design: design(t, 90, 90)})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var c placer.Connectivity
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatal(err)
	}
	if len(c.Pairs) != 1 || c.Pairs[0].Weight != 2 {
		t.Errorf("pairs = %+v, want one pair of weight 2", c.Pairs)
	}
}

func TestErrors(t *testing.T) {
	h := New(Config{}).Handler()
	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"malformed", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"design": {}, "colour": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no design", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad view", PlaceRequest{Design: design(t, 10, 10), Options: &pipeline.Options{Views: []string{"3d"}}},
			http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"infeasible", PlaceRequest{Design: design(t, 90, 90)}, http.StatusUnprocessableEntity, errors.ErrCodeInfeasibleArea},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/v1/place", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidDesign, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeConfig, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeMissingTimingData, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	h := New(Config{}).Handler()
	post(t, h, "/v1/place", "{")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if len(hooks.statuses) != 2 || hooks.statuses[0] != http.StatusBadRequest || hooks.statuses[1] != http.StatusOK {
		t.Errorf("statuses = %v", hooks.statuses)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil && !strings.Contains(err.Error(), "closed") {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
