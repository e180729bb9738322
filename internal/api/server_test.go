package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/taskdoc/internal/config"
	"github.com/dgallion1/taskdoc/internal/store"
)

const testKey = "test-key"

const planDoc = "## R1 First\n\nSee [a](./docs/a.md).\n\n### R1.1 Child\n\nchild\n\n## R2 Second\n\nsecond\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.RootPath = "/repo"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(store.New(cfg, nil, log), log, cfg)
}

func do(t *testing.T, srv http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+testKey)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[map[string]any](t, rec)["status"]; got != "ok" {
		t.Errorf("expected status ok, got %v", got)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}
}

func TestApplyText(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/apply", map[string]any{
		"text":      planDoc,
		"operation": map[string]any{"kind": "insert_subtask", "id": "R1", "title": "New"},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Text string `json:"text"`
		ID   string `json:"id"`
	}](t, rec)
	if resp.ID != "R1.2" {
		t.Errorf("expected R1.2, got %q", resp.ID)
	}
	if !strings.Contains(resp.Text, "See [a](./docs/a.md).\n\n### R1.2 New\n\n_No description yet._\n\n### R1.1 Child") {
		t.Errorf("unexpected text %q", resp.Text)
	}

	stats := decode[struct {
		Operations map[string]struct {
			Count int `json:"count"`
		} `json:"operations"`
	}](t, do(t, srv, http.MethodGet, "/api/stats/ops", nil, nil))
	if stats.Operations["insert_subtask"].Count != 1 {
		t.Errorf("expected one recorded insert, got %+v", stats.Operations)
	}
}

func TestApplyText_ErrorStatuses(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name string
		body any
		code int
		kind string
	}{
		{"missing task", map[string]any{"text": planDoc, "operation": map[string]any{"kind": "delete", "id": "R9"}}, http.StatusNotFound, "not_found"},
		{"duplicate ids", map[string]any{"text": "## R1 a\n## R1 b\n", "operation": map[string]any{"kind": "delete", "id": "R1"}}, http.StatusConflict, "duplicate_identifier"},
		{"bad id", map[string]any{"text": planDoc, "operation": map[string]any{"kind": "delete", "id": "1R"}}, http.StatusBadRequest, "invalid_identifier"},
		{"unknown kind", map[string]any{"text": planDoc, "operation": map[string]any{"kind": "rename", "id": "R1"}}, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/apply", tt.body, nil)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if got := decode[map[string]string](t, rec)["kind"]; got != tt.kind {
				t.Errorf("expected kind %q, got %q", tt.kind, got)
			}
		})
	}

	if rec := do(t, srv, http.MethodPost, "/api/apply", "{not json", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestListTasksText(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": planDoc}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[struct {
		Tasks []struct {
			ID     string `json:"id"`
			Level  int    `json:"level"`
			Status string `json:"status"`
		} `json:"tasks"`
	}](t, rec)
	if len(resp.Tasks) != 3 || resp.Tasks[1].ID != "R1.1" || resp.Tasks[1].Level != 1 {
		t.Errorf("unexpected tasks %+v", resp.Tasks)
	}
	for _, task := range resp.Tasks {
		if task.Status != "none" {
			t.Errorf("%s: expected status %q, got %q", task.ID, "none", task.Status)
		}
	}
}

func TestResolveLink(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/links/resolve", map[string]string{
		"href":     "./a/./b/./c/file.md",
		"doc_path": "/repo/doc.md",
	}, nil)
	resp := decode[resolveResponse](t, rec)
	if resp.Absolute != "/repo/a/b/c/file.md" || resp.Relative != "a/b/c/file.md" {
		t.Errorf("unexpected resolution %+v", resp)
	}

	rec = do(t, srv, http.MethodPost, "/api/links/resolve", map[string]string{"href": "https://example.com/x"}, nil)
	if resp := decode[resolveResponse](t, rec); !resp.External || resp.Absolute != "" {
		t.Errorf("expected external link, got %+v", resp)
	}

	if rec := do(t, srv, http.MethodPost, "/api/links/resolve", map[string]string{}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without href, got %d", rec.Code)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/documents", map[string]string{"path": "/repo/plan.md", "text": planDoc}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[store.Snapshot](t, rec)
	etag := rec.Header().Get("ETag")
	if etag != `"`+created.Revision+`"` {
		t.Errorf("expected etag for revision, got %q", etag)
	}
	base := "/api/documents/" + created.ID

	rec = do(t, srv, http.MethodGet, base, nil, nil)
	if got := decode[store.Snapshot](t, rec); got.Text != planDoc {
		t.Errorf("expected stored text, got %q", got.Text)
	}

	rec = do(t, srv, http.MethodGet, base+"/next-id?parent=R1", nil, nil)
	if got := decode[map[string]string](t, rec)["id"]; got != "R1.2" {
		t.Errorf("expected R1.2, got %q", got)
	}
	rec = do(t, srv, http.MethodGet, base+"/next-id", nil, nil)
	if got := decode[map[string]string](t, rec)["id"]; got != "R3" {
		t.Errorf("expected R3, got %q", got)
	}

	rec = do(t, srv, http.MethodGet, base+"/tasks/R1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	task := decode[struct {
		Task struct {
			Body     string   `json:"body"`
			ChildIDs []string `json:"child_ids"`
		} `json:"task"`
		Links []struct {
			Relative string `json:"relative"`
		} `json:"links"`
	}](t, rec)
	if task.Task.Body != "See [a](./docs/a.md)." || len(task.Task.ChildIDs) != 1 {
		t.Errorf("unexpected task %+v", task.Task)
	}
	if len(task.Links) != 1 || task.Links[0].Relative != "docs/a.md" {
		t.Errorf("unexpected links %+v", task.Links)
	}

	rec = do(t, srv, http.MethodPost, base+"/apply", map[string]string{"kind": "set_status", "id": "R2", "status": "completed"},
		map[string]string{"If-Match": etag})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The old revision is stale now.
	rec = do(t, srv, http.MethodPost, base+"/apply", map[string]string{"kind": "delete", "id": "R1"},
		map[string]string{"If-Match": etag})
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, base+"/tasks", nil, nil)
	tasks := decode[struct {
		Tasks []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"tasks"`
	}](t, rec)
	if len(tasks.Tasks) != 3 || tasks.Tasks[2].Status != "completed" {
		t.Errorf("unexpected tasks %+v", tasks.Tasks)
	}

	if rec := do(t, srv, http.MethodDelete, base, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, base, nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateDocument_TooLarge(t *testing.T) {
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.MaxDocumentBytes = 16
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(store.New(cfg, nil, log), log, cfg)

	rec := do(t, srv, http.MethodPost, "/api/documents", map[string]string{"text": strings.Repeat("x", 64)}, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestIfMatch(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"*":       "",
		`"abc"`:   "abc",
		`W/"abc"`: "abc",
		" abc ":   "abc",
	}
	for in, want := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("If-Match", in)
		if got := ifMatch(req); got != want {
			t.Errorf("ifMatch(%q): expected %q, got %q", in, want, got)
		}
	}
}
