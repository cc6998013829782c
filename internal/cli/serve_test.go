package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/coursemap/pkg/course"
	cerrors "github.com/matzehuels/coursemap/pkg/errors"
)

func newTestServer(t *testing.T, readOnly bool) (*server, *httptest.Server) {
	t.Helper()
	path := writeDoc(t, "course.toml", linearTOML)
	c, _, err := loadDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	opts := viewOpts{width: defaultWidth, height: defaultHeight, zoom: 1, readOnly: readOnly}
	s := newServer(path, c, opts, quietLogger())
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func errorCode(t *testing.T, body string) cerrors.Code {
	t.Helper()
	var e errorResponse
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("not an error response: %s", body)
	}
	return e.Code
}

func TestServeDiagram(t *testing.T) {
	_, ts := newTestServer(t, false)

	tests := []struct {
		path   string
		status int
		ctype  string
		want   string
	}{
		{"/health", http.StatusOK, "application/json", `"status":"ok"`},
		{"/diagram.svg", http.StatusOK, "image/svg+xml", "Syntax"},
		{"/diagram.svg?screen=1&interactive=1", http.StatusOK, "image/svg+xml", "<script"},
		{"/diagram.json", http.StatusOK, "application/json", `"links"`},
		{"/diagram.mermaid?dir=lr", http.StatusOK, "text/plain; charset=utf-8", "graph LR"},
		{"/diagram.dot", http.StatusOK, "text/vnd.graphviz; charset=utf-8", "digraph G"},
		{"/course", http.StatusOK, "application/json", `"title": "Go basics"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.ctype {
				t.Errorf("content type = %q, want %q", got, tt.ctype)
			}
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("body missing %q:\n%.300s", tt.want, body)
			}
		})
	}

	status, body := do(t, http.MethodGet, ts.URL+"/diagram.pdf", "")
	if status != http.StatusBadRequest || errorCode(t, body) != cerrors.ErrCodeInvalidFormat {
		t.Errorf("pdf: %d %s", status, body)
	}
}

func TestServeValidationAndRename(t *testing.T) {
	s, ts := newTestServer(t, false)

	status, body := do(t, http.MethodPost, ts.URL+"/validation", `{"Syntax": {"valid": false, "messages": ["typo"]}}`)
	if status != http.StatusOK || !strings.Contains(body, `"badges":1`) {
		t.Fatalf("validation: %d %s", status, body)
	}

	tests := []struct {
		name   string
		body   string
		status int
		code   cerrors.Code
	}{
		{"unknown", `{"old": "Nope", "new": "X"}`, http.StatusNotFound, cerrors.ErrCodeNodeNotFound},
		{"empty", `{"old": "Syntax", "new": "  "}`, http.StatusBadRequest, cerrors.ErrCodeInvalidInput},
		{"malformed", `{"old": `, http.StatusBadRequest, cerrors.ErrCodeInvalidInput},
		{"extra field", `{"old": "Syntax", "new": "Y", "id": 1}`, http.StatusBadRequest, cerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, ts.URL+"/rename", tt.body)
			if status != tt.status || errorCode(t, body) != tt.code {
				t.Errorf("got %d %s", status, body)
			}
		})
	}

	status, body = do(t, http.MethodPost, ts.URL+"/rename", `{"old": "Syntax", "new": "Grammar"}`)
	if status != http.StatusOK || !strings.Contains(body, `"renamed":1`) {
		t.Fatalf("rename: %d %s", status, body)
	}
	n, ok := s.w.Diagram().FindPayload(mustFind(t, s.course, "syntax"))
	if !ok || !s.w.HasError(n.ID) {
		t.Error("badge did not follow the rename")
	}
	if _, ok := s.course.Validation["Grammar"]; !ok {
		t.Errorf("course validation not migrated: %v", s.course.Validation)
	}
}

func mustFind(t *testing.T, c *course.Course, ref string) *course.Transition {
	t.Helper()
	tr, ok := c.Find(ref)
	if !ok {
		t.Fatalf("no step %q", ref)
	}
	return tr
}

func TestServeDeleteAndSave(t *testing.T) {
	s, ts := newTestServer(t, false)

	status, body := do(t, http.MethodDelete, ts.URL+"/steps/syntax", "")
	if status != http.StatusOK || !strings.Contains(body, `"steps":2`) {
		t.Fatalf("delete: %d %s", status, body)
	}
	status, body = do(t, http.MethodDelete, ts.URL+"/steps/syntax", "")
	if status != http.StatusNotFound || errorCode(t, body) != cerrors.ErrCodeNodeNotFound {
		t.Errorf("second delete: %d %s", status, body)
	}

	status, body = do(t, http.MethodPost, ts.URL+"/save", "")
	if status != http.StatusOK {
		t.Fatalf("save: %d %s", status, body)
	}
	c, err := course.Load(s.path)
	if err != nil {
		t.Fatal(err)
	}
	check := mustFind(t, c, "check")
	if c.Len() != 2 || c.Root.Children[0].Transition != check {
		t.Errorf("saved tree: %d steps", c.Len())
	}
}

func TestServeReadOnly(t *testing.T) {
	_, ts := newTestServer(t, true)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/rename", `{"old": "Syntax", "new": "Grammar"}`},
		{http.MethodDelete, "/steps/syntax", ""},
	} {
		status, body := do(t, tc.method, ts.URL+tc.path, tc.body)
		if status != http.StatusForbidden || errorCode(t, body) != cerrors.ErrCodeReadOnly {
			t.Errorf("%s %s: %d %s", tc.method, tc.path, status, body)
		}
	}
	if status, _ := do(t, http.MethodGet, ts.URL+"/diagram.svg", ""); status != http.StatusOK {
		t.Errorf("read-only server refused to render: %d", status)
	}
}
