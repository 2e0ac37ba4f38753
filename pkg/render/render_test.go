package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sabio/subsurface-console/pkg/platform"
	"github.com/sabio/subsurface-console/pkg/view"
)

func renderPage(t *testing.T, data PageData) string {
	t.Helper()
	var b strings.Builder
	if err := Page(&b, data); err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	return b.String()
}

func snapshot(t *testing.T, raw string) *platform.StatusSnapshot {
	t.Helper()
	var s platform.StatusSnapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return &s
}

func TestPageFiles(t *testing.T) {
	html := renderPage(t, PageData{
		State: view.State{
			Files: []platform.FileEntry{
				platform.NewFileEntry(`"a"`),
				platform.NewFileEntry(`{"file": "b"}`),
				platform.NewFileEntry(`{"name": "c"}`),
				platform.NewFileEntry(`{}`),
			},
		},
	})

	want := []string{"<li>a</li>", "<li>b</li>", "<li>c</li>", "<li>{}</li>"}
	last := -1
	for _, item := range want {
		idx := strings.Index(html, item)
		if idx < 0 {
			t.Fatalf("page missing %s", item)
		}
		if idx < last {
			t.Errorf("%s rendered out of order", item)
		}
		last = idx
	}
}

func TestPageTitle(t *testing.T) {
	html := renderPage(t, PageData{})
	if !strings.Contains(html, "<title>"+DefaultTitle+"</title>") {
		t.Error("default title not rendered")
	}

	html = renderPage(t, PageData{Title: "Custom"})
	if !strings.Contains(html, "<h1>Custom</h1>") {
		t.Error("custom title not rendered")
	}
}

func TestPageStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  *platform.StatusSnapshot
		want    []string
		notWant []string
	}{
		{
			name:    "no snapshot",
			status:  nil,
			want:    []string{"System Status"},
			notWant: []string{"Uptime:"},
		},
		{
			name:   "full snapshot",
			status: snapshot(t, `{"uptime_hours": 1.005, "total_queries": 42, "system_type": "rag"}`),
			want: []string{
				"Uptime: 1.00 hours",
				"Total Queries: 42",
				"System Type: rag",
			},
		},
		{
			name:   "missing fields render empty",
			status: snapshot(t, `{}`),
			want: []string{
				"Uptime:  hours",
				"Total Queries: </p>",
				"System Type: </p>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderPage(t, PageData{State: view.State{Status: tt.status}})
			for _, s := range tt.want {
				if !strings.Contains(html, s) {
					t.Errorf("page missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(html, s) {
					t.Errorf("page should not contain %q", s)
				}
			}
		})
	}
}

func TestPageResponseIsEscaped(t *testing.T) {
	html := renderPage(t, PageData{
		State: view.State{Response: "<script>alert(1)</script>\n```go\nx := 1\n```"},
	})

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("response must not be interpreted as markup")
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Error("escaped response not rendered")
	}
	if !strings.Contains(html, "<pre>\n&lt;script&gt;") {
		t.Error("response should be rendered in a pre block")
	}
}

func TestPageResponseHiddenWhenEmpty(t *testing.T) {
	html := renderPage(t, PageData{})
	if strings.Contains(html, "<h2>Response</h2>") {
		t.Error("empty response should not render the response section")
	}

	html = renderPage(t, PageData{State: view.State{Response: "X"}})
	if !strings.Contains(html, "<h2>Response</h2>") || !strings.Contains(html, "<pre>\nX</pre>") {
		t.Error("response section should show the response verbatim")
	}
}

func TestPageLoading(t *testing.T) {
	tests := []struct {
		name         string
		state        view.State
		refresh      int
		wantDisabled bool
		wantRefresh  bool
	}{
		{name: "idle", state: view.State{}, refresh: 1},
		{name: "loading", state: view.State{Loading: true}, refresh: 1, wantDisabled: true, wantRefresh: true},
		{name: "loading without auto refresh", state: view.State{Loading: true}, refresh: 0, wantDisabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderPage(t, PageData{State: tt.state, AutoRefreshSeconds: tt.refresh})

			if got := strings.Contains(html, `class="submit" disabled`); got != tt.wantDisabled {
				t.Errorf("submit disabled = %v, want %v", got, tt.wantDisabled)
			}
			if got := strings.Contains(html, `role="progressbar"`); got != tt.wantDisabled {
				t.Errorf("progress indicator = %v, want %v", got, tt.wantDisabled)
			}
			if got := strings.Contains(html, `http-equiv="refresh"`); got != tt.wantRefresh {
				t.Errorf("auto refresh = %v, want %v", got, tt.wantRefresh)
			}
		})
	}
}

func TestPageForms(t *testing.T) {
	html := renderPage(t, PageData{
		PageID:        "abc",
		State:         view.State{Query: "porosity > 0.2"},
		QueryAction:   "/pages/abc/query",
		RefreshAction: "/pages/abc/refresh",
	})

	for _, s := range []string{
		`action="/pages/abc/query"`,
		`action="/pages/abc/refresh"`,
		`data-page="abc"`,
		`name="query"`,
		"Enter your query",
		"Submit Query",
		"porosity &gt; 0.2</textarea>",
	} {
		if !strings.Contains(html, s) {
			t.Errorf("page missing %q", s)
		}
	}
}

func TestStylesheetIsMinified(t *testing.T) {
	css, err := Stylesheet()
	if err != nil {
		t.Fatalf("Stylesheet() error = %v", err)
	}
	if css == "" {
		t.Fatal("Stylesheet() is empty")
	}
	if strings.Contains(css, "\n") || strings.Contains(css, "/*") {
		t.Error("stylesheet should be minified")
	}
	if len(css) >= len(stylesheetSource) {
		t.Errorf("minified size %d, source size %d", len(css), len(stylesheetSource))
	}
}
