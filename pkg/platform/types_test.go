package platform

import (
	"encoding/json"
	"testing"
)

func TestFileEntryDisplayName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain string", raw: `"well_log.las"`, want: "well_log.las"},
		{name: "file field", raw: `{"file": "seismic.segy", "size": 10}`, want: "seismic.segy"},
		{name: "name field", raw: `{"name": "core.csv"}`, want: "core.csv"},
		{name: "file wins over name", raw: `{"name": "n", "file": "f"}`, want: "f"},
		{name: "empty file falls back to name", raw: `{"file": "", "name": "n"}`, want: "n"},
		{name: "empty object", raw: `{}`, want: "{}"},
		{name: "object dump keeps key order", raw: `{"z": 1, "a": [1, 2]}`, want: `{"z":1,"a":[1,2]}`},
		{name: "numeric file", raw: `{"file": 7}`, want: "7"},
		{name: "zero file is unset", raw: `{"file": 0}`, want: `{"file":0}`},
		{name: "nested object file", raw: `{"file": {"path": "x"}}`, want: `{"path":"x"}`},
		{name: "array", raw: `["a", "b"]`, want: `["a","b"]`},
		{name: "number", raw: `3.5`, want: "3.5"},
		{name: "null", raw: `null`, want: ""},
		{name: "boolean", raw: `true`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFileEntry(tt.raw).DisplayName()
			if got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileEntryRoundTrip(t *testing.T) {
	var listing FileListing
	if err := json.Unmarshal([]byte(`{"content": ["a", {"file": "b"}]}`), &listing); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	data, err := json.Marshal(listing.Content)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `["a",{"file":"b"}]` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestStatusSnapshotText(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantUptime  string
		wantQueries string
		wantSysType string
	}{
		{
			name:        "all fields",
			raw:         `{"uptime_hours": 12.3456, "total_queries": 1200, "system_type": "multi-agent"}`,
			wantUptime:  "12.35",
			wantQueries: "1200",
			wantSysType: "multi-agent",
		},
		{
			name: "missing fields stay empty",
			raw:  `{}`,
		},
		{
			name:        "null numbers stay empty",
			raw:         `{"uptime_hours": null, "total_queries": null, "system_type": "x"}`,
			wantSysType: "x",
		},
		{
			name:        "uptime tie rounds up",
			raw:         `{"uptime_hours": 0.125, "total_queries": 3}`,
			wantUptime:  "0.13",
			wantQueries: "3",
		},
		{
			name:       "uptime second tie rounds up",
			raw:        `{"uptime_hours": 0.625}`,
			wantUptime: "0.63",
		},
		{
			name:       "uptime below tie rounds down",
			raw:        `{"uptime_hours": 1.005}`,
			wantUptime: "1.00",
		},
		{
			name:       "large uptime",
			raw:        `{"uptime_hours": 1234567.891}`,
			wantUptime: "1234567.89",
		},
		{
			name:        "string fields still display",
			raw:         `{"uptime_hours": "n/a", "total_queries": "12", "system_type": 7}`,
			wantUptime:  "n/a",
			wantQueries: "12",
			wantSysType: "7",
		},
		{
			name:        "fractional queries",
			raw:         `{"uptime_hours": 0, "total_queries": 2.5}`,
			wantUptime:  "0.00",
			wantQueries: "2.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var status StatusSnapshot
			if err := json.Unmarshal([]byte(tt.raw), &status); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := status.UptimeText(); got != tt.wantUptime {
				t.Errorf("UptimeText() = %q, want %q", got, tt.wantUptime)
			}
			if got := status.TotalQueriesText(); got != tt.wantQueries {
				t.Errorf("TotalQueriesText() = %q, want %q", got, tt.wantQueries)
			}
			if got := status.SystemTypeText(); got != tt.wantSysType {
				t.Errorf("SystemTypeText() = %q, want %q", got, tt.wantSysType)
			}
		})
	}
}

func TestFixed2(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{v: 0, want: "0.00"},
		{v: 0.005, want: "0.01"},
		{v: 2.5, want: "2.50"},
		{v: 0.125, want: "0.13"},
		{v: 10.235, want: "10.23"},
		{v: -0.125, want: "-0.13"},
		{v: -0.001, want: "-0.00"},
		{v: 99.999, want: "100.00"},
		{v: 1e21, want: "1e+21"},
	}

	for _, tt := range tests {
		if got := fixed2(tt.v); got != tt.want {
			t.Errorf("fixed2(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestStatusSnapshotNil(t *testing.T) {
	var status *StatusSnapshot
	if status.UptimeText() != "" || status.TotalQueriesText() != "" || status.SystemTypeText() != "" {
		t.Error("nil snapshot should render empty fields")
	}
}

func TestQueryResponseText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `{"response": "X"}`, want: "X"},
		{raw: `{"response": "# Title\n<b>not markup</b>"}`, want: "# Title\n<b>not markup</b>"},
		{raw: `{}`, want: ""},
		{raw: `{"response": null}`, want: ""},
		{raw: `{"response": {"rows": 2}}`, want: `{"rows":2}`},
	}

	for _, tt := range tests {
		var resp QueryResponse
		if err := json.Unmarshal([]byte(tt.raw), &resp); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.raw, err)
		}
		if got := resp.Text(); got != tt.want {
			t.Errorf("Text() for %s = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
