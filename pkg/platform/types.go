package platform

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
)

// FileEntry is one item of the file listing. The backend does not pin down
// its shape, so the raw JSON value is kept and interpreted on display.
type FileEntry struct {
	raw json.RawMessage
}

// NewFileEntry wraps a raw JSON value as a file entry.
func NewFileEntry(raw string) FileEntry {
	return FileEntry{raw: json.RawMessage(raw)}
}

// UnmarshalJSON keeps the entry verbatim.
func (e *FileEntry) UnmarshalJSON(data []byte) error {
	e.raw = append(e.raw[:0], data...)
	return nil
}

// MarshalJSON re-emits the entry as it was received.
func (e FileEntry) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.raw, nil
}

// DisplayName returns the text shown for the entry: a plain string as is,
// an object's "file" or "name" field, or a JSON dump of the object.
func (e FileEntry) DisplayName() string {
	raw := bytes.TrimSpace(e.raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] != '{' {
		return valueText(raw)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return string(raw)
	}
	for _, key := range []string{"file", "name"} {
		if v, ok := fields[key]; ok && truthy(v) {
			return valueText(v)
		}
	}
	return compactJSON(raw)
}

// FileListing is the payload of GET /files.
type FileListing struct {
	Content []FileEntry `json:"content"`
}

// StatusSnapshot is the last status payload. Every field may be absent and
// is kept as raw JSON, so a field of an unexpected type still displays.
// The full payload is retained and re-emitted by MarshalJSON.
type StatusSnapshot struct {
	UptimeHours  json.RawMessage `json:"uptime_hours,omitempty"`
	TotalQueries json.RawMessage `json:"total_queries,omitempty"`
	SystemType   json.RawMessage `json:"system_type,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the known fields and keeps the payload.
func (s *StatusSnapshot) UnmarshalJSON(data []byte) error {
	type fields StatusSnapshot
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = StatusSnapshot(f)
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the payload as received when there is one.
func (s StatusSnapshot) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	type fields StatusSnapshot
	return json.Marshal(fields(s))
}

// UptimeText formats a numeric uptime with two decimals. Other values are
// shown as they are; absent or null yields "".
func (s *StatusSnapshot) UptimeText() string {
	if s == nil {
		return ""
	}
	raw := bytes.TrimSpace(s.UptimeHours)
	if len(raw) == 0 || raw[0] == '"' || raw[0] == '{' || raw[0] == '[' {
		return valueText(raw)
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return valueText(raw)
	}
	return fixed2(v)
}

// TotalQueriesText formats the query counter, or "" when absent.
func (s *StatusSnapshot) TotalQueriesText() string {
	if s == nil {
		return ""
	}
	return valueText(s.TotalQueries)
}

// SystemTypeText returns the system type, or "" when absent.
func (s *StatusSnapshot) SystemTypeText() string {
	if s == nil {
		return ""
	}
	return valueText(s.SystemType)
}

// fixed2 formats v with two decimals, rounding the exact binary value to
// the nearest hundredth and ties away from zero.
func fixed2(v float64) string {
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	neg := v < 0
	if neg {
		v = -v
	}

	r := new(big.Rat).SetFloat64(v)
	r.Mul(r, big.NewRat(100, 1))
	n := new(big.Int).Quo(r.Num(), r.Denom())
	rem := new(big.Rat).Sub(r, new(big.Rat).SetInt(n))
	if rem.Cmp(big.NewRat(1, 2)) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	digits := n.String()
	for len(digits) < 3 {
		digits = "0" + digits
	}
	text := digits[:len(digits)-2] + "." + digits[len(digits)-2:]
	if neg {
		text = "-" + text
	}
	return text
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the reply of POST /query.
type QueryResponse struct {
	Response json.RawMessage `json:"response"`
}

// Text returns the response field as displayable text.
func (r QueryResponse) Text() string {
	return valueText(r.Response)
}

// valueText renders a JSON value the way the page prints it: strings
// verbatim, numbers as literals, containers as compact JSON and
// null or booleans as nothing.
func valueText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case '{', '[':
		return compactJSON(raw)
	case 'n', 't', 'f':
		return ""
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return string(raw)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// truthy reports whether a JSON value counts as set for display fallbacks.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	case '{', '[', 't':
		return true
	case 'n', 'f':
		return false
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
