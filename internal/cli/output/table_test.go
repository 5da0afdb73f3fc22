package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type deviceNumber struct{ Major, Minor int }

func (d deviceNumber) String() string { return "240:0" }

type info struct {
	Name     string            `json:"name"`
	Number   deviceNumber      `json:"number"`
	Inner    struct{ Size int } `json:"inner"`
	Counters map[string]uint64 `json:"counters"`
	Secret   string            `json:"secret" table:"-"`
	Extra    string            `json:"extra" table:"wide"`
}

func render(t *testing.T, f *TableFormatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []sample{
		{ID: "pcds-a", Position: 0, Data: []byte("x")},
		{ID: "pcds-b", Position: 12},
	}
	out := render(t, &TableFormatter{}, rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if fields := strings.Fields(lines[0]); len(fields) != 2 || fields[0] != "ID" || fields[1] != "POSITION" {
		t.Errorf("headers = %v", fields)
	}
	if !strings.Contains(lines[2], "pcds-b") || !strings.Contains(lines[2], "12") {
		t.Errorf("row = %q", lines[2])
	}

	out = render(t, &TableFormatter{NoHeaders: true}, rows)
	if strings.Contains(out, "POSITION") {
		t.Errorf("NoHeaders output has headers:\n%s", out)
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	in := info{
		Name:     "pcd",
		Inner:    struct{ Size int }{Size: 512},
		Counters: map[string]uint64{"writes": 2, "reads": 1},
		Secret:   "hidden",
		Extra:    "wide-only",
	}
	out := render(t, &TableFormatter{}, in)
	for _, want := range []string{"name", "pcd", "number", "240:0", "inner.size", "512", "counters.reads", "counters.writes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") || strings.Contains(out, "wide-only") {
		t.Errorf("hidden fields shown:\n%s", out)
	}
	if strings.Index(out, "counters.reads") > strings.Index(out, "counters.writes") {
		t.Errorf("map keys not sorted:\n%s", out)
	}

	out = render(t, &TableFormatter{Wide: true}, in)
	if !strings.Contains(out, "wide-only") {
		t.Errorf("wide output missing wide field:\n%s", out)
	}
}

func TestTableFormatter_Map(t *testing.T) {
	out := render(t, &TableFormatter{}, map[string]int{"b": 2, "a": 1})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "a") {
		t.Errorf("unexpected map table:\n%s", out)
	}
}

func TestTableFormatter_Fallbacks(t *testing.T) {
	if out := render(t, &TableFormatter{}, nil); out != "" {
		t.Errorf("nil data rendered %q", out)
	}
	if out := render(t, &TableFormatter{}, 42); strings.TrimSpace(out) != "42" {
		t.Errorf("scalar fallback = %q", out)
	}
	var nilPtr *sample
	if out := render(t, &TableFormatter{}, nilPtr); out != "" {
		t.Errorf("nil pointer rendered %q", out)
	}
	out := render(t, &TableFormatter{}, []string{"x", "y"})
	if !strings.HasPrefix(out, "VALUE") {
		t.Errorf("scalar slice table = %q", out)
	}
}

func TestTable_Render(t *testing.T) {
	var tbl Table
	tbl.SetHeaders("OK", "LINE")
	tbl.AddRow("1", "status")
	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "OK  LINE\n1   status\n" {
		t.Errorf("Render() = %q", got)
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"empty string", "", "-"},
		{"bytes", []byte("hello"), "<5 bytes>"},
		{"slice", []int{1, 2}, "[2 items]"},
		{"empty map", map[string]int{}, "-"},
		{"bool", true, "true"},
		{"zero time", time.Time{}, "-"},
		{"time", ts, "2024-01-02 03:04:05"},
		{"stringer", deviceNumber{}, "240:0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(reflectValue(tt.in)); got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	for in, want := range map[string]string{"OpenedAt": "opened_at", "ID": "i_d", "name": "name"} {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func reflectValue(v any) reflect.Value { return reflect.ValueOf(v) }
