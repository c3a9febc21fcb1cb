package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRowUnmarshal_PreservesKeyOrder(t *testing.T) {
	var rs ResultSet
	body := `[{"volume":12,"timestamp":"08:00","lane":"N"},{"timestamp":"08:05","volume":7,"lane":"S"}]`
	if err := json.Unmarshal([]byte(body), &rs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"volume", "timestamp", "lane"}
	got := rs.Columns()
	if len(got) != len(want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("columns = %v, want %v", got, want)
		}
	}

	second := rs[1].Keys()
	if second[0] != "timestamp" || second[1] != "volume" {
		t.Errorf("second row keys = %v, want its own order", second)
	}
}

func TestRowUnmarshal_NumbersDisplayInShortestForm(t *testing.T) {
	var r Row
	body := `{"count":12,"Car":12.0,"Bus":1e2,"ratio":0.50,"id":9007199254740993}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cases := map[string]string{
		"count": "12",
		"Car":   "12",
		"Bus":   "100",
		"ratio": "0.5",
		"id":    "9007199254740993",
	}
	for k, want := range cases {
		v, ok := r.Value(k)
		if !ok {
			t.Fatalf("missing key %q", k)
		}
		if got := FormatValue(v); got != want {
			t.Errorf("FormatValue(%s) = %q, want %q", k, got, want)
		}
	}
}

func TestRowUnmarshal_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	var r Row
	if err := json.Unmarshal([]byte(`{"a":1,"b":2,"a":3}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := r.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("keys = %v, want [a b]", got)
	}
	v, _ := r.Value("a")
	if FormatValue(v) != "3" {
		t.Errorf("a = %v, want last value 3", v)
	}
}

func TestRowUnmarshal_RejectsNonObject(t *testing.T) {
	var r Row
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Fatal("expected error for array input")
	}
}

func TestRowMarshal_RoundTripsOrder(t *testing.T) {
	r := NewRow("timestamp", "08:00", "volume", 12)
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"timestamp":"08:00","volume":12}` {
		t.Errorf("marshal = %s", b)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{false, "false"},
		{json.Number("42"), "42"},
		{json.Number("12.0"), "12"},
		{json.Number("1e2"), "100"},
		{json.Number("-2.50"), "-2.5"},
		{3.5, "3.5"},
		{float64(12), "12"},
		{[]any{json.Number("1"), "a", nil}, "1,a,"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResultSetColumns_Empty(t *testing.T) {
	var rs ResultSet
	if cols := rs.Columns(); cols != nil {
		t.Errorf("Columns() = %v, want nil", cols)
	}
}

func TestConnectivityError_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&ConnectivityError{Err: cause})
	if err.Error() != MsgConnectivity {
		t.Errorf("Error() = %q, want %q", err.Error(), MsgConnectivity)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}
