package features

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadScaler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scaler.json")
	content := `{
		"fields": ["NetRevenue", "Month"],
		"mean": [10.0, 6.0],
		"scale": [2.0, 3.0],
		"log_fields": ["NetRevenue"]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("LoadScaler failed: %v", err)
	}

	vec, err := s.Vector(map[string]float64{"NetRevenue": 100, "Month": 3})
	if err != nil {
		t.Fatalf("Vector failed: %v", err)
	}

	wantFirst := (math.Log1p(100) - 10.0) / 2.0
	wantSecond := (3.0 - 6.0) / 3.0
	if math.Abs(vec[0]-wantFirst) > 1e-9 {
		t.Errorf("vec[0] = %f, want %f", vec[0], wantFirst)
	}
	if math.Abs(vec[1]-wantSecond) > 1e-9 {
		t.Errorf("vec[1] = %f, want %f", vec[1], wantSecond)
	}
}

func TestLoadScaler_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing file", ""},
		{"bad json", `{`},
		{"length mismatch", `{"fields":["A","B"],"mean":[1.0],"scale":[1.0,2.0]}`},
		{"zero scale", `{"fields":["A"],"mean":[0.0],"scale":[0.0]}`},
		{"no fields", `{"fields":[],"mean":[],"scale":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scaler.json")
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := LoadScaler(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestScaler_Missing(t *testing.T) {
	s := Identity("NetRevenue", "NetQuantity", "NumTransactions", "NumUniqueCustomers")

	tests := []struct {
		name string
		data map[string]interface{}
		want []string
	}{
		{
			name: "all present",
			data: map[string]interface{}{
				"NetRevenue": 1.0, "NetQuantity": 2.0,
				"NumTransactions": 3.0, "NumUniqueCustomers": 4.0,
			},
			want: nil,
		},
		{
			name: "some missing sorted",
			data: map[string]interface{}{"NetRevenue": 1.0, "NumTransactions": 3.0},
			want: []string{"NetQuantity", "NumUniqueCustomers"},
		},
		{
			name: "empty payload",
			data: map[string]interface{}{},
			want: []string{"NetQuantity", "NetRevenue", "NumTransactions", "NumUniqueCustomers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Missing(tt.data)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Missing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScaler_Numeric(t *testing.T) {
	s := Identity("A", "B")

	got, err := s.Numeric(map[string]interface{}{"A": 1.5, "B": 2.0, "Extra": "ignored"})
	if err != nil {
		t.Fatalf("Numeric failed: %v", err)
	}
	if got["A"] != 1.5 || got["B"] != 2.0 {
		t.Errorf("Numeric() = %v", got)
	}

	if _, err := s.Numeric(map[string]interface{}{"A": "not a number", "B": 2.0}); err == nil {
		t.Error("expected error for non-numeric field")
	}
}

func TestIdentity_PreservesOrder(t *testing.T) {
	s := Identity("C", "A", "B")

	vec, err := s.Vector(map[string]float64{"A": 1, "B": 2, "C": 3})
	if err != nil {
		t.Fatalf("Vector failed: %v", err)
	}
	if !reflect.DeepEqual(vec, []float64{3, 1, 2}) {
		t.Errorf("Vector() = %v, want [3 1 2]", vec)
	}
}

func TestSignedTransforms(t *testing.T) {
	values := []float64{-1000, -1.5, 0, 0.25, 42, 1e6}

	for _, v := range values {
		got := SignedExpm1(SignedLog1p(v))
		if math.Abs(got-v) > math.Abs(v)*1e-9+1e-9 {
			t.Errorf("round trip of %f = %f", v, got)
		}
	}

	if SignedLog1p(-5) >= 0 {
		t.Error("SignedLog1p should preserve negative sign")
	}
	if SignedExpm1(0) != 0 {
		t.Error("SignedExpm1(0) should be 0")
	}
}

func TestNewScaler_Validation(t *testing.T) {
	if _, err := NewScaler([]string{"A"}, []float64{0}, []float64{1, 2}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := NewScaler([]string{"A"}, []float64{0}, []float64{1}, nil); err != nil {
		t.Errorf("valid scaler rejected: %v", err)
	}
}
