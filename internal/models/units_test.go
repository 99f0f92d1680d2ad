package models

import (
	"encoding/json"
	"testing"
)

// TestParseUnit verifies canonical names and shorthands map to the same unit.
func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{in: "mass-kg", want: UnitKg},
		{in: "KG", want: UnitKg},
		{in: " lbs ", want: UnitLb},
		{in: "mass-lb", want: UnitLb},
		{in: "stone", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnit(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseUnit(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestSetVolume verifies volume is weight times reps.
func TestSetVolume(t *testing.T) {
	s := SetEntry{Weight: 90, Reps: 8}
	if got := s.Volume(); got != 720 {
		t.Errorf("Volume() = %v, want 720", got)
	}
}

// TestStatsEmpty verifies that stats with no metrics report empty.
func TestStatsEmpty(t *testing.T) {
	if !(ExerciseStats{}).Empty() {
		t.Error("zero stats should be empty")
	}
	v := 0.0
	if (ExerciseStats{TotalVolume: &v}).Empty() {
		t.Error("stats with a verified zero should not be empty")
	}
}

// TestUnitUnmarshalJSON verifies JSON bodies accept shorthands and reject unknown units.
func TestUnitUnmarshalJSON(t *testing.T) {
	var body struct {
		Unit Unit `json:"unit"`
	}
	if err := json.Unmarshal([]byte(`{"unit":"lb"}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Unit != UnitLb {
		t.Errorf("unit = %q, want %q", body.Unit, UnitLb)
	}
	if err := json.Unmarshal([]byte(`{"unit":""}`), &body); err != nil || body.Unit != "" {
		t.Errorf("empty unit = %q, %v; want empty, nil", body.Unit, err)
	}
	if err := json.Unmarshal([]byte(`{"unit":"stone"}`), &body); err == nil {
		t.Error("expected error for unknown unit")
	}
}
