package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		units    string
		expected float64
	}{
		{"10 m/s to mph", 10.0, MPH, 22.3694},
		{"10 m/s to kmph", 10.0, KMPH, 36.0},
		{"10 m/s to kph", 10.0, KPH, 36.0},
		{"10 m/s to mps", 10.0, MPS, 10.0},
		{"unknown units default to mps", 10.0, "unknown", 10.0},
		{"city speed 13.89 m/s to kmph", 13.89, KMPH, 50.004},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.units)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.units, result, tt.expected)
			}
		})
	}
}

func TestToMPS(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		units    string
		expected float64
		wantErr  bool
	}{
		{"36 km/h", 36.0, KMPH, 10.0, false},
		{"36 kph", 36.0, KPH, 10.0, false},
		{"WLTP peak 131.3 km/h", 131.3, KMPH, 36.4722, false},
		{"10 mph", 10.0, MPH, 4.4704, false},
		{"SI passthrough", 12.5, MPS, 12.5, false},
		{"empty unit is SI", 12.5, "", 12.5, false},
		{"unknown unit", 1.0, "knots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ToMPS(tt.speed, tt.units)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ToMPS(%f, %q) expected error", tt.speed, tt.units)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToMPS(%f, %q) unexpected error: %v", tt.speed, tt.units, err)
			}
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ToMPS(%f, %s) = %f, want %f", tt.speed, tt.units, result, tt.expected)
			}
		})
	}
}

func TestToMPS_RoundTrip(t *testing.T) {
	for _, unit := range ValidUnits {
		mps, err := ToMPS(ConvertSpeed(17.0, unit), unit)
		if err != nil {
			t.Fatalf("ToMPS(%s) error: %v", unit, err)
		}
		if math.Abs(mps-17.0) > 1e-4 {
			t.Errorf("round trip via %s = %f, want 17", unit, mps)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "MPH", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "mps, mph, kmph, kph"
	if result := GetValidUnitsString(); result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]string{MPS: "m/s", KMPH: "km/h", KPH: "km/h", MPH: "mph", "": "m/s"}
	for unit, want := range cases {
		if got := Label(unit); got != want {
			t.Errorf("Label(%q) = %q, want %q", unit, got, want)
		}
	}
}

func TestKWhToMJ(t *testing.T) {
	if got := KWhToMJ(17.9); math.Abs(got-64.44) > 1e-9 {
		t.Errorf("KWhToMJ(17.9) = %f, want 64.44", got)
	}
}
