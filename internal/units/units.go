// Package units provides the unit names and conversion factors used when
// normalising driving-cycle traces to SI and scaling work into mega-joules.
package units

import "fmt"

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Energy and distance scale factors.
const (
	JoulesPerMegajoule    = 1e6
	MetresPerKilometre    = 1000.0
	MegajoulesPerKWh      = 3.6
	mpsPerKMPH            = 1 / 3.6
	mpsPerMPH             = 0.44704
	mphPerMPS             = 2.23694
	kmphPerMPS            = 3.6
	defaultSpeedUnitLabel = "m/s"
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units return the value unchanged.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mphPerMPS
	case KMPH, KPH:
		return speedMPS * kmphPerMPS
	default:
		return speedMPS
	}
}

// ToMPS converts a speed expressed in sourceUnits into meters per second.
// Unlike ConvertSpeed it rejects unknown units, since a silently unconverted
// trace would skew every work integral.
func ToMPS(speed float64, sourceUnits string) (float64, error) {
	switch sourceUnits {
	case MPS, "":
		return speed, nil
	case KMPH, KPH:
		return speed * mpsPerKMPH, nil
	case MPH:
		return speed * mpsPerMPH, nil
	default:
		return 0, fmt.Errorf("unknown speed unit %q (valid: %s)", sourceUnits, GetValidUnitsString())
	}
}

// Label returns the display label for a speed unit, e.g. "km/h".
func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return defaultSpeedUnitLabel
	}
}

// KWhToMJ converts kilowatt-hours to mega-joules.
func KWhToMJ(kwh float64) float64 {
	return kwh * MegajoulesPerKWh
}
