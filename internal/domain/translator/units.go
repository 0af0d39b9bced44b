package translator

import (
	"math"

	"homekit-bridge/internal/domain/model"
)

// HomeKit temperature display unit values.
const (
	DisplayUnitsCelsius    = 0
	DisplayUnitsFahrenheit = 1
)

// MinTemperature is the lowest temperature bound HomeKit accepts; the Home
// app crashes when a thermostat advertises a minimum below it. Exceeding the
// nominal maximum is tolerated, so only the floor is enforced.
const MinTemperature = 10.0

// UnitToHomeKit maps a configured unit to the display-units characteristic
// value.
func UnitToHomeKit(unit model.Unit) (int, bool) {
	switch unit {
	case model.UnitCelsius:
		return DisplayUnitsCelsius, true
	case model.UnitFahrenheit:
		return DisplayUnitsFahrenheit, true
	}
	return 0, false
}

// TemperatureToHomeKit converts a temperature in the configured unit to the
// Celsius value HomeKit expects, rounded to the nearest half degree.
func TemperatureToHomeKit(value float64, unit model.Unit) float64 {
	if unit == model.UnitFahrenheit {
		value = (value - 32) * 5 / 9
	}
	return RoundToHalf(value)
}

// TemperatureToState converts a HomeKit Celsius value back to the configured
// unit, rounded to the nearest half degree.
func TemperatureToState(value float64, unit model.Unit) float64 {
	if unit == model.UnitFahrenheit {
		value = value*9/5 + 32
	}
	return RoundToHalf(value)
}

// RoundToHalf rounds to the nearest 0.5 step.
func RoundToHalf(value float64) float64 {
	return math.Round(value*2) / 2
}

// ClampRange rounds both bounds to half-degree steps and raises the minimum
// to the protocol floor. The maximum is returned as-is beyond rounding.
func ClampRange(min, max float64) (float64, float64) {
	min = RoundToHalf(min)
	max = RoundToHalf(max)
	if min < MinTemperature {
		min = MinTemperature
	}
	return min, max
}
