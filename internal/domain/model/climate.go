package model

import (
	"fmt"
	"strings"
)

// HVACMode is a Home Assistant climate operation mode.
type HVACMode string

const (
	HVACModeOff      HVACMode = "off"
	HVACModeHeat     HVACMode = "heat"
	HVACModeCool     HVACMode = "cool"
	HVACModeAuto     HVACMode = "auto"
	HVACModeHeatCool HVACMode = "heat_cool"
	HVACModeDry      HVACMode = "dry"
	HVACModeFanOnly  HVACMode = "fan_only"
)

// hvac_action attribute values reported by climate entities.
const (
	HVACActionOff     = "off"
	HVACActionIdle    = "idle"
	HVACActionHeating = "heating"
	HVACActionCooling = "cooling"
	HVACActionDrying  = "drying"
	HVACActionFan     = "fan"
)

// Supported-feature bits of the climate entity's supported_features bitmask.
const (
	SupportsTargetTemperature      uint32 = 1
	SupportsTargetTemperatureRange uint32 = 2
	SupportsTargetHumidity         uint32 = 4
)

// Unit is the process-wide configured temperature unit.
type Unit string

const (
	UnitCelsius    Unit = "°C"
	UnitFahrenheit Unit = "°F"
)

// ParseUnit normalizes the unit spelling used in config files.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "°")) {
	case "", "C", "CELSIUS":
		return UnitCelsius, nil
	case "F", "FAHRENHEIT":
		return UnitFahrenheit, nil
	}
	return "", fmt.Errorf("unknown temperature unit %q", s)
}

// EntityState is one snapshot of a climate or water_heater entity. Optional
// attributes are pointers; nil means the attribute was absent or non-numeric.
// Snapshots are parsed once at the Home Assistant boundary and treated as
// read-only afterwards.
type EntityState struct {
	EntityID string
	State    string

	SupportedFeatures uint32

	CurrentTemperature *float64
	TargetTemperature  *float64
	TargetTempHigh     *float64
	TargetTempLow      *float64

	CurrentHumidity *float64
	TargetHumidity  *float64
	MinHumidity     *float64

	MinTemp *float64
	MaxTemp *float64

	HVACAction string
	HVACModes  []HVACMode
}

// EntityDomain returns the Home Assistant domain prefix of an entity id,
// e.g. "climate" for "climate.living_room".
func EntityDomain(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i > 0 {
		return entityID[:i]
	}
	return entityID
}
