package bridge

import (
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
)

// CharID identifies a characteristic in a batched HomeKit write.
type CharID string

const (
	CharCurrentHeatingCooling CharID = "current_heating_cooling"
	CharTargetHeatingCooling  CharID = "target_heating_cooling"
	CharCurrentTemperature    CharID = "current_temperature"
	CharTargetTemperature     CharID = "target_temperature"
	CharCoolingThreshold      CharID = "cooling_threshold_temperature"
	CharHeatingThreshold      CharID = "heating_threshold_temperature"
	CharTargetHumidity        CharID = "target_humidity"
	CharCurrentHumidity       CharID = "current_humidity"
	CharDisplayUnits          CharID = "temperature_display_units"
)

// CharValues is one inbound HomeKit write. Heating/cooling state values are
// carried as float64 alongside the temperatures and truncated where needed.
type CharValues map[CharID]float64

// Home Assistant service-call vocabulary.
const (
	domainClimate     = "climate"
	domainWaterHeater = "water_heater"

	serviceSetHVACMode    = "set_hvac_mode"
	serviceSetTemperature = "set_temperature"
	serviceSetHumidity    = "set_humidity"

	paramEntityID       = "entity_id"
	paramHVACMode       = "hvac_mode"
	paramTemperature    = "temperature"
	paramTargetTempHigh = "target_temp_high"
	paramTargetTempLow  = "target_temp_low"
	paramHumidity       = "humidity"
)

// thermostatService is the HAP Thermostat service with the optional
// characteristics this bridge can expose. The stock service lacks the
// threshold and humidity characteristics, so it is assembled by hand.
type thermostatService struct {
	*service.S

	CurrentHeatingCoolingState *characteristic.CurrentHeatingCoolingState
	TargetHeatingCoolingState  *characteristic.TargetHeatingCoolingState
	CurrentTemperature         *characteristic.CurrentTemperature
	TargetTemperature          *characteristic.TargetTemperature
	TemperatureDisplayUnits    *characteristic.TemperatureDisplayUnits

	// Present only when the entity supports a target temperature range.
	CoolingThresholdTemperature *characteristic.CoolingThresholdTemperature
	HeatingThresholdTemperature *characteristic.HeatingThresholdTemperature

	// Present only when the entity supports a target humidity.
	TargetRelativeHumidity  *characteristic.TargetRelativeHumidity
	CurrentRelativeHumidity *characteristic.CurrentRelativeHumidity
}

func newThermostatService(withRange, withHumidity bool) *thermostatService {
	s := &thermostatService{S: service.New(service.TypeThermostat)}

	s.CurrentHeatingCoolingState = characteristic.NewCurrentHeatingCoolingState()
	s.AddC(s.CurrentHeatingCoolingState.C)

	s.TargetHeatingCoolingState = characteristic.NewTargetHeatingCoolingState()
	s.AddC(s.TargetHeatingCoolingState.C)

	s.CurrentTemperature = characteristic.NewCurrentTemperature()
	s.AddC(s.CurrentTemperature.C)

	s.TargetTemperature = characteristic.NewTargetTemperature()
	s.AddC(s.TargetTemperature.C)

	s.TemperatureDisplayUnits = characteristic.NewTemperatureDisplayUnits()
	s.AddC(s.TemperatureDisplayUnits.C)

	if withRange {
		s.CoolingThresholdTemperature = characteristic.NewCoolingThresholdTemperature()
		s.AddC(s.CoolingThresholdTemperature.C)

		s.HeatingThresholdTemperature = characteristic.NewHeatingThresholdTemperature()
		s.AddC(s.HeatingThresholdTemperature.C)
	}

	if withHumidity {
		s.TargetRelativeHumidity = characteristic.NewTargetRelativeHumidity()
		s.AddC(s.TargetRelativeHumidity.C)

		s.CurrentRelativeHumidity = characteristic.NewCurrentRelativeHumidity()
		s.AddC(s.CurrentRelativeHumidity.C)
	}

	return s
}
