package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brutella/hap/accessory"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/translator"
	"homekit-bridge/internal/ports"
)

// Default water heater bounds, in HomeKit Celsius.
const (
	defaultMinTempWaterHeater = 40.0
	defaultMaxTempWaterHeater = 60.0
)

// WaterHeater bridges a water_heater entity onto the thermostat service
// shape: a single Heat mode and a single setpoint.
type WaterHeater struct {
	entityID string
	acc      *accessory.A
	svc      *thermostatService
	conv     translator.Converter

	caller ports.ServiceCaller
	log    *slog.Logger

	mu     sync.Mutex
	writes int
}

func NewWaterHeater(cfg *model.AccessoryConfig, state *model.EntityState, deps Deps) (*WaterHeater, error) {
	conv, err := translator.NewConverter(deps.Unit, cfg.ToHomeKitFormula, cfg.ToStateFormula)
	if err != nil {
		return nil, fmt.Errorf("water heater %s: %w", cfg.EntityID, err)
	}

	w := &WaterHeater{
		entityID: cfg.EntityID,
		conv:     conv,
		caller:   deps.Caller,
		log:      deps.Log.With("entity_id", cfg.EntityID),
	}

	w.svc = newThermostatService(false, false)

	w.svc.CurrentHeatingCoolingState.SetValue(translator.HeatCoolHeat)
	w.svc.TargetHeatingCoolingState.SetValue(translator.HeatCoolHeat)
	w.svc.TargetHeatingCoolingState.ValidVals = []int{translator.HeatCoolHeat}

	// Unlike the thermostat, no protocol floor is applied to the minimum.
	minTemp, maxTemp := w.temperatureRange(state)

	// Bounds first: the stock target-temperature range tops out below water
	// heater setpoints and SetValue clamps against it. Default 0.1 step kept
	// for Fahrenheit precision, as on the thermostat.
	w.svc.CurrentTemperature.SetValue(50.0)
	w.svc.TargetTemperature.SetMinValue(minTemp)
	w.svc.TargetTemperature.SetMaxValue(maxTemp)
	w.svc.TargetTemperature.SetValue(50.0)

	w.acc = accessory.New(accessory.Info{
		Name:         cfg.Name,
		SerialNumber: cfg.EntityID,
		Manufacturer: "Home Assistant",
		Model:        domainWaterHeater,
	}, accessory.TypeThermostat)
	w.acc.AddS(w.svc.S)

	w.svc.TargetHeatingCoolingState.OnValueRemoteUpdate(w.SetHeatCool)
	w.svc.TargetTemperature.OnValueRemoteUpdate(func(v float64) {
		w.SetTargetTemperature(context.Background(), v)
	})

	w.UpdateState(state)
	return w, nil
}

func (w *WaterHeater) EntityID() string        { return w.entityID }
func (w *WaterHeater) Accessory() *accessory.A { return w.acc }

func (w *WaterHeater) CharacteristicWrites() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func (w *WaterHeater) temperatureRange(state *model.EntityState) (float64, float64) {
	min, max := defaultMinTempWaterHeater, defaultMaxTempWaterHeater
	if state.MinTemp != nil {
		min = w.conv.ToHomeKit(*state.MinTemp)
	}
	if state.MaxTemp != nil {
		max = w.conv.ToHomeKit(*state.MaxTemp)
	}
	return translator.RoundToHalf(min), translator.RoundToHalf(max)
}

// SetHeatCool accepts any mode write but normalizes it back to Heat; no other
// mode is reachable through this mapping.
func (w *WaterHeater) SetHeatCool(value int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.log.Debug("set heat-cool", "value", value)
	if value != translator.HeatCoolHeat {
		if w.svc.TargetHeatingCoolingState.Value() != translator.HeatCoolHeat {
			w.svc.TargetHeatingCoolingState.SetValue(translator.HeatCoolHeat)
			w.wrote(CharTargetHeatingCooling, translator.HeatCoolHeat)
		}
	}
}

// SetTargetTemperature issues the outbound set-temperature call
// unconditionally; the entity echoes the result back through update events.
func (w *WaterHeater) SetTargetTemperature(ctx context.Context, value float64) {
	temperature := w.conv.ToState(value)
	w.log.Debug("set target temperature", "value", temperature)
	params := map[string]interface{}{
		paramEntityID:    w.entityID,
		paramTemperature: temperature,
	}
	description := fmt.Sprintf("%.1f%s", temperature, w.conv.Unit())
	if err := w.caller.CallService(ctx, domainWaterHeater, serviceSetTemperature, params, description); err != nil {
		w.log.Warn("service call not accepted", "service", serviceSetTemperature, "error", err)
	}
}

func (w *WaterHeater) UpdateState(state *model.EntityState) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if state.TargetTemperature != nil {
		temperature := w.conv.ToHomeKit(*state.TargetTemperature)
		// Only the target characteristic tracks the temperature attribute;
		// the current-temperature characteristic keeps its initial value.
		// TODO: decide whether current_temperature should follow an entity
		// attribute instead.
		if temperature != w.svc.CurrentTemperature.Value() {
			w.svc.TargetTemperature.SetValue(temperature)
			w.wrote(CharTargetTemperature, temperature)
		}
	}

	if units, ok := translator.UnitToHomeKit(w.conv.Unit()); ok {
		if w.svc.TemperatureDisplayUnits.Value() != units {
			w.svc.TemperatureDisplayUnits.SetValue(units)
			w.wrote(CharDisplayUnits, units)
		}
	}

	if state.State != "" && w.svc.TargetHeatingCoolingState.Value() != translator.HeatCoolHeat {
		w.svc.TargetHeatingCoolingState.SetValue(translator.HeatCoolHeat)
		w.wrote(CharTargetHeatingCooling, translator.HeatCoolHeat)
	}
}

func (w *WaterHeater) wrote(c CharID, value interface{}) {
	w.writes++
	w.log.Debug("characteristic updated", "characteristic", string(c), "value", value)
}
