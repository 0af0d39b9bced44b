package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/brutella/hap/accessory"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/translator"
	"homekit-bridge/internal/ports"
)

// heatCoolDeadband is the separation restored between the heating and cooling
// setpoints when an inbound threshold write crosses the other bound.
const heatCoolDeadband = 5.0

// Default climate entity bounds, in HomeKit Celsius.
const (
	defaultMinTemp     = 7.0
	defaultMaxTemp     = 35.0
	defaultMinHumidity = 30.0
)

// defaultModes is assumed when an entity has not announced its mode list yet.
var defaultModes = []model.HVACMode{
	model.HVACModeHeat,
	model.HVACModeCool,
	model.HVACModeHeatCool,
	model.HVACModeOff,
}

// Thermostat bridges a climate entity onto a HomeKit thermostat service.
type Thermostat struct {
	entityID string
	acc      *accessory.A
	svc      *thermostatService
	conv     translator.Converter

	// reverseModes is fixed at construction and is exactly the valid-values
	// set advertised for the target heating/cooling characteristic.
	reverseModes map[int]model.HVACMode

	states ports.StateProvider
	caller ports.ServiceCaller
	log    *slog.Logger

	// mu serializes the two entry points; state events and HomeKit writes
	// arrive on different goroutines.
	mu     sync.Mutex
	writes int
}

// NewThermostat constructs the bridge from the entity's current snapshot and
// immediately mirrors that snapshot into the characteristics.
func NewThermostat(cfg *model.AccessoryConfig, state *model.EntityState, deps Deps) (*Thermostat, error) {
	conv, err := translator.NewConverter(deps.Unit, cfg.ToHomeKitFormula, cfg.ToStateFormula)
	if err != nil {
		return nil, fmt.Errorf("thermostat %s: %w", cfg.EntityID, err)
	}

	t := &Thermostat{
		entityID: cfg.EntityID,
		conv:     conv,
		states:   deps.States,
		caller:   deps.Caller,
		log:      deps.Log.With("entity_id", cfg.EntityID),
	}

	withRange := state.SupportedFeatures&model.SupportsTargetTemperatureRange != 0
	withHumidity := state.SupportedFeatures&model.SupportsTargetHumidity != 0
	t.svc = newThermostatService(withRange, withHumidity)

	modes := state.HVACModes
	if len(modes) == 0 {
		t.log.Warn("hvac modes not available yet, assuming defaults; consider delaying bridge start until the entity is ready")
		modes = defaultModes
	}
	t.reverseModes = translator.ReverseModeMap(modes)

	valid := make([]int, 0, len(t.reverseModes))
	for v := range t.reverseModes {
		valid = append(valid, v)
	}
	sort.Ints(valid)
	t.svc.TargetHeatingCoolingState.ValidVals = valid

	rawMin, rawMax := t.temperatureRange(state)
	minTemp, maxTemp := translator.ClampRange(rawMin, rawMax)

	// Bounds go in before values; SetValue clamps against the current range.
	// The step stays at the HomeKit default of 0.1 so Fahrenheit conversions
	// keep enough precision; a 0.5 step turns 73°F into 74°F round trips.
	t.svc.CurrentTemperature.SetValue(21.0)
	t.svc.TargetTemperature.SetMinValue(minTemp)
	t.svc.TargetTemperature.SetMaxValue(maxTemp)
	t.svc.TargetTemperature.SetValue(21.0)

	if withRange {
		t.svc.CoolingThresholdTemperature.SetMinValue(minTemp)
		t.svc.CoolingThresholdTemperature.SetMaxValue(maxTemp)
		t.svc.CoolingThresholdTemperature.SetValue(23.0)

		t.svc.HeatingThresholdTemperature.SetMinValue(minTemp)
		t.svc.HeatingThresholdTemperature.SetMaxValue(maxTemp)
		t.svc.HeatingThresholdTemperature.SetValue(19.0)
	}

	if withHumidity {
		minHumidity := defaultMinHumidity
		if state.MinHumidity != nil {
			minHumidity = *state.MinHumidity
		}
		// No maximum: the Home app renders a shifted range when one is set,
		// e.g. a max of 80% shows as 20%-100%.
		t.svc.TargetRelativeHumidity.SetMinValue(minHumidity)
		t.svc.TargetRelativeHumidity.SetValue(50)
		t.svc.CurrentRelativeHumidity.SetValue(50)
	}

	t.acc = accessory.New(accessory.Info{
		Name:         cfg.Name,
		SerialNumber: cfg.EntityID,
		Manufacturer: "Home Assistant",
		Model:        domainClimate,
	}, accessory.TypeThermostat)
	t.acc.AddS(t.svc.S)

	t.svc.TargetHeatingCoolingState.OnValueRemoteUpdate(func(v int) {
		t.SetCharacteristics(context.Background(), CharValues{CharTargetHeatingCooling: float64(v)})
	})
	t.svc.TargetTemperature.OnValueRemoteUpdate(func(v float64) {
		t.SetCharacteristics(context.Background(), CharValues{CharTargetTemperature: v})
	})
	if withRange {
		t.svc.CoolingThresholdTemperature.OnValueRemoteUpdate(func(v float64) {
			t.SetCharacteristics(context.Background(), CharValues{CharCoolingThreshold: v})
		})
		t.svc.HeatingThresholdTemperature.OnValueRemoteUpdate(func(v float64) {
			t.SetCharacteristics(context.Background(), CharValues{CharHeatingThreshold: v})
		})
	}
	if withHumidity {
		t.svc.TargetRelativeHumidity.OnValueRemoteUpdate(func(v float64) {
			t.SetCharacteristics(context.Background(), CharValues{CharTargetHumidity: v})
		})
	}

	t.UpdateState(state)
	return t, nil
}

func (t *Thermostat) EntityID() string        { return t.entityID }
func (t *Thermostat) Accessory() *accessory.A { return t.acc }

func (t *Thermostat) CharacteristicWrites() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}

// temperatureRange returns the entity's advertised bounds in HomeKit units,
// rounded to half-degree steps, with defaults for missing attributes.
func (t *Thermostat) temperatureRange(state *model.EntityState) (float64, float64) {
	min, max := defaultMinTemp, defaultMaxTemp
	if state.MinTemp != nil {
		min = t.conv.ToHomeKit(*state.MinTemp)
	}
	if state.MaxTemp != nil {
		max = t.conv.ToHomeKit(*state.MaxTemp)
	}
	return translator.RoundToHalf(min), translator.RoundToHalf(max)
}

// UpdateState mirrors a snapshot into the characteristics. Each field is
// independently optional; missing attributes leave their characteristic
// untouched. Calling it twice with the same snapshot writes nothing the
// second time.
func (t *Thermostat) UpdateState(state *model.EntityState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Target mode first: the target-temperature derivation below reads it.
	if state.State != "" {
		if hk, err := translator.ModeToHomeKit(model.HVACMode(state.State)); err == nil {
			if t.svc.TargetHeatingCoolingState.Value() != hk {
				t.svc.TargetHeatingCoolingState.SetValue(hk)
				t.wrote(CharTargetHeatingCooling, hk)
			}
		}
	}

	if state.HVACAction != "" {
		if hk, ok := translator.ActionToHomeKit(state.HVACAction); ok {
			if t.svc.CurrentHeatingCoolingState.Value() != hk {
				t.svc.CurrentHeatingCoolingState.SetValue(hk)
				t.wrote(CharCurrentHeatingCooling, hk)
			}
		}
	}

	if state.CurrentTemperature != nil {
		current := t.conv.ToHomeKit(*state.CurrentTemperature)
		if t.svc.CurrentTemperature.Value() != current {
			t.svc.CurrentTemperature.SetValue(current)
			t.wrote(CharCurrentTemperature, current)
		}
	}

	if t.svc.CurrentRelativeHumidity != nil && state.CurrentHumidity != nil {
		if t.svc.CurrentRelativeHumidity.Value() != *state.CurrentHumidity {
			t.svc.CurrentRelativeHumidity.SetValue(*state.CurrentHumidity)
			t.wrote(CharCurrentHumidity, *state.CurrentHumidity)
		}
	}

	if t.svc.TargetRelativeHumidity != nil && state.TargetHumidity != nil {
		if t.svc.TargetRelativeHumidity.Value() != *state.TargetHumidity {
			t.svc.TargetRelativeHumidity.SetValue(*state.TargetHumidity)
			t.wrote(CharTargetHumidity, *state.TargetHumidity)
		}
	}

	if t.svc.CoolingThresholdTemperature != nil && state.TargetTempHigh != nil {
		cooling := t.conv.ToHomeKit(*state.TargetTempHigh)
		// TODO: the change check reads the heating threshold here; both
		// threshold branches key off it today. Confirm against paired
		// controllers before switching the comparison to the cooling value.
		if t.svc.HeatingThresholdTemperature.Value() != cooling {
			t.svc.CoolingThresholdTemperature.SetValue(cooling)
			t.wrote(CharCoolingThreshold, cooling)
		}
	}

	if t.svc.HeatingThresholdTemperature != nil && state.TargetTempLow != nil {
		heating := t.conv.ToHomeKit(*state.TargetTempLow)
		if t.svc.HeatingThresholdTemperature.Value() != heating {
			t.svc.HeatingThresholdTemperature.SetValue(heating)
			t.wrote(CharHeatingThreshold, heating)
		}
	}

	// HomeKit expects a single target temperature even in range mode, so
	// synthesize one from the bound matching the current mode.
	var target float64
	var haveTarget bool
	if state.TargetTemperature != nil {
		target = t.conv.ToHomeKit(*state.TargetTemperature)
		haveTarget = true
	} else if state.SupportedFeatures&model.SupportsTargetTemperatureRange != 0 {
		switch t.svc.TargetHeatingCoolingState.Value() {
		case translator.HeatCoolHeat:
			if state.TargetTempLow != nil {
				target = t.conv.ToHomeKit(*state.TargetTempLow)
				haveTarget = true
			}
		case translator.HeatCoolCool:
			if state.TargetTempHigh != nil {
				target = t.conv.ToHomeKit(*state.TargetTempHigh)
				haveTarget = true
			}
		}
	}
	if haveTarget && target != 0 && t.svc.TargetTemperature.Value() != target {
		t.svc.TargetTemperature.SetValue(target)
		t.wrote(CharTargetTemperature, target)
	}

	if units, ok := translator.UnitToHomeKit(t.conv.Unit()); ok {
		if t.svc.TemperatureDisplayUnits.Value() != units {
			t.svc.TemperatureDisplayUnits.SetValue(units)
			t.wrote(CharDisplayUnits, units)
		}
	}
}

// SetCharacteristics handles an inbound HomeKit write. At most one combined
// climate service call leaves this method, plus one independent humidity
// call; a write that changes nothing is a silent no-op.
func (t *Thermostat) SetCharacteristics(ctx context.Context, values CharValues) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.Debug("homekit write", "values", values)

	state, err := t.states.EntityState(ctx, t.entityID)
	if err != nil {
		t.log.Warn("entity state unavailable, dropping homekit write", "error", err)
		return
	}

	hkMode := -1
	if hk, err := translator.ModeToHomeKit(model.HVACMode(state.State)); err == nil {
		hkMode = hk
	}

	var events []string
	params := map[string]interface{}{}
	var svcName string

	if raw, ok := values[CharTargetHeatingCooling]; ok {
		v := int(raw)
		// HomeKit re-sends the mode when the temperature view opens; ignore
		// writes that echo the entity's current mode.
		if v != hkMode {
			mode, err := translator.ModeFromHomeKit(t.reverseModes, v)
			if err != nil {
				// The valid-values list is derived from the reverse map, so a
				// miss means the declared constraints are out of sync.
				t.log.Error("heating/cooling value outside advertised set", "value", v, "error", err)
			} else {
				svcName = serviceSetHVACMode
				params[paramHVACMode] = string(mode)
				events = append(events, fmt.Sprintf("%s to %d", CharTargetHeatingCooling, v))
			}
		}
	}

	if raw, ok := values[CharTargetTemperature]; ok {
		switch {
		case state.SupportedFeatures&model.SupportsTargetTemperature != 0:
			svcName = serviceSetTemperature
			params[paramTemperature] = t.conv.ToState(raw)
			events = append(events, fmt.Sprintf("%s to %.1f°C", CharTargetTemperature, raw))
		case state.SupportedFeatures&model.SupportsTargetTemperatureRange != 0:
			// HomeKit sends a single target even for range-only entities;
			// fold it into the threshold matching the current mode.
			t.log.Debug("single target temperature on a range-only entity", "value", raw)
			if hkMode == translator.HeatCoolHeat {
				if _, ok := values[CharHeatingThreshold]; !ok {
					values[CharHeatingThreshold] = raw
				}
			}
			if hkMode == translator.HeatCoolCool {
				if _, ok := values[CharCoolingThreshold]; !ok {
					values[CharCoolingThreshold] = raw
				}
			}
		}
	}

	_, hasCool := values[CharCoolingThreshold]
	_, hasHeat := values[CharHeatingThreshold]
	if (hasCool || hasHeat) && t.svc.CoolingThresholdTemperature != nil && t.svc.HeatingThresholdTemperature != nil {
		svcName = serviceSetTemperature
		high := t.svc.CoolingThresholdTemperature.Value()
		low := t.svc.HeatingThresholdTemperature.Value()
		minTemp, maxTemp := t.temperatureRange(state)

		if v, ok := values[CharCoolingThreshold]; ok {
			events = append(events, fmt.Sprintf("%s to %.1f°C", CharCoolingThreshold, v))
			high = v
			if high < low {
				low = high - heatCoolDeadband
			}
		}
		if v, ok := values[CharHeatingThreshold]; ok {
			events = append(events, fmt.Sprintf("%s to %.1f°C", CharHeatingThreshold, v))
			low = v
			if low > high {
				high = low + heatCoolDeadband
			}
		}

		high = math.Min(high, maxTemp)
		low = math.Max(low, minTemp)

		params[paramTargetTempHigh] = t.conv.ToState(high)
		params[paramTargetTempLow] = t.conv.ToState(low)
	}

	if svcName != "" {
		params[paramEntityID] = t.entityID
		if err := t.caller.CallService(ctx, domainClimate, svcName, params, strings.Join(events, ", ")); err != nil {
			t.log.Warn("service call not accepted", "service", svcName, "error", err)
		}
	}

	if v, ok := values[CharTargetHumidity]; ok {
		t.setTargetHumidity(ctx, v)
	}
}

// setTargetHumidity is always dispatched on its own; climate.set_humidity
// cannot be combined with the temperature and mode services.
func (t *Thermostat) setTargetHumidity(ctx context.Context, value float64) {
	t.log.Debug("set target humidity", "value", value)
	params := map[string]interface{}{
		paramEntityID: t.entityID,
		paramHumidity: value,
	}
	if err := t.caller.CallService(ctx, domainClimate, serviceSetHumidity, params, fmt.Sprintf("%.0f%%", value)); err != nil {
		t.log.Warn("service call not accepted", "service", serviceSetHumidity, "error", err)
	}
}

func (t *Thermostat) wrote(c CharID, value interface{}) {
	t.writes++
	t.log.Debug("characteristic updated", "characteristic", string(c), "value", value)
}
