package translator

import (
	"errors"

	"homekit-bridge/internal/domain/model"
)

// HomeKit heating/cooling state values shared by the current and target
// characteristics.
const (
	HeatCoolOff  = 0
	HeatCoolHeat = 1
	HeatCoolCool = 2
	HeatCoolAuto = 3
)

var (
	// ErrUnknownMode is returned for hvac modes outside the seven known ones.
	ErrUnknownMode = errors.New("translator: unknown hvac mode")
	// ErrUnsupportedValue is returned when a HomeKit heating/cooling value has
	// no entry in the entity's reverse map. The characteristic's valid-values
	// list is built from that map, so hitting this means the two diverged.
	ErrUnsupportedValue = errors.New("translator: heating/cooling value not supported by entity")
)

// modeToHomeKit collapses the seven hvac modes onto the four HomeKit values.
var modeToHomeKit = map[model.HVACMode]int{
	model.HVACModeOff:      HeatCoolOff,
	model.HVACModeHeat:     HeatCoolHeat,
	model.HVACModeCool:     HeatCoolCool,
	model.HVACModeAuto:     HeatCoolAuto,
	model.HVACModeHeatCool: HeatCoolAuto,
	model.HVACModeDry:      HeatCoolCool,
	model.HVACModeFanOnly:  HeatCoolCool,
}

// modeOrder fixes the tie-break order when several supported modes collapse
// onto the same HomeKit value: the later entry wins.
var modeOrder = []model.HVACMode{
	model.HVACModeOff,
	model.HVACModeHeat,
	model.HVACModeCool,
	model.HVACModeAuto,
	model.HVACModeHeatCool,
	model.HVACModeDry,
	model.HVACModeFanOnly,
}

var actionToHomeKit = map[string]int{
	model.HVACActionOff:     HeatCoolOff,
	model.HVACActionIdle:    HeatCoolOff,
	model.HVACActionHeating: HeatCoolHeat,
	model.HVACActionCooling: HeatCoolCool,
	model.HVACActionDrying:  HeatCoolCool,
	model.HVACActionFan:     HeatCoolCool,
}

// ModeToHomeKit maps an hvac mode to its HomeKit heating/cooling value.
func ModeToHomeKit(mode model.HVACMode) (int, error) {
	v, ok := modeToHomeKit[mode]
	if !ok {
		return 0, ErrUnknownMode
	}
	return v, nil
}

// ModeFromHomeKit resolves a HomeKit heating/cooling value through the
// entity-specific reverse map built by ReverseModeMap.
func ModeFromHomeKit(reverse map[int]model.HVACMode, value int) (model.HVACMode, error) {
	m, ok := reverse[value]
	if !ok {
		return "", ErrUnsupportedValue
	}
	return m, nil
}

// ReverseModeMap builds the HomeKit-to-hvac-mode map for an entity from its
// supported mode list. heat_cool is preferred over auto because the HomeKit
// Accessory Protocol describes Auto as heating or cooling toward a target
// range, and cool is preferred over dry and fan_only.
func ReverseModeMap(supported []model.HVACMode) map[int]model.HVACMode {
	set := make(map[model.HVACMode]bool, len(supported))
	for _, m := range supported {
		set[m] = true
	}

	reverse := make(map[int]model.HVACMode)
	for _, m := range modeOrder {
		if !set[m] {
			continue
		}
		if m == model.HVACModeAuto && set[model.HVACModeHeatCool] {
			continue
		}
		if (m == model.HVACModeDry || m == model.HVACModeFanOnly) && set[model.HVACModeCool] {
			continue
		}
		reverse[modeToHomeKit[m]] = m
	}
	return reverse
}

// ActionToHomeKit maps an hvac_action attribute value to the current
// heating/cooling state. Unknown actions report ok=false.
func ActionToHomeKit(action string) (int, bool) {
	v, ok := actionToHomeKit[action]
	return v, ok
}
