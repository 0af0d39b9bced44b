package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/translator"
)

func waterHeaterConfig() *model.AccessoryConfig {
	return &model.AccessoryConfig{EntityID: "water_heater.boiler", Name: "Boiler"}
}

func waterHeaterSnapshot() *model.EntityState {
	return &model.EntityState{
		EntityID:          "water_heater.boiler",
		State:             "eco",
		TargetTemperature: f(55),
	}
}

func TestNewWaterHeater(t *testing.T) {
	snap := waterHeaterSnapshot()
	caller := &recordingCaller{}

	w, err := NewWaterHeater(waterHeaterConfig(), snap, testDeps(&fakeStates{state: snap}, caller))
	require.NoError(t, err)

	assert.Equal(t, "water_heater.boiler", w.EntityID())
	assert.Equal(t, translator.HeatCoolHeat, w.svc.CurrentHeatingCoolingState.Value())
	assert.Equal(t, translator.HeatCoolHeat, w.svc.TargetHeatingCoolingState.Value())
	assert.Equal(t, []int{translator.HeatCoolHeat}, w.svc.TargetHeatingCoolingState.ValidVals)
	assert.Equal(t, 55.0, w.svc.TargetTemperature.Value())

	// The current-temperature characteristic is not fed from the entity.
	assert.Equal(t, 50.0, w.svc.CurrentTemperature.Value())

	assert.Empty(t, caller.calls)
}

func TestWaterHeater_SetHeatCoolStaysHeat(t *testing.T) {
	snap := waterHeaterSnapshot()
	w, err := NewWaterHeater(waterHeaterConfig(), snap, testDeps(&fakeStates{state: snap}, &recordingCaller{}))
	require.NoError(t, err)

	w.SetHeatCool(translator.HeatCoolOff)
	assert.Equal(t, translator.HeatCoolHeat, w.svc.TargetHeatingCoolingState.Value())

	w.SetHeatCool(translator.HeatCoolAuto)
	assert.Equal(t, translator.HeatCoolHeat, w.svc.TargetHeatingCoolingState.Value())
}

func TestWaterHeater_SetTargetTemperature(t *testing.T) {
	snap := waterHeaterSnapshot()
	caller := &recordingCaller{}
	w, err := NewWaterHeater(waterHeaterConfig(), snap, testDeps(&fakeStates{state: snap}, caller))
	require.NoError(t, err)

	w.SetTargetTemperature(context.Background(), 52.5)

	require.Len(t, caller.calls, 1)
	call := caller.calls[0]
	assert.Equal(t, "water_heater", call.domain)
	assert.Equal(t, "set_temperature", call.service)
	assert.Equal(t, 52.5, call.params["temperature"])
	assert.Equal(t, "water_heater.boiler", call.params["entity_id"])

	// The call goes out even when the value repeats; the entity echoes the
	// accepted value back through the event stream.
	w.SetTargetTemperature(context.Background(), 52.5)
	assert.Len(t, caller.calls, 2)
}

func TestWaterHeater_UpdateState(t *testing.T) {
	snap := waterHeaterSnapshot()
	w, err := NewWaterHeater(waterHeaterConfig(), snap, testDeps(&fakeStates{state: snap}, &recordingCaller{}))
	require.NoError(t, err)

	next := waterHeaterSnapshot()
	next.TargetTemperature = f(58)
	w.UpdateState(next)

	assert.Equal(t, 58.0, w.svc.TargetTemperature.Value())
	assert.Equal(t, 50.0, w.svc.CurrentTemperature.Value())
	assert.Equal(t, translator.HeatCoolHeat, w.svc.TargetHeatingCoolingState.Value())
}

func TestWaterHeater_MinBelowProtocolFloorKept(t *testing.T) {
	snap := waterHeaterSnapshot()
	snap.MinTemp = f(4.7)
	snap.MaxTemp = f(30)
	w, err := NewWaterHeater(waterHeaterConfig(), snap, testDeps(&fakeStates{state: snap}, &recordingCaller{}))
	require.NoError(t, err)

	next := waterHeaterSnapshot()
	next.TargetTemperature = f(5)
	w.UpdateState(next)
	assert.Equal(t, 5.0, w.svc.TargetTemperature.Value())
}

func TestWaterHeater_EntityBounds(t *testing.T) {
	snap := waterHeaterSnapshot()
	snap.MinTemp = f(35)
	snap.MaxTemp = f(75)
	w, err := NewWaterHeater(waterHeaterConfig(), snap, testDeps(&fakeStates{state: snap}, &recordingCaller{}))
	require.NoError(t, err)

	// Values across the widened range stick instead of being clamped to the
	// stock characteristic bounds.
	next := waterHeaterSnapshot()
	next.TargetTemperature = f(72)
	w.UpdateState(next)
	assert.Equal(t, 72.0, w.svc.TargetTemperature.Value())
}
