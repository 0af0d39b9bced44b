package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"homekit-bridge/internal/domain/model"
)

type mockHomeAssistant struct {
	mock.Mock
}

func (m *mockHomeAssistant) EntityState(ctx context.Context, entityID string) (*model.EntityState, error) {
	args := m.Called(ctx, entityID)
	state, _ := args.Get(0).(*model.EntityState)
	return state, args.Error(1)
}

func (m *mockHomeAssistant) CallService(ctx context.Context, domain, service string, params map[string]interface{}, description string) error {
	args := m.Called(ctx, domain, service, params, description)
	return args.Error(0)
}

type fakeAIDStore struct {
	ids  map[string]uint64
	next uint64
}

func newFakeAIDStore() *fakeAIDStore {
	return &fakeAIDStore{ids: map[string]uint64{}, next: 1}
}

func (s *fakeAIDStore) AccessoryID(entityID string) (uint64, error) {
	if id, ok := s.ids[entityID]; ok {
		return id, nil
	}
	s.next++
	s.ids[entityID] = s.next
	return s.next, nil
}

func f(v float64) *float64 { return &v }

func climateSnapshot(entityID string) *model.EntityState {
	return &model.EntityState{
		EntityID:           entityID,
		State:              string(model.HVACModeHeat),
		SupportedFeatures:  model.SupportsTargetTemperature,
		CurrentTemperature: f(21),
		TargetTemperature:  f(22),
		HVACModes:          []model.HVACMode{model.HVACModeHeat, model.HVACModeOff},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild(t *testing.T) {
	ha := &mockHomeAssistant{}
	ha.On("EntityState", mock.Anything, "climate.living_room").Return(climateSnapshot("climate.living_room"), nil)
	ha.On("EntityState", mock.Anything, "water_heater.boiler").Return(&model.EntityState{
		EntityID:          "water_heater.boiler",
		State:             "eco",
		TargetTemperature: f(55),
	}, nil)
	ha.On("EntityState", mock.Anything, "climate.kitchen").Return(nil, errors.New("entity not found"))

	svc := NewBridgeService(ha, ha, newFakeAIDStore(), model.UnitCelsius, testLogger())

	err := svc.Build(context.Background(), []*model.AccessoryConfig{
		{EntityID: "climate.living_room", Name: "Living Room"},
		{EntityID: "light.desk", Name: "Desk"},         // no bridge for the domain
		{EntityID: "climate.kitchen", Name: "Kitchen"}, // state unavailable
		{EntityID: "water_heater.boiler", Name: "Boiler"},
	})
	require.NoError(t, err)

	bridges := svc.Bridges()
	require.Len(t, bridges, 2)
	assert.Equal(t, "climate.living_room", bridges[0].EntityID())
	assert.Equal(t, "water_heater.boiler", bridges[1].EntityID())

	accs := svc.Accessories()
	require.Len(t, accs, 2)
	assert.Equal(t, uint64(2), accs[0].Id)
	assert.Equal(t, uint64(3), accs[1].Id)

	ha.AssertExpectations(t)
}

func TestBuild_FailsWhenNothingBridged(t *testing.T) {
	ha := &mockHomeAssistant{}
	ha.On("EntityState", mock.Anything, mock.Anything).Return(nil, errors.New("unreachable"))

	svc := NewBridgeService(ha, ha, newFakeAIDStore(), model.UnitCelsius, testLogger())
	err := svc.Build(context.Background(), []*model.AccessoryConfig{
		{EntityID: "climate.living_room", Name: "Living Room"},
	})
	assert.Error(t, err)
}

func TestBuild_StableAccessoryIDs(t *testing.T) {
	ha := &mockHomeAssistant{}
	ha.On("EntityState", mock.Anything, "climate.living_room").Return(climateSnapshot("climate.living_room"), nil)

	aids := newFakeAIDStore()
	aids.ids["climate.living_room"] = 7
	aids.next = 7

	svc := NewBridgeService(ha, ha, aids, model.UnitCelsius, testLogger())
	err := svc.Build(context.Background(), []*model.AccessoryConfig{
		{EntityID: "climate.living_room", Name: "Living Room"},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(7), svc.Accessories()[0].Id)
}

func TestHandleStateChanged(t *testing.T) {
	ha := &mockHomeAssistant{}
	ha.On("EntityState", mock.Anything, "climate.living_room").Return(climateSnapshot("climate.living_room"), nil)

	svc := NewBridgeService(ha, ha, newFakeAIDStore(), model.UnitCelsius, testLogger())
	err := svc.Build(context.Background(), []*model.AccessoryConfig{
		{EntityID: "climate.living_room", Name: "Living Room"},
	})
	require.NoError(t, err)

	b := svc.Bridges()[0]
	before := b.CharacteristicWrites()

	next := climateSnapshot("climate.living_room")
	next.TargetTemperature = f(24)
	svc.HandleStateChanged("climate.living_room", next)
	assert.Greater(t, b.CharacteristicWrites(), before)

	// Events for unknown entities and removals are ignored.
	svc.HandleStateChanged("climate.somewhere_else", next)
	svc.HandleStateChanged("climate.living_room", nil)
}
