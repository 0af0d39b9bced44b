package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"homekit-bridge/internal/domain/model"
)

func TestTemperatureToHomeKit(t *testing.T) {
	assert.Equal(t, 21.5, TemperatureToHomeKit(21.5, model.UnitCelsius))
	assert.Equal(t, 21.5, TemperatureToHomeKit(21.3, model.UnitCelsius))
	assert.Equal(t, 22.0, TemperatureToHomeKit(72, model.UnitFahrenheit))
	assert.Equal(t, 21.5, TemperatureToHomeKit(71, model.UnitFahrenheit))
}

func TestTemperatureToState(t *testing.T) {
	assert.Equal(t, 21.5, TemperatureToState(21.5, model.UnitCelsius))
	assert.Equal(t, 71.5, TemperatureToState(22.0, model.UnitFahrenheit))
}

func TestTemperatureRoundTripWithinHalfStep(t *testing.T) {
	for _, unit := range []model.Unit{model.UnitCelsius, model.UnitFahrenheit} {
		for _, v := range []float64{0, 18.5, 21.3, 50, 68, 72, 104} {
			back := TemperatureToState(TemperatureToHomeKit(v, unit), unit)
			assert.InDelta(t, v, back, 0.5, "unit %s value %v", unit, v)
		}
	}
}

func TestRoundToHalf(t *testing.T) {
	assert.Equal(t, 21.0, RoundToHalf(21.2))
	assert.Equal(t, 21.5, RoundToHalf(21.3))
	assert.Equal(t, 21.5, RoundToHalf(21.7))
	assert.Equal(t, 22.0, RoundToHalf(21.8))
	assert.Equal(t, -3.5, RoundToHalf(-3.4))
}

func TestClampRange(t *testing.T) {
	min, max := ClampRange(4.7, 32.3)
	assert.Equal(t, MinTemperature, min)
	assert.Equal(t, 32.5, max)

	min, max = ClampRange(19.2, 23.8)
	assert.Equal(t, 19.0, min)
	assert.Equal(t, 24.0, max)

	// Only the floor is enforced; a high maximum passes through.
	min, max = ClampRange(5, 50)
	assert.Equal(t, MinTemperature, min)
	assert.Equal(t, 50.0, max)
}

func TestConverterStandardConversion(t *testing.T) {
	c, err := NewConverter(model.UnitFahrenheit, "", "")
	assert.NoError(t, err)
	assert.Equal(t, model.UnitFahrenheit, c.Unit())
	assert.Equal(t, 22.0, c.ToHomeKit(72))
	assert.Equal(t, 71.5, c.ToState(22.0))
}

func TestConverterFormulasOverrideConversion(t *testing.T) {
	c, err := NewConverter(model.UnitCelsius, "x / 10", "x * 10")
	assert.NoError(t, err)
	assert.Equal(t, 21.5, c.ToHomeKit(215))
	assert.Equal(t, 215.0, c.ToState(21.5))
}

func TestConverterRejectsBadFormula(t *testing.T) {
	_, err := NewConverter(model.UnitCelsius, "x +", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "to_homekit_formula")

	_, err = NewConverter(model.UnitCelsius, "", "((x")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "to_state_formula")
}
