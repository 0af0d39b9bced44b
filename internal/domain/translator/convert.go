package translator

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"homekit-bridge/internal/domain/model"
)

// Converter translates temperatures between the entity's unit and HomeKit's
// Celsius scale. When a formula is configured for a direction it replaces the
// standard conversion for that direction; formulas use the variable x.
type Converter struct {
	unit      model.Unit
	toHomeKit *govaluate.EvaluableExpression
	toState   *govaluate.EvaluableExpression
}

// NewConverter builds a converter for the configured unit. Formula parse
// errors are rejected here so bad config fails at construction.
func NewConverter(unit model.Unit, toHomeKitFormula, toStateFormula string) (Converter, error) {
	c := Converter{unit: unit}
	var err error
	if toHomeKitFormula != "" {
		c.toHomeKit, err = govaluate.NewEvaluableExpression(toHomeKitFormula)
		if err != nil {
			return Converter{}, fmt.Errorf("to_homekit_formula: %w", err)
		}
	}
	if toStateFormula != "" {
		c.toState, err = govaluate.NewEvaluableExpression(toStateFormula)
		if err != nil {
			return Converter{}, fmt.Errorf("to_state_formula: %w", err)
		}
	}
	return c, nil
}

func (c Converter) Unit() model.Unit { return c.unit }

// ToHomeKit converts an entity temperature to HomeKit Celsius.
func (c Converter) ToHomeKit(value float64) float64 {
	if v, ok := evaluate(c.toHomeKit, value); ok {
		return v
	}
	return TemperatureToHomeKit(value, c.unit)
}

// ToState converts a HomeKit Celsius value to an entity temperature.
func (c Converter) ToState(value float64) float64 {
	if v, ok := evaluate(c.toState, value); ok {
		return v
	}
	return TemperatureToState(value, c.unit)
}

func evaluate(expr *govaluate.EvaluableExpression, x float64) (float64, bool) {
	if expr == nil {
		return 0, false
	}
	result, err := expr.Evaluate(map[string]interface{}{"x": x})
	if err != nil {
		return 0, false
	}
	v, ok := result.(float64)
	return v, ok
}
