package homeassistant

import "homekit-bridge/internal/domain/model"

// rawState is the wire shape of a Home Assistant state object.
type rawState struct {
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Climate and water_heater attribute names.
const (
	attrSupportedFeatures  = "supported_features"
	attrCurrentTemperature = "current_temperature"
	attrTemperature        = "temperature"
	attrTargetTempHigh     = "target_temp_high"
	attrTargetTempLow      = "target_temp_low"
	attrCurrentHumidity    = "current_humidity"
	attrHumidity           = "humidity"
	attrMinHumidity        = "min_humidity"
	attrMinTemp            = "min_temp"
	attrMaxTemp            = "max_temp"
	attrHVACAction         = "hvac_action"
	attrHVACModes          = "hvac_modes"
)

// parseEntityState validates the open-ended attribute bag once, at the
// boundary. Absent or non-numeric attributes come out as nil.
func parseEntityState(entityID, state string, attrs map[string]interface{}) *model.EntityState {
	s := &model.EntityState{
		EntityID: entityID,
		State:    state,

		CurrentTemperature: floatAttr(attrs, attrCurrentTemperature),
		TargetTemperature:  floatAttr(attrs, attrTemperature),
		TargetTempHigh:     floatAttr(attrs, attrTargetTempHigh),
		TargetTempLow:      floatAttr(attrs, attrTargetTempLow),
		CurrentHumidity:    floatAttr(attrs, attrCurrentHumidity),
		TargetHumidity:     floatAttr(attrs, attrHumidity),
		MinHumidity:        floatAttr(attrs, attrMinHumidity),
		MinTemp:            floatAttr(attrs, attrMinTemp),
		MaxTemp:            floatAttr(attrs, attrMaxTemp),
	}

	if v := floatAttr(attrs, attrSupportedFeatures); v != nil {
		s.SupportedFeatures = uint32(*v)
	}
	if v, ok := attrs[attrHVACAction].(string); ok {
		s.HVACAction = v
	}
	if list, ok := attrs[attrHVACModes].([]interface{}); ok {
		for _, m := range list {
			if mode, ok := m.(string); ok {
				s.HVACModes = append(s.HVACModes, model.HVACMode(mode))
			}
		}
	}
	return s
}

func floatAttr(attrs map[string]interface{}, key string) *float64 {
	switch v := attrs[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}
