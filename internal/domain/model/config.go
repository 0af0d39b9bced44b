package model

import "fmt"

// AccessoryConfig maps one Home Assistant entity onto a HomeKit accessory.
type AccessoryConfig struct {
	EntityID string `yaml:"entity_id"`
	Name     string `yaml:"name,omitempty"` // displayed in the Home app; defaults to the entity id

	// Optional value transforms applied instead of the standard unit
	// conversion, for devices that report on a non-standard scale.
	// Formulas use the variable x, e.g. "x / 10".
	ToHomeKitFormula string `yaml:"to_homekit_formula,omitempty"`
	ToStateFormula   string `yaml:"to_state_formula,omitempty"`
}

type Config struct {
	HassURL   string `yaml:"hass_url"`
	HassToken string `yaml:"hass_token"`

	BridgeName string `yaml:"bridge_name"`
	Pin        string `yaml:"pin"`
	StoreDir   string `yaml:"store_dir"`
	StatusAddr string `yaml:"status_addr"`

	TemperatureUnit string `yaml:"temperature_unit"`

	Accessories []*AccessoryConfig `yaml:"accessories"`
}

// ApplyDefaults fills in the optional fields.
func (c *Config) ApplyDefaults() {
	if c.BridgeName == "" {
		c.BridgeName = "Climate Bridge"
	}
	if c.Pin == "" {
		c.Pin = "00102003"
	}
	if c.StoreDir == "" {
		c.StoreDir = "./data"
	}
	if c.TemperatureUnit == "" {
		c.TemperatureUnit = string(UnitCelsius)
	}
	for _, a := range c.Accessories {
		if a.Name == "" {
			a.Name = a.EntityID
		}
	}
}

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	if c.HassURL == "" {
		return fmt.Errorf("hass_url is required")
	}
	if c.HassToken == "" {
		return fmt.Errorf("hass_token is required")
	}
	if len(c.Accessories) == 0 {
		return fmt.Errorf("at least one accessory is required")
	}
	for _, a := range c.Accessories {
		if a.EntityID == "" {
			return fmt.Errorf("accessory with empty entity_id")
		}
	}
	if _, err := ParseUnit(c.TemperatureUnit); err != nil {
		return err
	}
	return nil
}
