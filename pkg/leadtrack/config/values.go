package config

// Values wraps a map[string]any decoded from a config file for
// type-safe value extraction. All accessors return the default value if
// the key is missing or the value cannot be converted.
type Values struct {
	data map[string]any
}

// NewValues creates Values from the given map.
// If data is nil, empty Values are returned.
func NewValues(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (v Values) String(key, defaultVal string) string {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (v Values) Bool(key string, defaultVal bool) bool {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	if b, ok := raw.(bool); ok {
		return b
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not convertible.
//
// Accepts:
//   - float64: used directly
//   - int: converted to float64
//   - int64: converted to float64
func (v Values) Float(key string, defaultVal float64) float64 {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	switch val := raw.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Section returns the nested map under key as Values.
// A missing or non-map key yields empty Values.
func (v Values) Section(key string) Values {
	raw, ok := v.data[key]
	if !ok {
		return NewValues(nil)
	}
	if m, ok := raw.(map[string]any); ok {
		return NewValues(m)
	}
	return NewValues(nil)
}

// Has returns true if the key exists.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}
