package lib

import "reflect"
import "strings"

// Settings map of settings parameters. Keys are dotted names, like
// "pool0.maxchunk", so that settings for several components can be mixed
// into one map and carved out by prefix.
type Settings map[string]interface{}

// Section will create a new settings object with parameters
// starting with `prefix`.
func (setts Settings) Section(prefix string) Settings {
	section := make(Settings)
	for key, value := range setts {
		if strings.HasPrefix(key, prefix) {
			section[key] = value
		}
	}
	return section
}

// Trim settings parameter with `prefix` string.
func (setts Settings) Trim(prefix string) Settings {
	trimmed := make(Settings)
	for key, value := range setts {
		trimmed[strings.TrimPrefix(key, prefix)] = value
	}
	return trimmed
}

// Filter settings paramters that contain `subs`.
func (setts Settings) Filter(subs string) Settings {
	subsetts := make(Settings)
	for key, value := range setts {
		if strings.Contains(key, subs) {
			subsetts[key] = value
		}
	}
	return subsetts
}

// AddPrefix return a new settings object with every key prefixed by
// `prefix`.
func (setts Settings) AddPrefix(prefix string) Settings {
	prefixed := make(Settings)
	for key, value := range setts {
		prefixed[prefix+key] = value
	}
	return prefixed
}

// Clone return a shallow copy of settings.
func (setts Settings) Clone() Settings {
	return make(Settings).Mixin(setts)
}

// Mixin settings to override `setts` with `settings`.
func (setts Settings) Mixin(settings ...interface{}) Settings {
	update := func(arg map[string]interface{}) {
		for key, value := range arg {
			setts[key] = value
		}
	}
	for _, arg := range settings {
		switch cnf := arg.(type) {
		case Settings:
			update(map[string]interface{}(cnf))
		case map[string]interface{}:
			update(cnf)
		}
	}
	return setts
}

// Int64 return the value for key as int64, value can be of any numeric
// type, floats are truncated.
func (setts Settings) Int64(key string) int64 {
	rv := setts.number(key)
	switch {
	case rv.CanInt():
		return rv.Int()
	case rv.CanUint():
		return int64(rv.Uint())
	}
	return int64(rv.Float())
}

// Uint64 return the value for key as uint64, value can be of any numeric
// type, floats are truncated.
func (setts Settings) Uint64(key string) uint64 {
	rv := setts.number(key)
	switch {
	case rv.CanInt():
		return uint64(rv.Int())
	case rv.CanUint():
		return rv.Uint()
	}
	return uint64(rv.Float())
}

// String return the string value for key.
func (setts Settings) String(key string) string {
	value := setts.lookup(key)
	val, ok := value.(string)
	if !ok {
		panicerr("settings %q not a string: %T", key, value)
	}
	return val
}

func (setts Settings) lookup(key string) interface{} {
	value, ok := setts[key]
	if !ok {
		panicerr("missing settings %q", key)
	}
	return value
}

// number return the reflected value for key, panics if it is not an
// integer or a float.
func (setts Settings) number(key string) reflect.Value {
	value := setts.lookup(key)
	rv := reflect.ValueOf(value)
	if !rv.CanInt() && !rv.CanUint() && !rv.CanFloat() {
		panicerr("settings %q not a number: %T", key, value)
	}
	return rv
}
