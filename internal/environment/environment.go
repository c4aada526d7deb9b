// Package environment loads .env files and fills structs from environment variables.
package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"time"

	"github.com/joho/godotenv"
)

// LoadPath loads variables from the .env file at p.
// A missing file is not an error. Variables already set in the process
// environment are not overridden.
func LoadPath(p string) error {
	if err := godotenv.Load(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", p, err)
	}
	return nil
}

// Key joins prefix and key with an underscore. An empty prefix returns key.
func Key(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return fmt.Sprintf("%s_%s", prefix, key)
}

// ParseEnvTags fills cfg (a pointer to a struct) from environment variables
// named by `env` struct tags, prefixed with prefix.
//
// Precedence: a set environment variable wins; otherwise a field that already
// holds a non-zero value is kept; otherwise the `default` tag applies.
// Supported field types are string and time.Duration.
func ParseEnvTags(prefix string, cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return errors.New("cfg must be a pointer to a struct")
	}

	v = v.Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		envKey := fieldType.Tag.Get("env")
		if envKey == "" {
			continue
		}

		ek := Key(prefix, envKey)
		value, ok := os.LookupEnv(ek)
		if !ok || value == "" {
			if !field.IsZero() {
				continue
			}
			value = fieldType.Tag.Get("default")
		}

		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("error setting field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFieldValue(field reflect.Value, value string) error {
	if value == "" {
		return nil
	}

	switch {
	case field.Kind() == reflect.String:
		field.SetString(value)
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("cannot parse duration: %w", err)
		}
		field.SetInt(int64(d))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}
