package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaiStephens/lockInRecorder/internal/logging"
)

// envPrefix namespaces every environment override, e.g. LOCKINRECORDER_PORT.
const envPrefix = "LOCKINRECORDER_"

// LoadConfig fills the options struct from the TOML config file and the
// environment. Precedence is CLI flag > environment > file > struct
// default: fields whose flag was set on the command line are never
// touched, and the environment pass runs after the file pass.
//
// Fields opt in per source through tags: `toml:"section.key"` for the
// file, `env:"KEY"` for the environment. The file path itself comes from
// the struct's Config field.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	locked := lockedFlags(cmd)

	if path := configPath(v, t); path != "" {
		if err := applyFile(v, t, path, locked); err != nil {
			return err
		}
	}

	applyEnv(v, t, locked)
	return nil
}

// lockedFlags collects the names of flags the user set explicitly.
func lockedFlags(cmd *cobra.Command) map[string]bool {
	locked := make(map[string]bool)
	if cmd == nil {
		return locked
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			locked[f.Name] = true
		}
	})
	return locked
}

// configPath returns the value of the struct's Config field.
func configPath(v reflect.Value, t reflect.Type) string {
	for i := range t.NumField() {
		if t.Field(i).Name == "Config" {
			return v.Field(i).String()
		}
	}
	return ""
}

// applyFile overlays values from the TOML file onto unlocked fields.
// A missing file is not an error, a malformed one is.
func applyFile(v reflect.Value, t reflect.Type, path string, locked map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var file map[string]any
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}

	for i := range t.NumField() {
		field := t.Field(i)
		if locked[fieldNameToFlag(field.Name)] {
			continue
		}
		tomlPath := field.Tag.Get("toml")
		if tomlPath == "" {
			continue
		}
		if value := getNestedValue(file, tomlPath); value != nil {
			setFieldValue(v.Field(i), value)
		}
	}
	return nil
}

// applyEnv overlays prefixed environment variables onto unlocked fields.
func applyEnv(v reflect.Value, t reflect.Type, locked map[string]bool) {
	for i := range t.NumField() {
		field := t.Field(i)
		if locked[fieldNameToFlag(field.Name)] {
			continue
		}
		envKey := field.Tag.Get("env")
		if envKey == "" {
			continue
		}
		if value := os.Getenv(envPrefix + envKey); value != "" {
			setFieldValueFromString(v.Field(i), value)
		}
	}
}

// fieldNameToFlag converts a struct field name to its kebab-case flag
// name, matching how humacli derives flag names. "LoggingLevel" becomes
// "logging-level".
func fieldNameToFlag(fieldName string) string {
	var b strings.Builder
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// getNestedValue walks a dotted path into nested TOML tables.
func getNestedValue(data map[string]any, path string) any {
	keys := strings.Split(path, ".")
	for _, key := range keys[:len(keys)-1] {
		table, ok := data[key].(map[string]any)
		if !ok {
			return nil
		}
		data = table
	}
	return data[keys[len(keys)-1]]
}

// setFieldValue assigns a decoded TOML value to a struct field, coercing
// the handful of kinds the options structs use.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		}
	case reflect.Float64:
		// TOML decodes 5 as int64 and 5.0 as float64, accept both
		switch n := value.(type) {
		case float64:
			field.SetFloat(n)
		case int64:
			field.SetFloat(float64(n))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		arr, ok := value.([]any)
		if !ok {
			return
		}
		out := make([]string, len(arr))
		for i, item := range arr {
			if s, ok := item.(string); ok {
				out[i] = s
			}
		}
		field.Set(reflect.ValueOf(out))
	}
}

// setFieldValueFromString assigns an environment variable string to a
// struct field. Values that fail to parse leave the field unchanged.
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(f)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		parts := strings.Split(value, ",")
		out := make([]string, len(parts))
		for i, part := range parts {
			out[i] = strings.TrimSpace(part)
		}
		field.Set(reflect.ValueOf(out))
	}
}

// LoadLoggingConfig reads the [logging] table from the config file,
// returning defaults when the file is absent or unreadable. The level
// and format keys are reserved, any other key is a per-module level
// override.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}

	if configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var file struct {
		Logging map[string]string `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return cfg
	}

	for key, value := range file.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		default:
			cfg.Modules[key] = value
		}
	}

	return cfg
}
