package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"dirsync/core/database"
	"dirsync/core/directory"
	"dirsync/core/logger"
	"dirsync/core/server"
	"dirsync/core/storage"
	"dirsync/core/syncoptions"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the dirsync configuration, one section per component.
type Config struct {
	Server   server.Config   `mapstructure:"server"`
	Storage  storage.Config  `mapstructure:"storage"`
	Log      logger.Config   `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
	// Directory is the LDAP destination.
	Directory directory.Config `mapstructure:"directory"`
	// Sync controls task loading, caching and audit logs.
	Sync syncoptions.Config `mapstructure:"sync"`
}

// LoadConfig reads <path>/.env when present, then the environment.
// SERVER_PORT maps to server.port, DIRECTORY_BASE_DN to directory.base_dn.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	registerDefaults(v, reflect.TypeOf(Config{}), "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every section value that cannot work at runtime.
func (c *Config) Validate() error {
	var errs []error
	if !c.Server.IsValidMode() {
		errs = append(errs, fmt.Errorf("server.mode %q must be %s or %s", c.Server.Mode, server.ModePlan, server.ModeApply))
	}
	switch c.Sync.TaskSource {
	case syncoptions.TaskSourceDir, syncoptions.TaskSourceStorage:
	default:
		errs = append(errs, fmt.Errorf("sync.task_source %q must be %s or %s", c.Sync.TaskSource, syncoptions.TaskSourceDir, syncoptions.TaskSourceStorage))
	}
	if c.Directory.PageSize < 0 {
		errs = append(errs, fmt.Errorf("directory.page_size must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// registerDefaults walks the mapstructure tags of t and sets each leaf's
// default tag in v. Every leaf is registered, even with an empty default,
// so AutomaticEnv can resolve it during Unmarshal.
func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, field.Type, key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
