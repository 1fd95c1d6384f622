// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yaml"
	ConfigDirName  = "blobnav"
	EnvPrefix      = "BLOBNAV"
)

type AzureConfig struct {
	// Full storage connection string, e.g. "UseDevelopmentStorage=true" for Azurite
	ConnectionString string `mapstructure:"connection_string"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	// Custom endpoint (LocalStack, MinIO); empty uses the AWS default resolver
	Endpoint     string `mapstructure:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type GCPConfig struct {
	Project string `mapstructure:"project"`
	// host:port of a fake-gcs-server style emulator
	EmulatorHost    string `mapstructure:"emulator_host" validate:"omitempty,hostname_port"`
	CredentialsFile string `mapstructure:"credentials_file" validate:"omitempty,filepath"`
}

type LocalConfig struct {
	Root string `mapstructure:"root"`
}

type Config struct {
	Azure AzureConfig `mapstructure:"azure"`
	AWS   AWSConfig   `mapstructure:"aws"`
	GCP   GCPConfig   `mapstructure:"gcp"`
	Local LocalConfig `mapstructure:"local"`
}

type keyKind int

const (
	kindString keyKind = iota
	kindBool
)

// Every settable key and its value type. Keys double as viper defaults so that
// BLOBNAV_* environment variables are picked up by Unmarshal.
var knownKeys = map[string]keyKind{
	"azure.connection_string": kindString,
	"aws.region":              kindString,
	"aws.endpoint":            kindString,
	"aws.use_path_style":      kindBool,
	"gcp.project":             kindString,
	"gcp.emulator_host":       kindString,
	"gcp.credentials_file":    kindString,
	"local.root":              kindString,
}

// Keys whose values are never echoed back in full
var secretKeys = map[string]bool{
	"azure.connection_string": true,
}

// ConfigManager owns the viper instance and the YAML file behind it
type ConfigManager struct {
	v        *viper.Viper
	path     string
	validate *validator.Validate
}

// Creates a manager for the config file at path. An empty path resolves to
// ~/.config/blobnav/config.yaml.
func NewConfigManager(path string) (*ConfigManager, error) {
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	m := &ConfigManager{
		path:     path,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

func defaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", ConfigDirName, ConfigFileName), nil
}

func (m *ConfigManager) reload() error {
	v := viper.New()
	v.SetConfigFile(m.path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, kind := range knownKeys {
		if kind == kindBool {
			v.SetDefault(key, false)
		} else {
			v.SetDefault(key, "")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file %s: %w", m.path, err)
		}
	}

	m.v = v
	return nil
}

func (m *ConfigManager) Path() string {
	return m.path
}

// Decodes and validates the effective configuration (file + environment)
func (m *ConfigManager) LoadConfig() (*Config, error) {
	var cfg Config
	err := m.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := m.validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (m *ConfigManager) SetValue(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return unknownKeyError(key)
	}

	var typed interface{} = value
	if kind == kindBool {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("value for %s must be a boolean: %w", key, err)
		}
		typed = b
	}

	raw, err := m.readFile()
	if err != nil {
		return err
	}
	section, field := splitKey(key)
	sub, _ := raw[section].(map[string]interface{})
	if sub == nil {
		sub = make(map[string]interface{})
	}
	sub[field] = typed
	raw[section] = sub

	return m.writeFile(raw)
}

// Returns the effective value of key and whether it is set. Empty strings and false
// booleans count as unset.
func (m *ConfigManager) GetValue(key string) (string, bool) {
	kind, ok := knownKeys[key]
	if !ok {
		return "", false
	}
	if kind == kindBool && !m.v.GetBool(key) {
		return "", false
	}
	value := m.v.GetString(key)
	return value, value != ""
}

// Removes key from the config file. Reports false if the file did not set it.
func (m *ConfigManager) DeleteValue(key string) (bool, error) {
	if _, ok := knownKeys[key]; !ok {
		return false, unknownKeyError(key)
	}

	raw, err := m.readFile()
	if err != nil {
		return false, err
	}
	section, field := splitKey(key)
	sub, _ := raw[section].(map[string]interface{})
	if _, exists := sub[field]; !exists {
		return false, nil
	}

	delete(sub, field)
	if len(sub) == 0 {
		delete(raw, section)
	}
	if err := m.writeFile(raw); err != nil {
		return false, err
	}
	return true, nil
}

func IsSecretKey(key string) bool {
	return secretKeys[key]
}

func SupportedKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	return keys
}

func (m *ConfigManager) readFile() (map[string]interface{}, error) {
	raw := make(map[string]interface{})

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if raw == nil {
		raw = make(map[string]interface{})
	}
	return raw, nil
}

func (m *ConfigManager) writeFile(raw map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	// The file may hold connection strings
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return m.reload()
}

func splitKey(key string) (string, string) {
	parts := strings.SplitN(key, ".", 2)
	return parts[0], parts[1]
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %s. Use format like 'provider.key' (e.g., 'aws.region')", key)
}
