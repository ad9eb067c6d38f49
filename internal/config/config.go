package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Reference deployment values
const (
	DefaultDeviceSource = "/sdcard/Pictures/screenshots/"
	DefaultStagingDir   = "pulled_screenshots"
	DefaultBridgePath   = "adb"
	DefaultModel        = "gemini-2.0-flash"
	DefaultAPIKeyEnv    = "GEMINI_API_KEY"
	DefaultPrompt       = "Describe this Android screenshot. Does it appear to be a map of Adelaide?"
)

// Config represents shotcheck configuration options
type Config struct {
	// DeviceSource is the device-side directory that is pulled
	DeviceSource string `yaml:"device_source"`

	// StagingDir is the local directory wiped and repopulated on every run
	StagingDir string `yaml:"staging_dir"`

	// BridgePath is the device bridge executable (adb)
	BridgePath string `yaml:"bridge_path"`

	// DeviceSerial selects a device when several are attached (adb -s)
	DeviceSerial string `yaml:"device_serial"`

	// BridgeTimeout bounds the transfer subprocess (0 = no deadline)
	BridgeTimeout time.Duration `yaml:"bridge_timeout"`

	// Extensions lists the file extensions treated as screenshots
	Extensions []string `yaml:"extensions"`

	// Model is the vision-language model name
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the inference credential
	APIKeyEnv string `yaml:"api_key_env"`

	// InferenceTimeout bounds each model call (0 = no deadline)
	InferenceTimeout time.Duration `yaml:"inference_timeout"`

	// Timeout bounds the whole run (0 = no deadline)
	Timeout time.Duration `yaml:"timeout"`

	// Prompt is sent with every screenshot
	Prompt string `yaml:"prompt"`

	// Keywords must all appear in a response for the screenshot to pass
	Keywords []string `yaml:"keywords"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written
	LogDir string `yaml:"log_dir"`
}

// DefaultConfig returns a Config matching the reference deployment
func DefaultConfig() *Config {
	return &Config{
		DeviceSource:     DefaultDeviceSource,
		StagingDir:       DefaultStagingDir,
		BridgePath:       DefaultBridgePath,
		BridgeTimeout:    2 * time.Minute,
		Extensions:       []string{".png"},
		Model:            DefaultModel,
		APIKeyEnv:        DefaultAPIKeyEnv,
		InferenceTimeout: 60 * time.Second,
		Timeout:          30 * time.Minute,
		Prompt:           DefaultPrompt,
		Keywords:         []string{"adelaide", "map"},
		LogLevel:         "info",
		LogDir:           filepath.Join(".shotcheck", "logs"),
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in YAML ("90s", "2m")
	type yamlConfig struct {
		DeviceSource     string   `yaml:"device_source"`
		StagingDir       string   `yaml:"staging_dir"`
		BridgePath       string   `yaml:"bridge_path"`
		DeviceSerial     string   `yaml:"device_serial"`
		BridgeTimeout    string   `yaml:"bridge_timeout"`
		Extensions       []string `yaml:"extensions"`
		Model            string   `yaml:"model"`
		APIKeyEnv        string   `yaml:"api_key_env"`
		InferenceTimeout string   `yaml:"inference_timeout"`
		Timeout          string   `yaml:"timeout"`
		Prompt           string   `yaml:"prompt"`
		Keywords         []string `yaml:"keywords"`
		LogLevel         string   `yaml:"log_level"`
		LogDir           string   `yaml:"log_dir"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.DeviceSource != "" {
		cfg.DeviceSource = yamlCfg.DeviceSource
	}
	if yamlCfg.StagingDir != "" {
		cfg.StagingDir = yamlCfg.StagingDir
	}
	if yamlCfg.BridgePath != "" {
		cfg.BridgePath = yamlCfg.BridgePath
	}
	if yamlCfg.DeviceSerial != "" {
		cfg.DeviceSerial = yamlCfg.DeviceSerial
	}
	if len(yamlCfg.Extensions) > 0 {
		cfg.Extensions = yamlCfg.Extensions
	}
	if yamlCfg.Model != "" {
		cfg.Model = yamlCfg.Model
	}
	if yamlCfg.APIKeyEnv != "" {
		cfg.APIKeyEnv = yamlCfg.APIKeyEnv
	}
	if yamlCfg.Prompt != "" {
		cfg.Prompt = yamlCfg.Prompt
	}
	if len(yamlCfg.Keywords) > 0 {
		cfg.Keywords = yamlCfg.Keywords
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"bridge_timeout", yamlCfg.BridgeTimeout, &cfg.BridgeTimeout},
		{"inference_timeout", yamlCfg.InferenceTimeout, &cfg.InferenceTimeout},
		{"timeout", yamlCfg.Timeout, &cfg.Timeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s format %q: %w", d.key, d.value, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .shotcheck/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".shotcheck", "config.yaml")
	return LoadConfig(configPath)
}

// Overrides holds CLI flag values. Nil fields were not set on the command line.
type Overrides struct {
	DeviceSource *string
	StagingDir   *string
	BridgePath   *string
	DeviceSerial *string
	Model        *string
	Timeout      *time.Duration
	LogLevel     *string
	LogDir       *string
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(o Overrides) {
	if o.DeviceSource != nil {
		c.DeviceSource = *o.DeviceSource
	}
	if o.StagingDir != nil {
		c.StagingDir = *o.StagingDir
	}
	if o.BridgePath != nil {
		c.BridgePath = *o.BridgePath
	}
	if o.DeviceSerial != nil {
		c.DeviceSerial = *o.DeviceSerial
	}
	if o.Model != nil {
		c.Model = *o.Model
	}
	if o.Timeout != nil {
		c.Timeout = *o.Timeout
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogDir != nil {
		c.LogDir = *o.LogDir
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DeviceSource) == "" {
		return fmt.Errorf("device_source cannot be empty")
	}
	if strings.TrimSpace(c.StagingDir) == "" {
		return fmt.Errorf("staging_dir cannot be empty")
	}
	if strings.TrimSpace(c.BridgePath) == "" {
		return fmt.Errorf("bridge_path cannot be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.APIKeyEnv == "" {
		return fmt.Errorf("api_key_env cannot be empty")
	}
	if strings.TrimSpace(c.Prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	if len(c.Keywords) == 0 {
		return fmt.Errorf("keywords must contain at least one entry")
	}
	for i, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keywords[%d] cannot be blank", i)
		}
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must contain at least one entry")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("invalid extension %q, must start with '.'", ext)
		}
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	// Zero disables a deadline; negative is invalid
	if c.BridgeTimeout < 0 {
		return fmt.Errorf("bridge_timeout must be >= 0, got %v", c.BridgeTimeout)
	}
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("inference_timeout must be >= 0, got %v", c.InferenceTimeout)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	return nil
}

// ResolveAPIKey returns the inference credential named by APIKeyEnv.
// The process environment wins; otherwise the variable is looked up in
// envFile (usually ".env") without modifying the process environment.
// A missing envFile is not an error. An empty result means no credential.
func (c *Config) ResolveAPIKey(envFile string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(c.APIKeyEnv)); v != "" {
		return v, nil
	}
	if envFile == "" {
		return "", nil
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return "", nil
	}

	values, err := godotenv.Read(envFile)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	return strings.TrimSpace(values[c.APIKeyEnv]), nil
}
