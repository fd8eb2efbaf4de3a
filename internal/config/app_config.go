package config

import (
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
	"github.com/go-errors/errors"
	"github.com/imdario/mergo"
	yaml "github.com/jesseduffield/yaml"
)

// formats understood by the CLI when printing blocks
const (
	FormatHex = "hex"
	FormatDec = "dec"
	FormatBin = "bin"
	FormatB32 = "b32"
)

// AppConfig contains the base configuration fields required for sdes.
type AppConfig struct {
	Debug       bool   `long:"debug" env:"DEBUG" default:"false"`
	Version     string `long:"version" env:"VERSION" default:"unversioned"`
	Commit      string `long:"commit" env:"COMMIT"`
	BuildDate   string `long:"build-date" env:"BUILD_DATE"`
	Name        string `long:"name" env:"NAME" default:"sdes"`
	BuildSource string `long:"build-source" env:"BUILD_SOURCE" default:""`
	UserConfig  *UserConfig
	ConfigDir   string
}

// UserConfig holds the user-configurable options, read from config.yml in the config directory. Flags given on the command line take precedence.
type UserConfig struct {
	// Key is the 9-bit master key used when --key is not given
	Key uint16 `yaml:"key,omitempty"`

	// Rounds is the number of Feistel rounds, between 1 and 9
	Rounds int `yaml:"rounds,omitempty"`

	// Format is how blocks are printed: hex, dec, bin or b32
	Format string `yaml:"format,omitempty"`
}

// GetDefaultConfig returns the application default configuration
// NOTE: a default must be a zero value wherever zero is a meaningful setting, since defaults are merged over the user's zero fields
func GetDefaultConfig() UserConfig {
	return UserConfig{
		Key:    0,
		Rounds: 4,
		Format: FormatHex,
	}
}

// Validate reports the first out-of-range option
func (c *UserConfig) Validate() error {
	if c.Key > 0x1ff {
		return errors.Errorf("key %#x is wider than 9 bits", c.Key)
	}
	if c.Rounds < 1 || c.Rounds > 9 {
		return errors.Errorf("rounds must be between 1 and 9, got %d", c.Rounds)
	}
	switch c.Format {
	case FormatHex, FormatDec, FormatBin, FormatB32:
	default:
		return errors.Errorf("unknown format %q", c.Format)
	}
	return nil
}

// NewAppConfig makes a new app config. An empty configDir means the
// CONFIG_DIR environment variable, then the XDG config home.
func NewAppConfig(name, version, commit, date string, buildSource string, debuggingFlag bool, configDir string) (*AppConfig, error) {
	configDir, err := findOrCreateConfigDir(name, configDir)
	if err != nil {
		return nil, err
	}

	userConfig, err := loadUserConfigWithDefaults(configDir)
	if err != nil {
		return nil, err
	}

	appConfig := &AppConfig{
		Name:        name,
		Version:     version,
		Commit:      commit,
		BuildDate:   date,
		Debug:       debuggingFlag || os.Getenv("DEBUG") == "TRUE",
		BuildSource: buildSource,
		UserConfig:  userConfig,
		ConfigDir:   configDir,
	}

	return appConfig, nil
}

func findOrCreateConfigDir(projectName string, configDir string) (string, error) {
	if configDir == "" {
		configDir = os.Getenv("CONFIG_DIR")
	}
	if configDir == "" {
		configDir = xdg.New("gosuda", projectName).ConfigHome()
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", errors.Wrap(err, 0)
	}

	return configDir, nil
}

func loadUserConfigWithDefaults(configDir string) (*UserConfig, error) {
	config, err := loadUserConfig(configDir, &UserConfig{})
	if err != nil {
		return nil, err
	}

	if err := mergo.Merge(config, GetDefaultConfig()); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return config, nil
}

func loadUserConfig(configDir string, base *UserConfig) (*UserConfig, error) {
	fileName := filepath.Join(configDir, "config.yml")

	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			file, err := os.Create(fileName)
			if err != nil {
				return nil, errors.Wrap(err, 0)
			}
			file.Close()
		} else {
			return nil, errors.Wrap(err, 0)
		}
	}

	content, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	if err := yaml.Unmarshal(content, base); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return base, nil
}

// WriteToUserConfig allows you to set a value on the user config to be saved
// note that if you set a zero-value, it may be ignored e.g. a 0 key or empty format
// this is because we are using the omitempty yaml directive so that we don't write a heap
// of zero values to the user's config.yml
func (c *AppConfig) WriteToUserConfig(updateConfig func(*UserConfig) error) error {
	userConfig, err := loadUserConfig(c.ConfigDir, &UserConfig{})
	if err != nil {
		return err
	}

	if err := updateConfig(userConfig); err != nil {
		return err
	}

	out, err := yaml.Marshal(userConfig)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	if err := os.WriteFile(c.ConfigFilename(), out, 0o666); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

// ConfigFilename returns the filename of the current config file
func (c *AppConfig) ConfigFilename() string {
	return filepath.Join(c.ConfigDir, "config.yml")
}
