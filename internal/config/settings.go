package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration, layered from defaults, the settings
// file, BIRTHDAY_LIBERATOR_* environment variables and command flags.
type Settings struct {
	Input      string         `mapstructure:"input" yaml:"input"`
	Output     string         `mapstructure:"output" yaml:"output"`
	Language   string         `mapstructure:"language" yaml:"language"`
	Strict     bool           `mapstructure:"strict" yaml:"strict"`
	StableUIDs bool           `mapstructure:"stable_uids" yaml:"stable_uids"`
	Debug      bool           `mapstructure:"debug" yaml:"debug"`
	Source     SourceSettings `mapstructure:"source" yaml:"source"`
	Server     ServerSettings `mapstructure:"server" yaml:"server"`
}

// SourceSettings describes a remote contact export.
type SourceSettings struct {
	URL  string `mapstructure:"url" yaml:"url"`
	User string `mapstructure:"user" yaml:"user"`
}

// ServerSettings configures the serve command.
type ServerSettings struct {
	Port    string `mapstructure:"port" yaml:"port"`
	Refresh string `mapstructure:"refresh" yaml:"refresh"`
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Output:   DefaultOutput,
		Language: DefaultLanguage,
		Server: ServerSettings{
			Port:    DefaultPort,
			Refresh: DefaultRefresh,
		},
	}
}

// SourceMode reports which input the settings point at. A URL wins over a path.
func (s *Settings) SourceMode() string {
	switch {
	case s.Source.URL != "":
		return SourceModeWeb
	case s.Input != "":
		return SourceModeLocal
	default:
		return SourceModeNone
	}
}

// Validate checks values that would otherwise fail late.
func (s *Settings) Validate() error {
	if !slices.Contains(SupportedLanguages, s.Language) {
		return fmt.Errorf("%s: %q", ErrLanguage, s.Language)
	}
	return ValidatePort(s.Server.Port)
}

// ValidatePort checks that port is a number within the TCP range.
func ValidatePort(port string) error {
	if strings.TrimSpace(port) == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrPortNumber, err)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// Load builds Settings. An empty path searches the working directory and the
// user config directory; a missing file is not an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Every key gets a default so environment variables can reach it.
	def := DefaultSettings()
	v.SetDefault(KeyInput, def.Input)
	v.SetDefault(KeyOutput, def.Output)
	v.SetDefault(KeyLanguage, def.Language)
	v.SetDefault(KeyStrict, def.Strict)
	v.SetDefault(KeyStableUIDs, def.StableUIDs)
	v.SetDefault(KeyDebug, def.Debug)
	v.SetDefault(KeySourceURL, def.Source.URL)
	v.SetDefault(KeySourceUser, def.Source.User)
	v.SetDefault(KeyServerPort, def.Server.Port)
	v.SetDefault(KeyRefresh, def.Server.Refresh)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(SettingsFileName)
		v.SetConfigType(SettingsFileType)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppID))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		}
	} else {
		slog.Debug(MsgSettingsFile,
			LogKeyComponent, CompConfigSet,
			LogKeyFile, v.ConfigFileUsed())
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsDecode, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// flagKeys maps command flags onto settings keys.
var flagKeys = map[string]string{
	FlagInput:      KeyInput,
	FlagOutput:     KeyOutput,
	FlagLang:       KeyLanguage,
	FlagStrict:     KeyStrict,
	FlagStableUIDs: KeyStableUIDs,
	FlagDebug:      KeyDebug,
	FlagURL:        KeySourceURL,
	FlagUser:       KeySourceUser,
	FlagPort:       KeyServerPort,
	FlagRefresh:    KeyRefresh,
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSettingsPath is where `config init` writes when no path is given.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, SettingsFileName+"."+SettingsFileType), nil
}

// Save writes s as YAML, creating the parent directory. The file is written to
// a temporary sibling first and renamed into place.
func Save(path string, s *Settings) error {
	if s == nil {
		return errors.New(ErrSettingsWrite)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".birthday-liberator-*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Chmod(FilePermUserRW); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	return nil
}
