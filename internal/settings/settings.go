package settings

import (
	"time"

	"github.com/spf13/viper"

	"github.com/thoreinstein/confkeep/internal/errors"
	"github.com/thoreinstein/confkeep/internal/paths"
	"github.com/thoreinstein/confkeep/internal/validator"
)

// EnvPrefix prefixes environment overrides, e.g. CONFKEEP_CHECK_LEVEL.
const EnvPrefix = "CONFKEEP"

// Default values.
const (
	DefaultFetchTimeout    = 30 * time.Second
	DefaultBackupRetention = 5
	DefaultLogFormat       = "text"
)

// Settings is the CLI's own configuration.
type Settings struct {
	// CheckLevel is used when a command is not given --level.
	CheckLevel string `mapstructure:"check_level" yaml:"check_level"`
	// FetchTimeout bounds remote reference fetches.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	// BackupRetention is how many backup records to keep per config file.
	// Zero keeps them all.
	BackupRetention int `mapstructure:"backup_retention" yaml:"backup_retention"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	// LogFile, when set, receives a JSON copy of every log record.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// Init initializes Viper with default settings.
// Call this once at application startup before accessing settings.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("check_level", validator.DefaultCheckLevel.String())
	viper.SetDefault("fetch_timeout", DefaultFetchTimeout)
	viper.SetDefault("backup_retention", DefaultBackupRetention)
	viper.SetDefault("log_format", DefaultLogFormat)
	viper.SetDefault("log_file", "")
}

// Load reads the settings file and validates the result.
// If path is provided, it reads from that specific file and a missing file is
// an error. If path is empty, the default location is searched and a missing
// file means defaults.
func Load(path string) (*Settings, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, errors.Wrap(err, "reading settings file")
		}
	}

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "unmarshaling settings")
	}

	if errs := Validate(&s); len(errs) > 0 {
		return nil, errors.Wrap(errs[0], "invalid settings")
	}

	return &s, nil
}

// Level returns the parsed check level.
func (s *Settings) Level() validator.CheckLevel {
	lvl, err := validator.ParseCheckLevel(s.CheckLevel)
	if err != nil {
		return validator.DefaultCheckLevel
	}
	return lvl
}
