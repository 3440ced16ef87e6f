package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IUU_CARD_CLOCK.
const EnvPrefix = "IUU"

// DeviceConfig selects and opens a programmer.
type DeviceConfig struct {
	Serial    string        `mapstructure:"serial"`
	Index     int           `mapstructure:"index"`
	Timeout   time.Duration `mapstructure:"timeout"`
	DevRoot   string        `mapstructure:"devRoot"`
	SysfsRoot string        `mapstructure:"sysfsRoot"`
}

// CardConfig is the card interface setup applied before talking to a card.
type CardConfig struct {
	VCC         string `mapstructure:"vcc"`
	Clock       int    `mapstructure:"clock"`
	ResetWait   int    `mapstructure:"resetWait"`
	Baud        uint32 `mapstructure:"baud"`
	Parity      string `mapstructure:"parity"`
	StopBits    int    `mapstructure:"stopBits"`
	Pacing      string `mapstructure:"pacing"`
	PacingValue int    `mapstructure:"pacingValue"`
}

// LumberjackConfig configures log file rotation. An empty filename
// disables file output.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets log level and output.
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig exposes Prometheus metrics. An empty listen address
// disables the endpoint.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
	Path   string `mapstructure:"path"`
}

// Config is the top-level configuration.
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Card    CardConfig    `mapstructure:"card"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// New returns a viper instance with defaults and environment overrides
// applied. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file and unmarshals the result. If path
// is empty, IUU_CONFIG is consulted, then iuu.yaml in the working
// directory and $HOME/.config/iuu. A missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		path = v.GetString("config")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/iuu")
		v.SetConfigName("iuu")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.serial", "")
	v.SetDefault("device.index", 0)
	v.SetDefault("device.timeout", iuu.DefaultTimeout.String())
	v.SetDefault("device.devRoot", iuu.DefaultUSBConfig().DevRoot)
	v.SetDefault("device.sysfsRoot", iuu.DefaultSysfsRoot)

	v.SetDefault("card.vcc", "5V")
	v.SetDefault("card.clock", 3579000)
	v.SetDefault("card.resetWait", iuu.DefaultResetWait)
	v.SetDefault("card.baud", 9600)
	v.SetDefault("card.parity", "even")
	v.SetDefault("card.stopBits", 1)
	v.SetDefault("card.pacing", "none")
	v.SetDefault("card.pacingValue", 0)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.path", "/metrics")
}

// USBOptions translates the device section into transport options.
func (c DeviceConfig) USBOptions() []iuu.USBOption {
	opts := []iuu.USBOption{iuu.WithDevRoot(c.DevRoot)}
	if c.Timeout > 0 {
		opts = append(opts, iuu.WithTimeout(c.Timeout))
	}
	return opts
}

// VCCLevel parses the configured supply voltage.
func (c CardConfig) VCCLevel() (iuu.VCC, error) {
	switch strings.ToUpper(strings.TrimSpace(c.VCC)) {
	case "5", "5V", "5.0V":
		return iuu.VCC5V, nil
	case "3", "3V", "3.3", "3.3V", "3V3":
		return iuu.VCC3V3, nil
	default:
		return 0, fmt.Errorf("invalid vcc %q (valid: 5V, 3.3V)", c.VCC)
	}
}

// ParityCode parses the configured parity.
func (c CardConfig) ParityCode() (iuu.Parity, error) {
	switch strings.ToLower(c.Parity) {
	case "none", "n":
		return iuu.ParityNone, nil
	case "even", "e":
		return iuu.ParityEven, nil
	case "odd", "o":
		return iuu.ParityOdd, nil
	case "mark", "m":
		return iuu.ParityMark, nil
	case "space", "s":
		return iuu.ParitySpace, nil
	default:
		return 0, fmt.Errorf("invalid parity %q (valid: none, even, odd, mark, space)", c.Parity)
	}
}

// StopBitCode parses the configured stop bit count.
func (c CardConfig) StopBitCode() (iuu.StopBits, error) {
	switch c.StopBits {
	case 1:
		return iuu.OneStopBit, nil
	case 2:
		return iuu.TwoStopBits, nil
	default:
		return 0, fmt.Errorf("invalid stop bits %d (valid: 1, 2)", c.StopBits)
	}
}

// ResetWaitMillis returns the RST hold time as sent to the device.
func (c CardConfig) ResetWaitMillis() (byte, error) {
	if c.ResetWait < 0 || c.ResetWait > 255 {
		return 0, fmt.Errorf("invalid reset wait %d ms (valid: 0-255)", c.ResetWait)
	}
	return byte(c.ResetWait), nil
}

// PacingSpec parses the configured transmit pacing.
func (c CardConfig) PacingSpec() (iuu.Pacing, error) {
	mode, err := iuu.ParsePacingMode(c.Pacing)
	if err != nil {
		return iuu.Pacing{}, err
	}
	if c.PacingValue < 0 || c.PacingValue > 255 {
		return iuu.Pacing{}, fmt.Errorf("invalid pacing value %d (valid: 0-255)", c.PacingValue)
	}
	return iuu.Pacing{Mode: mode, Value: byte(c.PacingValue)}, nil
}
