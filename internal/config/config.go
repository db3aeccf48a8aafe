package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/wheelibin/homesim/internal/constants"
)

var ErrInvalidConfig = errors.New("invalid config")

type MQTTConfig struct {
	Broker           string `mapstructure:"broker"`
	ClientID         string `mapstructure:"clientId"`
	TemperatureTopic string `mapstructure:"temperatureTopic"`
	StateTopic       string `mapstructure:"stateTopic"`
	QoS              int    `mapstructure:"qos"`
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

type WebsocketConfig struct {
	PingInterval time.Duration `mapstructure:"pingInterval"`
	PongTimeout  time.Duration `mapstructure:"pongTimeout"`
}

type Config struct {
	Port           int             `mapstructure:"port"`
	LogLevel       string          `mapstructure:"logLevel"`
	LogFile        string          `mapstructure:"logFile"`
	GeoLocation    string          `mapstructure:"geoLocation"`
	CatalogFile    string          `mapstructure:"catalogFile"`
	AllowedOrigins []string        `mapstructure:"allowedOrigins"`
	HistoryLimit   int             `mapstructure:"historyLimit"`
	MQTT           MQTTConfig      `mapstructure:"mqtt"`
	Websocket      WebsocketConfig `mapstructure:"websocket"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")
	v.SetDefault("geoLocation", "51.5,-0.12")
	v.SetDefault("catalogFile", "")
	v.SetDefault("allowedOrigins", []string{"http://localhost:5173"})
	v.SetDefault("historyLimit", constants.DefaultHistoryLimit)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.clientId", "homesim")
	v.SetDefault("mqtt.temperatureTopic", "homesim/environment/temperature")
	v.SetDefault("mqtt.stateTopic", "homesim/state")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("websocket.pingInterval", 30*time.Second)
	v.SetDefault("websocket.pongTimeout", 10*time.Second)
}

// ReadConfig loads config.json from the standard locations, or from path when
// given. A missing file in the standard locations is not an error, defaults
// apply. Every key can be overridden with a HOMESIM_ prefixed env var, nested
// keys use underscores (HOMESIM_MQTT_BROKER).
func ReadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath("/etc/homesim/")
		v.AddConfigPath("$HOME/.config/homesim/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HOMESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Error reading config file: %w", err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Error decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("%w: historyLimit must be positive", ErrInvalidConfig)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2", ErrInvalidConfig)
	}
	if c.Websocket.PingInterval <= 0 || c.Websocket.PongTimeout <= 0 {
		return fmt.Errorf("%w: websocket intervals must be positive", ErrInvalidConfig)
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("%w: unknown logLevel %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

var levels = map[string]log.Level{
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
	"error": log.ErrorLevel,
}

// Level is the configured log level, info when unset.
func (c Config) Level() log.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.InfoLevel
}
