package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"dmxout/internal/dmx"
	"github.com/BurntSushi/toml"
)

// Config структура конфигурации.
type Config struct {
	Logger LogConf    // Logger - конфигурация регистратора.
	DMX    DMXConf    // DMX - выходной протокол и его параметры.
	SACN   SACNConf   `toml:"sacn"`
	ArtNet ArtNetConf `toml:"artnet"`
	MQTT   MQTTConf   // MQTT - конфигурация MQTT клиента.
	HTTP   HTTPConf   `toml:"http"`
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level"` // Level - уровень логирования.
	Format string `toml:"format"`    // text or json.
	Output string `toml:"output"`    // stdout or stderr.
}

// DMXConf is the session configuration applied at startup.
type DMXConf struct {
	Protocol   dmx.Protocol `toml:"protocol"`     // raw-serial, serial, sacn, artnet or 0..3.
	Port       string       `toml:"port"`         // Serial device, e.g. /dev/ttyUSB0 or COM3.
	Universe   int          `toml:"universe"`     // sACN 1..63999, Art-Net 0..255.
	Rate       int          `toml:"rate"`         // Refresh rate, 1..44 Hz.
	SendTickMs int          `toml:"send-tick-ms"` // How often the daemon calls Send.
}

// SACNConf configures the E1.31 source.
type SACNConf struct {
	SourceName   string   `toml:"source-name"`
	Bind         string   `toml:"bind"` // Bind address, required for multicast on some systems.
	Multicast    bool     `toml:"multicast"`
	Destinations []string `toml:"destinations"` // Unicast receivers.
}

// ArtNetConf configures the Art-Net node.
type ArtNetConf struct {
	ShortName    string `toml:"short-name"`
	LongName     string `toml:"long-name"`
	AddressRange string `toml:"address-range"` // CIDR the Art-Net interface lives in.
	Broadcast    string `toml:"broadcast"`
	Port         int    `toml:"port"`
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	ClientID string `toml:"clientID"` // ClientID - имя клиента.
	Host     string `toml:"server"`   // Host - адрес MQTT сервера.
	Port     string `toml:"port"`     // Port - порт MQTT сервера.
	User     string `toml:"user"`     // User - логин для подключения к MQTT серверу.
	Password string `toml:"password"` // Password - пароль для подключения к MQTT серверу.
	Qos      byte   `toml:"qos"`      // Qos - качество обслуживания.
	Prefix   string `toml:"prefix"`   // Prefix - корень топиков.
}

// HTTPConf configures the control API. An empty Listen disables it.
type HTTPConf struct {
	Listen      string   `toml:"listen"`
	CORSOrigins []string `toml:"cors-origins"` // Allowed browser origins, empty disables CORS.
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info", Format: "text", Output: "stdout"},
		DMX: DMXConf{
			Protocol:   dmx.BufferedSerial,
			Universe:   dmx.DefaultUniverse,
			Rate:       dmx.DefaultRate,
			SendTickMs: 5,
		},
		SACN: SACNConf{
			SourceName: "Go DMX",
			Multicast:  true,
		},
		ArtNet: ArtNetConf{
			ShortName:    "Go DMX",
			LongName:     "Go DMX Art-Net Node",
			AddressRange: "2.0.0.0/8",
			Broadcast:    "255.255.255.255",
			Port:         6454,
		},
		MQTT: MQTTConf{
			ClientID: "dmxout",
			Port:     "1883",
			Prefix:   "dmx",
		},
	}
}

// NewConfig конструктор. A missing file yields the defaults; environment
// variables override both.
func NewConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("DMXOUT_PROTOCOL"); ok {
		p, err := dmx.ParseProtocol(v)
		if err != nil {
			return err
		}
		c.DMX.Protocol = p
	}
	c.DMX.Port = getEnv("DMXOUT_PORT", c.DMX.Port)
	c.DMX.Universe = getEnvInt("DMXOUT_UNIVERSE", c.DMX.Universe)
	c.DMX.Rate = getEnvInt("DMXOUT_RATE", c.DMX.Rate)
	c.Logger.Level = getEnv("DMXOUT_LOG_LEVEL", c.Logger.Level)
	c.MQTT.Host = getEnv("DMXOUT_MQTT_SERVER", c.MQTT.Host)
	c.HTTP.Listen = getEnv("DMXOUT_HTTP_LISTEN", c.HTTP.Listen)
	return nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
