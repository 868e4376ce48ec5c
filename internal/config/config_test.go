package config

import (
	"os"
	"path/filepath"
	"testing"

	"dmxout/internal/dmx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[logger]
log-level = "debug"
format = "json"

[dmx]
protocol = "sacn"
universe = 7
rate = 30

[sacn]
source-name = "Stage Left"
multicast = false
destinations = ["192.168.1.20", "192.168.1.21"]

[artnet]
address-range = "10.0.0.0/8"

[mqtt]
server = "broker.local"
prefix = "stage"

[http]
cors-origins = ["http://console.local"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewConfigFromFile(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "stdout", cfg.Logger.Output, "default kept")
	assert.Equal(t, dmx.SACN, cfg.DMX.Protocol)
	assert.Equal(t, 7, cfg.DMX.Universe)
	assert.Equal(t, 30, cfg.DMX.Rate)
	assert.Equal(t, 5, cfg.DMX.SendTickMs, "default kept")
	assert.Equal(t, "Stage Left", cfg.SACN.SourceName)
	assert.False(t, cfg.SACN.Multicast)
	assert.Equal(t, []string{"192.168.1.20", "192.168.1.21"}, cfg.SACN.Destinations)
	assert.Equal(t, "10.0.0.0/8", cfg.ArtNet.AddressRange)
	assert.Equal(t, 6454, cfg.ArtNet.Port)
	assert.Equal(t, "broker.local", cfg.MQTT.Host)
	assert.Equal(t, "stage", cfg.MQTT.Prefix)
	assert.Equal(t, []string{"http://console.local"}, cfg.HTTP.CORSOrigins)
	assert.Empty(t, cfg.HTTP.Listen)
}

func TestNewConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().DMX, cfg.DMX)
	assert.Equal(t, dmx.BufferedSerial, cfg.DMX.Protocol)
}

func TestNewConfigBadProtocol(t *testing.T) {
	_, err := NewConfig(writeConfig(t, "[dmx]\nprotocol = \"midi\"\n"))
	assert.Error(t, err)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("DMXOUT_PROTOCOL", "3")
	t.Setenv("DMXOUT_UNIVERSE", "17")
	t.Setenv("DMXOUT_RATE", "not-a-number")
	t.Setenv("DMXOUT_PORT", "/dev/ttyUSB1")
	t.Setenv("DMXOUT_HTTP_LISTEN", ":8080")

	cfg, err := NewConfig(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, dmx.ArtNet, cfg.DMX.Protocol)
	assert.Equal(t, 17, cfg.DMX.Universe)
	assert.Equal(t, 30, cfg.DMX.Rate, "unparsable value falls back to the file")
	assert.Equal(t, "/dev/ttyUSB1", cfg.DMX.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
}

func TestNewConfigEnvBadProtocol(t *testing.T) {
	t.Setenv("DMXOUT_PROTOCOL", "7")
	_, err := NewConfig("")
	assert.Error(t, err)
}
