package clientmqtt

import "dmxout/internal/engine"

type MQTTConf struct {
	ClientID string // ClientID - уникальное имя клиента для брокеров.
	Schema   string // Schema - тип подключения.
	Host     string // Host - адрес MQTT сервера.
	Port     string // Port - порт MQTT сервера.
	User     string // User - логин для подключения к MQTT серверу.
	Password string // Password - пароль для подключения к MQTT серверу.
	Qos      byte   // Qos - качество обслуживания.
	Prefix   string // Prefix - корень топиков.
}

// Engine is the part of the output session driven over MQTT.
type Engine interface {
	SetChannels(values []engine.ChannelValue)
	Apply(cmd engine.Command) error
	State() engine.State
}

// Payload is a batch of channel levels, e.g. [{"channel":1,"value":255}].
type Payload []engine.ChannelValue

// StateMessage is published after every command.
type StateMessage struct {
	engine.State
	Error string `json:"error,omitempty"`
}

const (
	topicChannels = "channels"
	topicCommand  = "command"
	topicState    = "state"
)
