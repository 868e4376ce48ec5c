package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"dmxout/internal/engine"
	"dmxout/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	engine    Engine
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf, e Engine) *ClientMQTT {
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	return &ClientMQTT{
		log:       log,
		cfgClient: cfgClient,
		engine:    e,
	}
}

func (c *ClientMQTT) topic(name string) string {
	return c.cfgClient.Prefix + "/" + name
}

func (c *ClientMQTT) Start(ctx context.Context) error {
	if c.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(true).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	c.log.With(logger.Fields{"module": "mqtt"}).Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

// connectHandler subscribes on every (re)connect since the session is clean.
func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.With(logger.Fields{"module": "mqtt"}).Info("client connected to server")
	c.sub(c.topic(topicChannels), c.channelsHandler)
	c.sub(c.topic(topicCommand), c.commandHandler)
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.With(logger.Fields{"module": "mqtt"}).Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) channelsHandler(_ mqtt.Client, msg mqtt.Message) {
	if err := c.handleChannels(msg.Payload()); err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("message could not be parsed (%s): %v", msg.Payload(), err)
	}
}

func (c *ClientMQTT) commandHandler(_ mqtt.Client, msg mqtt.Message) {
	out := c.handleCommand(msg.Payload())
	c.publish(c.topic(topicState), out)
}

// handleChannels stages levels. Channels outside 1..512 are ignored.
func (c *ClientMQTT) handleChannels(payload []byte) error {
	var data Payload
	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}
	c.engine.SetChannels(data)
	return nil
}

// handleCommand applies a command and returns the state message to publish.
// A rejected command changes nothing and the message carries the error.
func (c *ClientMQTT) handleCommand(payload []byte) []byte {
	var reply StateMessage

	var cmd engine.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		reply.Error = fmt.Sprintf("command could not be parsed: %v", err)
	} else if err := c.engine.Apply(cmd); err != nil {
		reply.Error = err.Error()
	}
	if reply.Error != "" {
		c.log.With(logger.Fields{"module": "mqtt"}).Warnf("command %s failed: %s", payload, reply.Error)
	}
	reply.State = c.engine.State()

	out, err := json.Marshal(reply)
	if err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("state message: %v", err)
	}
	return out
}

func (c *ClientMQTT) sub(topic string, handler mqtt.MessageHandler) {
	token := c.client.Subscribe(topic, c.cfgClient.Qos, handler)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.With(logger.Fields{"module": "mqtt"}).Debugf("topic %s subscribed", topic)
	}()
}

func (c *ClientMQTT) publish(topic string, msg []byte) {
	token := c.client.Publish(topic, c.cfgClient.Qos, false, msg)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("error publish topic %s. %v", topic, token.Error())
			}
		}
	}()
}
