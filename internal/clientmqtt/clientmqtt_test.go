package clientmqtt

import (
	"encoding/json"
	"fmt"
	"testing"

	"dmxout/internal/dmx"
	"dmxout/internal/engine"
	"dmxout/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	channels []engine.ChannelValue
	commands []engine.Command
	applyErr error
	state    engine.State
}

func (e *fakeEngine) SetChannels(values []engine.ChannelValue) {
	e.channels = append(e.channels, values...)
}

func (e *fakeEngine) Apply(cmd engine.Command) error {
	e.commands = append(e.commands, cmd)
	return e.applyErr
}

func (e *fakeEngine) State() engine.State { return e.state }

func newTestClient(e Engine) *ClientMQTT {
	return NewClient(logger.NewDiscard(), MQTTConf{Prefix: "stage/dmx"}, e)
}

func TestTopics(t *testing.T) {
	c := newTestClient(&fakeEngine{})
	assert.Equal(t, "stage/dmx/channels", c.topic(topicChannels))
	assert.Equal(t, "stage/dmx/command", c.topic(topicCommand))
	assert.Equal(t, "stage/dmx/state", c.topic(topicState))
	assert.Equal(t, "tcp", c.cfgClient.Schema)
}

func TestHandleChannels(t *testing.T) {
	e := &fakeEngine{}
	c := newTestClient(e)

	require.NoError(t, c.handleChannels([]byte(`[{"channel":1,"value":255},{"channel":512,"value":7}]`)))
	assert.Equal(t, []engine.ChannelValue{{Channel: 1, Value: 255}, {Channel: 512, Value: 7}}, e.channels)

	assert.Error(t, c.handleChannels([]byte(`{"channel":1}`)))
	assert.Error(t, c.handleChannels([]byte(`[{"channel":1,"value":300}]`)), "value overflows a byte")
	assert.Len(t, e.channels, 2)
}

func TestHandleCommand(t *testing.T) {
	e := &fakeEngine{state: engine.State{Protocol: "sacn", ProtocolCode: 2, Universe: 7, Rate: 30, Active: true, ActiveProtocol: "sacn"}}
	c := newTestClient(e)

	out := c.handleCommand([]byte(`{"protocol":2,"universe":7,"rate":30,"init":true}`))

	require.Len(t, e.commands, 1)
	cmd := e.commands[0]
	require.NotNil(t, cmd.Protocol)
	assert.Equal(t, 2, *cmd.Protocol)
	assert.Equal(t, 7, *cmd.Universe)
	assert.Equal(t, 30, *cmd.Rate)
	assert.Nil(t, cmd.Port)
	assert.True(t, cmd.Init)

	var reply StateMessage
	require.NoError(t, json.Unmarshal(out, &reply))
	assert.Equal(t, e.state, reply.State)
	assert.Empty(t, reply.Error)
	assert.NotContains(t, string(out), `"error"`)
}

func TestHandleCommandErrors(t *testing.T) {
	t.Run("apply", func(t *testing.T) {
		e := &fakeEngine{applyErr: fmt.Errorf("universe 0 out of range: %w", dmx.ErrInvalidArgument)}
		out := newTestClient(e).handleCommand([]byte(`{"universe":0}`))

		var reply StateMessage
		require.NoError(t, json.Unmarshal(out, &reply))
		assert.Contains(t, reply.Error, "out of range")
	})
	t.Run("parse", func(t *testing.T) {
		e := &fakeEngine{state: engine.State{Protocol: "serial"}}
		out := newTestClient(e).handleCommand([]byte(`not json`))

		var reply StateMessage
		require.NoError(t, json.Unmarshal(out, &reply))
		assert.Contains(t, reply.Error, "could not be parsed")
		assert.Equal(t, "serial", reply.Protocol)
		assert.Empty(t, e.commands)
	})
}

func TestStopWithoutStart(t *testing.T) {
	assert.NoError(t, newTestClient(&fakeEngine{}).Stop())
}
