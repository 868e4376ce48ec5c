package artnet

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"dmxout/internal/logger"
	"github.com/Haba1234/go-artnet"
	"github.com/Haba1234/go-artnet/packet/code"
)

// dmxInput is an input port (DMX512 into the network) speaking DMX512.
const dmxInput = code.PortType(1 << 6)

// Node is the local Art-Net node: it answers polls with its name and port
// configuration. Stop releases it, started or not.
type Node interface {
	Start() error
	Stop()
}

// NodeFactory allocates a node named by opts with port 0 programmed to address.
type NodeFactory func(opts Options, address artnet.Address) (Node, error)

// NewNodeFactory allocates go-artnet nodes on the interface found in
// addressRange.
func NewNodeFactory(log logger.Logger, addressRange string) NodeFactory {
	return func(opts Options, address artnet.Address) (Node, error) {
		ip, err := FindArtNetIP(addressRange)
		if err != nil {
			return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
		}
		n := newNode(ip, opts, address)
		log.With(logger.Fields{"module": "art-net"}).Infof("Using ArtNet IP %s.%s", ip.String(), ConfigToString(n.Config))
		return &node{node: n}, nil
	}
}

// newNode builds an unstarted DMX node with one input port on address.
func newNode(ip net.IP, opts Options, address artnet.Address) *artnet.Node {
	n := artnet.NewNode(opts.ShortName, code.StNode, ip, artnet.NewDefaultLogger("info"))
	n.Config.Description = opts.LongName
	n.Config.BaseAddress = address
	n.Config.InputPorts = []artnet.InputPort{{
		Address: address,
		Type:    dmxInput,
	}}
	return n
}

type node struct {
	node *artnet.Node

	mu      sync.Mutex
	started bool
}

func (n *node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.node.Start(); err != nil {
		return fmt.Errorf("failed to start Node: %w", err)
	}
	n.started = true
	return nil
}

func (n *node) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.started {
		return
	}
	n.node.Stop()
	n.started = false
}

// ConfigToString returns a string representation of a node configuration.
func ConfigToString(c artnet.NodeConfig) string {
	var inputs []string
	for _, p := range c.InputPorts {
		inputs = append(inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}

	return fmt.Sprintf(
		" | name=%q type=%q desc=%q inputs=%q",
		c.Name, c.Type, c.Description, strings.Join(inputs, "; "),
	)
}
