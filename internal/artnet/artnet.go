// Package artnet outputs one universe as an Art-Net node. Port 0 of the node
// is addressed by splitting the universe into subnet and sub-universe.
package artnet

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"dmxout/internal/dmx"
	"dmxout/internal/logger"
	"github.com/Haba1234/go-artnet"
)

// Dialer opens the socket ArtDmx packets are written to.
type Dialer func() (io.WriteCloser, error)

// NewBroadcastDialer sends to addr:port over UDP.
func NewBroadcastDialer(addr string, port int) Dialer {
	if port <= 0 {
		port = DefaultPort
	}
	return func() (io.WriteCloser, error) {
		raddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(addr, strconv.Itoa(port)))
		if err != nil {
			return nil, err
		}
		conn, err := net.DialUDP("udp4", nil, raddr)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Options name the node.
type Options struct {
	ShortName string
	LongName  string
}

// Driver is the Art-Net transport.
type Driver struct {
	log     logger.Logger
	opts    Options
	newNode NodeFactory
	dial    Dialer
	gate    *dmx.RateGate

	mu       sync.Mutex
	universe int
	address  artnet.Address
	node     Node
	conn     io.WriteCloser
	sequence byte
	closed   bool
}

// NewDriver конструктор.
func NewDriver(log logger.Logger, opts Options, universe int, newNode NodeFactory, dial Dialer, gate *dmx.RateGate) *Driver {
	return &Driver{
		log:      log,
		opts:     opts,
		newNode:  newNode,
		dial:     dial,
		gate:     gate,
		universe: universe,
		address:  PortAddress(universe),
		closed:   true,
	}
}

// Open creates and starts a node with port 0 programmed for the universe.
func (d *Driver) Open() error {
	if err := dmx.ValidateUniverse(dmx.ArtNet, d.universe); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.shutdown()
	if err := d.startup(); err != nil {
		return err
	}
	d.closed = false
	subnet, uni := SplitUniverse(d.universe)
	d.log.With(logger.Fields{"module": "art-net"}).Infof("node %q started, port 0 on subnet %d universe %d", d.opts.ShortName, subnet, uni)
	return nil
}

// Close destroys the node. Safe to call repeatedly.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdown()
	d.closed = true
}

// Address returns the port address packets are sent to.
func (d *Driver) Address() artnet.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.address
}

// Transmit sends the 512 levels of f from port 0. A failed send recreates the
// node; if that fails the driver stays silent until reopened.
func (d *Driver) Transmit(f dmx.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.node == nil || !d.gate.Allow() {
		return
	}

	d.sequence++
	if d.sequence == 0 {
		d.sequence = 1
	}
	packet := BuildDMXPacket(d.address, d.sequence, 0, f.Levels())
	_, err := d.conn.Write(packet)
	if err == nil {
		return
	}

	log := d.log.With(logger.Fields{"module": "art-net"})
	log.Warnf("failed to send DMX, attempting reconnect: %v", err)
	d.shutdown()
	if err := d.startup(); err != nil {
		log.Warnf("ArtNet reconnect failed: %v", err)
		return
	}
	log.Info("ArtNet reinitialized")
}

// SetUniverse reprograms port 0. The node advertises its ports from the
// moment it starts, so it is restarted on the new address; the socket stays
// open. If the new node cannot start the old address is restored, and if
// that fails too the driver stays silent until reopened.
func (d *Driver) SetUniverse(universe int) error {
	if err := dmx.ValidateUniverse(dmx.ArtNet, universe); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.node == nil {
		return fmt.Errorf("%w: Art-Net node is not initialized", dmx.ErrInvalidState)
	}
	if universe == d.universe {
		return nil
	}

	log := d.log.With(logger.Fields{"module": "art-net"})
	d.node.Stop()
	d.node = nil

	node, err := d.startNode(PortAddress(universe))
	if err != nil {
		if old, rerr := d.startNode(d.address); rerr == nil {
			d.node = old
		} else {
			log.Warnf("ArtNet reconnect failed: %v", rerr)
			d.shutdown()
		}
		return err
	}
	d.node = node
	d.universe = universe
	d.address = PortAddress(universe)
	subnet, uni := SplitUniverse(universe)
	log.Infof("port 0 moved to subnet %d universe %d", subnet, uni)
	return nil
}

// startNode creates and starts a node with port 0 on address.
func (d *Driver) startNode(address artnet.Address) (Node, error) {
	node, err := d.newNode(d.opts, address)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Art-Net node: %v", dmx.ErrTransport, err)
	}
	if err := node.Start(); err != nil {
		node.Stop()
		return nil, fmt.Errorf("%w: failed to start Art-Net node: %v", dmx.ErrTransport, err)
	}
	return node, nil
}

func (d *Driver) startup() error {
	conn, err := d.dial()
	if err != nil {
		return fmt.Errorf("%w: failed to open Art-Net socket: %v", dmx.ErrTransport, err)
	}
	d.address = PortAddress(d.universe)
	node, err := d.startNode(d.address)
	if err != nil {
		_ = conn.Close()
		return err
	}
	d.node = node
	d.conn = conn
	return nil
}

func (d *Driver) shutdown() {
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
	if d.node != nil {
		d.node.Stop()
		d.node = nil
	}
}
