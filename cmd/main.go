package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dmxout/internal/api"
	"dmxout/internal/artnet"
	"dmxout/internal/clientmqtt"
	"dmxout/internal/config"
	"dmxout/internal/dmx"
	"dmxout/internal/engine"
	"dmxout/internal/logger"
	"dmxout/internal/sacn"
	"dmxout/internal/serial"
	"github.com/joho/godotenv"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
}

func main() {
	flag.Parse()

	// .env is optional.
	_ = godotenv.Load()

	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v", err)
		os.Exit(1)
	}

	log.With(logger.Fields{"module": "logger"}).Debug("newLogger created ok")

	session := engine.New(log, ConvertConfigDrivers(log, cfg).Builder(log))
	if err := configure(session, cfg.DMX); err != nil {
		log.With(logger.Fields{"module": "engine"}).Errorf("invalid dmx configuration: %v", err)
		os.Exit(1)
	}
	if err := session.Initialize(); err != nil {
		log.With(logger.Fields{"module": "engine"}).Warnf("output not initialized, waiting for a command: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	var client *clientmqtt.ClientMQTT
	if cfg.MQTT.Host != "" {
		client = clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT), session)
		log.With(logger.Fields{"module": "mqtt"}).Debug("NewClient created ok")
		if err = client.Start(ctx); err != nil {
			log.Error("failed to start MQTT service:", err.Error())
			cancel()
		}
	}

	var server *api.Server
	if cfg.HTTP.Listen != "" {
		server = api.New(log, cfg.HTTP.Listen, cfg.HTTP.CORSOrigins, session)
		if err = server.Start(); err != nil {
			log.Error("failed to start HTTP service:", err.Error())
			cancel()
		}
	}

	sendLoop(ctx, session, time.Duration(cfg.DMX.SendTickMs)*time.Millisecond)

	if client != nil {
		if err := client.Stop(); err != nil {
			log.Error("failed to stop MQTT service:", err.Error())
		}
	}
	if server != nil {
		if err := server.Close(); err != nil {
			log.Error("failed to stop HTTP service:", err.Error())
		}
	}

	session.Close()

	log.Info("shutdown complete")
}

// configure stages the configured protocol, port, universe and rate.
func configure(s *engine.Session, cfg config.DMXConf) error {
	if err := s.SetProtocol(cfg.Protocol); err != nil {
		return err
	}
	s.SetPort(cfg.Port)
	if !cfg.Protocol.IsSerial() {
		if err := s.SetUniverse(cfg.Universe); err != nil {
			return err
		}
	}
	return s.SetRate(cfg.Rate)
}

// sendLoop offers a frame every tick until ctx is done. The rate gate
// decides which ones go out.
func sendLoop(ctx context.Context, s *engine.Session, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second / dmx.MaxRate
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Send()
		}
	}
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID: cfg.ClientID,
		Schema:   "tcp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Qos:      cfg.Qos,
		Prefix:   cfg.Prefix,
	}
}

// ConvertConfigDrivers builds the transport dependencies from the configuration.
func ConvertConfigDrivers(log logger.Logger, cfg *config.Config) engine.Drivers {
	return engine.Drivers{
		SerialOpener: serial.OpenPort,
		SACN: sacn.Options{
			SourceName:   cfg.SACN.SourceName,
			Multicast:    cfg.SACN.Multicast,
			Destinations: cfg.SACN.Destinations,
		},
		SACNSources: sacn.NewTransmitterFactory(cfg.SACN.Bind),
		ArtNet: artnet.Options{
			ShortName: cfg.ArtNet.ShortName,
			LongName:  cfg.ArtNet.LongName,
		},
		ArtNetNodes: artnet.NewNodeFactory(log, cfg.ArtNet.AddressRange),
		ArtNetDial:  artnet.NewBroadcastDialer(cfg.ArtNet.Broadcast, cfg.ArtNet.Port),
	}
}
