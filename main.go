package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/octoco-ltd/scalelink/pkg/api"
	"github.com/octoco-ltd/scalelink/pkg/bluetooth"
	"github.com/octoco-ltd/scalelink/pkg/config"
	"github.com/octoco-ltd/scalelink/pkg/peripheral"
	"github.com/octoco-ltd/scalelink/pkg/sensor"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

func main() {
	// if both verbose and quiet are chosen, e.g., -v -q, the verbose dominates
	var traceLevel = flag.Bool("v", false, "verbose off by default, TraceLevel")
	var infoLevel = flag.Bool("q", false, "quiet off by default, InfoLevel")
	var configPath = flag.String("config", "scalelink.yaml", "path to YAML config file")
	var adapterID = flag.String("adapter", "", "bluetooth adapter override, e.g. hci0")
	var deviceName = flag.String("name", "", "advertised device name override")

	flag.Parse()

	if *traceLevel {
		log.SetLevel(log.TraceLevel)
	} else if *infoLevel {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(log.DebugLevel)
	}

	log.SetFormatter(&logrus.TextFormatter{
		DisableQuote: true,
		ForceColors:  true,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Could not load config: %s", err)
	}
	if *adapterID != "" {
		cfg.AdapterID = *adapterID
	}
	if *deviceName != "" {
		cfg.DeviceName = *deviceName
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %s", err)
	}

	log.Info("Starting ScaleLink peripheral")
	log.Info("Device name:    ", cfg.DeviceName)
	log.Info("Service UUID:   ", bluetooth.ScaleServiceUUID)
	log.Info("Weight char:    ", bluetooth.WeightCharUUID)
	log.Info("Tick interval:  ", cfg.TickInterval.Std())

	scale := sensor.NewSimulated(cfg.SensorNoise)
	source := sensor.NewLatched(scale)

	ble, err := bluetooth.New(cfg.AdapterID)
	if err != nil {
		log.Fatalf("Could not open BLE device: %s", err)
	}

	var server *api.Server
	p := peripheral.New(source, ble, func(n peripheral.Notice) {
		server.Observe(n)
	})
	server = api.New(cfg.APIAddr, p, scale)

	ble.SetConnectionHandler(func(connected bool, centralID string) {
		if connected {
			p.Dispatch(peripheral.Event{Type: peripheral.EventConnected, CentralID: centralID})
		} else {
			p.Dispatch(peripheral.Event{Type: peripheral.EventDisconnected, CentralID: centralID})
		}
	})
	ble.SetSubscriptionHandler(func(value uint16) {
		p.Dispatch(peripheral.Event{Type: peripheral.EventDescriptorWritten, Value: value})
	})
	ble.SetReadHandler(p.ReadSample)

	if err := ble.Start(cfg.DeviceName); err != nil {
		log.Fatalf("Could not start BLE: %s", err)
	}

	p.Run(cfg.TickInterval.Std())

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Control API failed: %s", err)
		}
	}()

	log.Info("Peripheral initialized, waiting for connections...")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Info("Shutting down")
	p.Stop()
	if err := ble.Stop(); err != nil {
		log.Warnf("Error stopping BLE: %s", err)
	}
}
