package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homesim/internal/api"
	"github.com/wheelibin/homesim/internal/catalog"
	"github.com/wheelibin/homesim/internal/clock"
	"github.com/wheelibin/homesim/internal/config"
	"github.com/wheelibin/homesim/internal/engine"
	"github.com/wheelibin/homesim/internal/environment"
	"github.com/wheelibin/homesim/internal/events"
	"github.com/wheelibin/homesim/internal/homesim"
	"github.com/wheelibin/homesim/internal/mqtt"
	"github.com/wheelibin/homesim/internal/registry"
	"github.com/wheelibin/homesim/internal/repos"
	"github.com/wheelibin/homesim/internal/scheduler"
	"gopkg.in/natefinch/lumberjack.v2"
)

const wsMaxMessageSize = 512

func main() {
	configPath := flag.String("config", "", "path to config.json (default: search /etc/homesim, ~/.config/homesim, .)")
	flag.Parse()

	cfg, err := config.ReadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{Filename: cfg.LogFile, MaxAge: 3}
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
		ReportCaller:    true,
	})
	logger.Info("homesimd starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal(err)
	}
	logger.Info("homesimd is closing")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	devices, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}
	reg := registry.NewRegistry(devices)
	clk := clock.New()

	db, err := repos.OpenDB(repos.InMemoryDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	history, err := repos.NewTransitionRepo(logger, db, cfg.HistoryLimit)
	if err != nil {
		return err
	}

	env, err := environment.NewEnvironment(logger, cfg.GeoLocation)
	if err != nil {
		return err
	}

	// broadcast sinks
	sseSink := events.NewSSEBroadcaster(logger)
	hub := events.NewHub(events.HubConfig{
		PingInterval:   cfg.Websocket.PingInterval,
		PongTimeout:    cfg.Websocket.PongTimeout,
		MaxMessageSize: wsMaxMessageSize,
	}, logger)
	sinks := []events.Broadcaster{sseSink, hub}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled() {
		mqttClient, err = mqtt.Connect(logger, mqtt.Config{
			Broker:           cfg.MQTT.Broker,
			ClientID:         cfg.MQTT.ClientID,
			TemperatureTopic: cfg.MQTT.TemperatureTopic,
			StateTopic:       cfg.MQTT.StateTopic,
			QoS:              byte(cfg.MQTT.QoS),
		})
		if err != nil {
			return err
		}
		defer mqttClient.Close()
		sinks = append(sinks, mqtt.NewStatePublisher(logger, mqttClient, cfg.MQTT.StateTopic, byte(cfg.MQTT.QoS)))
	}

	eng := engine.NewEngine(logger, reg, scheduler.NewScheduler(logger, clk), clk, events.NewFanout(logger, sinks...), history)
	// app.Run only returns once its context is done, a failed Serve must stop it too
	appCtx, cancelApp := context.WithCancel(ctx)
	defer cancelApp()

	app := homesim.NewApp(logger, eng, env, clk)

	if mqttClient != nil {
		handler := mqtt.TemperatureHandler(appCtx, clk.Now, app.Readings())
		if err := mqttClient.Subscribe(cfg.MQTT.TemperatureTopic, byte(cfg.MQTT.QoS), handler); err != nil {
			return err
		}
		logger.Info("Listening for temperature readings", "topic", cfg.MQTT.TemperatureTopic)
	}

	appDone := make(chan struct{})
	go func() {
		app.Run(appCtx)
		close(appDone)
	}()

	server := api.NewServer(logger, api.Deps{
		Engine:         eng,
		Environment:    env,
		Readings:       app,
		History:        history,
		Events:         sseSink,
		WebSocket:      hub,
		Clock:          clk,
		AllowedOrigins: cfg.AllowedOrigins,
		HistoryLimit:   cfg.HistoryLimit,
	})
	err = server.Serve(ctx, fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		logger.Error("http server stopped", "err", err)
	}

	cancelApp()
	<-appDone
	return err
}
