package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/homesim/internal/concurrency"
	"github.com/wheelibin/homesim/internal/constants"
	"github.com/wheelibin/homesim/internal/tui"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	url := flag.String("url", "http://localhost:3000", "homesimd base url")
	logFile := flag.String("log", "logs/homesim.log", "log file")
	flag.Parse()

	logger := log.NewWithOptions(&lumberjack.Logger{
		Filename: *logFile,
		MaxAge:   3,
	}, log.Options{
		Level:      log.InfoLevel,
		TimeFormat: "2006/01/02 15:04:05",
	})
	logger.Info("homesim starting", "url", *url)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dashboard := tui.NewDashboard(logger, tui.NewStatusClient(logger, *url), tea.WithAltScreen())

	// state change events arrive in bursts, refresh at most every refresh interval
	worker := concurrency.NewThrottledWorker(constants.DashboardRefreshInterval, dashboard.StateChanged)
	go worker.Run(ctx, func(err error) { logger.Error(err) })

	consumer := tui.NewEventConsumer(logger, *url)
	eventChannel := make(chan *sse.Event)
	if err := consumer.Subscribe(eventChannel); err != nil {
		logger.Error("error subscribing to state changes", "err", err)
		fmt.Fprintf(os.Stderr, "could not connect to %s: %v\n", *url, err)
		stop()
		os.Exit(1)
	}
	defer consumer.Unsubscribe()

	go func() {
		for {
			select {
			case <-eventChannel:
				worker.Trigger()
			case <-ctx.Done():
				dashboard.Quit()
				return
			}
		}
	}()

	if err := dashboard.Run(); err != nil {
		logger.Error("dashboard stopped", "err", err)
	}
	logger.Info("homesim is closing")
}
