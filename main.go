// main.go
// Application entry point: loads configuration, initializes the logger and
// NATS, then runs the lobby and the HTTP server until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/erilali/tictactoe/internal/api"
	"github.com/erilali/tictactoe/internal/config"
	"github.com/erilali/tictactoe/internal/events"
	"github.com/erilali/tictactoe/internal/lobby"
	"github.com/erilali/tictactoe/internal/logger"
)

func main() {
	cmd := &cli.Command{
		Name:  "tictactoe",
		Usage: "real-time tic-tac-toe server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.json", Usage: "JSON configuration file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the environment"},
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides SERVER_ADDR"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error or fatal"},
			&cli.StringFlag{Name: "nats-url", Usage: "NATS server URL, overrides NATS_URL"},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.IsSet("addr") {
		cfg.Server.Addr = cmd.String("addr")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("nats-url") {
		cfg.NATS.URL = cmd.String("nats-url")
	}

	logger.InitLogger(cfg.Log)
	serverLogger := logger.NewLogger("server")
	serverLogger.WithFields(map[string]interface{}{
		"level":       cfg.Log.Level,
		"log_to_file": cfg.Log.LogToFile,
		"log_to_json": cfg.Log.LogToJSON,
		"addr":        cfg.Server.Addr,
		"nats":        cfg.NATS.Enabled,
	}).Info("Configuration loaded")

	var (
		bus *events.Bus
		nc  *nats.Conn
	)
	if cfg.NATS.Enabled {
		if c := events.Connect(cfg.NATS.URL, logger.NewLogger("events")); c != nil {
			defer c.Drain()
			nc = c
			bus = events.NewBus(c, cfg.NATS.SubjectPrefix)
		}
	}
	if bus == nil {
		bus = events.NewBus(nil, cfg.NATS.SubjectPrefix)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := lobby.New(cfg.Lobby.Lobby(), lobby.WithEvents(bus))
	lobbyDone := make(chan struct{})
	go func() {
		defer close(lobbyDone)
		l.Run(ctx)
	}()

	server := api.NewServer(cfg.Server, l, nc, serverLogger)
	err = server.ListenAndServe(ctx)
	cancel()
	<-lobbyDone
	serverLogger.Info("Server stopped")
	return err
}
