package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mathsprint/mathsprint/pkg/api"
	"github.com/mathsprint/mathsprint/pkg/game"
	"github.com/mathsprint/mathsprint/pkg/game/constants"
	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/network"
	"github.com/mathsprint/mathsprint/pkg/questions"
	"github.com/mathsprint/mathsprint/pkg/queue"
	"github.com/mathsprint/mathsprint/pkg/version"
	"github.com/mathsprint/mathsprint/pkg/workers"
)

type config struct {
	port             int
	wsPort           int
	apiPort          int
	logLevel         string
	finishLine       int
	positionStep     int
	minPlayers       int
	countdownSeconds int
}

func (c *config) validate() error {
	for _, port := range []int{c.port, c.wsPort, c.apiPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", port)
		}
	}
	if c.finishLine < 1 || c.positionStep < 1 {
		return fmt.Errorf("finish line and position step must be positive")
	}
	if c.minPlayers < 2 {
		return fmt.Errorf("at least 2 players are required for a race")
	}
	return nil
}

func main() {
	cfg := &config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MATHSPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "mathsprint-server",
		Short:   "Authoritative server for the mathsprint multiplayer math race.",
		Args:    cobra.ExactArgs(0),
		Version: version.Get(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&cfg.port, "port", "p", 5000, "TCP port to listen on (env: MATHSPRINT_PORT)")
	fs.IntVar(&cfg.wsPort, "ws-port", 5001, "WebSocket port to listen on (env: MATHSPRINT_WS_PORT)")
	fs.IntVar(&cfg.apiPort, "api-port", 5002, "HTTP status API port (env: MATHSPRINT_API_PORT)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: error, warn, info, debug, trace (env: MATHSPRINT_LOG_LEVEL)")
	fs.IntVar(&cfg.finishLine, "finish-line", constants.FinishLine, "track length (env: MATHSPRINT_FINISH_LINE)")
	fs.IntVar(&cfg.positionStep, "position-step", constants.PositionStep, "advance per correct answer (env: MATHSPRINT_POSITION_STEP)")
	fs.IntVar(&cfg.minPlayers, "min-players", constants.MinPlayers, "players required to start the countdown (env: MATHSPRINT_MIN_PLAYERS)")
	fs.IntVar(&cfg.countdownSeconds, "countdown-seconds", constants.CountdownSeconds, "countdown duration before a race (env: MATHSPRINT_COUNTDOWN_SECONDS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func run(ctx context.Context, cfg *config) error {
	parsedLogLevel, err := log.ParseLogLevel(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	log.SetDefaultLogger(log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel))

	log.Info("Starting mathsprint server version %s", version.Get())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientManager := network.NewClientManager()
	messageQueue := queue.NewInMemoryQueue(1024)

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		Sender:           clientManager,
		Oracle:           questions.NewGenerator(),
		FinishLine:       cfg.finishLine,
		PositionStep:     cfg.positionStep,
		MinPlayers:       cfg.minPlayers,
		CountdownSeconds: cfg.countdownSeconds,
	})

	connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
		ClientEventChan: clientManager.GetClientEventChan(),
		Game:            gameManager,
	})
	go connectionEventWorker.Start(ctx)

	answerWorker := workers.NewAnswerWorker(workers.NewAnswerWorkerOptions{
		MessageQueue: messageQueue,
		Game:         gameManager,
	})
	go answerWorker.Start(ctx)

	tcpServer := network.NewTCPServer(network.NewTCPServerOptions{
		ClientManager: clientManager,
		Registrar:     gameManager,
		MessageQueue:  messageQueue,
		Port:          cfg.port,
	})
	wsServer := network.NewWSServer(network.NewWSServerOptions{
		ClientManager: clientManager,
		Registrar:     gameManager,
		MessageQueue:  messageQueue,
		Port:          cfg.wsPort,
	})
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port: cfg.apiPort,
		Game: gameManager,
	})

	errs := make(chan error, 3)
	go func() { errs <- tcpServer.Start(ctx) }()
	go func() { errs <- wsServer.Start(ctx) }()
	go func() { errs <- apiServer.Start(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
		return nil
	case err := <-errs:
		return err
	}
}
