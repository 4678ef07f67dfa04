package main

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/controlrest/pkg"

	"github.com/appetiteclub/controlrest/services/ledger/internal/alerts"
	"github.com/appetiteclub/controlrest/services/ledger/internal/kitchen"
	"github.com/appetiteclub/controlrest/services/ledger/internal/ledger"
)

const (
	appNamespace = "LEDGER"
	appName      = "ledger"
	appVersion   = "0.1.0"
)

//go:embed seed.json
var seedData []byte

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logger := apt.NewLogger(config.GetStringOrDef("log.level", "info"))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	store := ledger.NewStore(ledger.Options{
		HealthyMargin: config.GetFloat64OrDef("costing.margin.healthy", ledger.DefaultHealthyMargin),
	})

	storage, err := openStorage(ctx, config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot open storage: %v", appName, appVersion, err)
	}

	broker, err := pkg.NewBroker(config, logger)
	if err != nil {
		_ = storage.Stop(context.Background())
		log.Fatalf("%s(%s) cannot connect to events broker: %v", appName, appVersion, err)
	}
	logger.Info("events broker ready", "broker", broker.Name)

	var data []byte
	if config.GetBoolOrTrue("seed.enabled") {
		data = seedData
	}
	seedHooks := apt.LifecycleHooks{
		OnStart: ledger.SeedingFunc(store, storage.Snapshots, data, storage.Tracker, logger),
	}

	board := alerts.NewBoard(store, logger)
	stockSub := alerts.NewStockSubscriber(broker.Subscriber, board, logger)

	// Kitchen displays watch tickets over gRPC as they are sent.
	tickets := kitchen.NewTicketStreamServer(logger)

	hd := ledger.HandlerDeps{
		Store:     store,
		Snapshots: storage.Snapshots,
		Publisher: broker.Publisher,
		Tickets:   tickets,
	}
	handler := ledger.NewHandler(hd, config, logger)
	alertsHandler := alerts.NewHandler(board, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:          logger,
		TimeoutDuration: config.GetDurationOrDef("web.timeout", 15*time.Second),
		DisableCORS:     true,
	})

	// Seeding restores the ledger before the alerts board warms from it.
	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: storage.Stop},
		broker,
		seedHooks,
		stockSub,
	}

	floorCheck := func(context.Context) error {
		if problems := store.CheckFloor(); len(problems) > 0 {
			return errors.New(strings.Join(problems, "; "))
		}
		return nil
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler, alertsHandler),
		apt.WithGRPCServerModules("grpc.port", tickets),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
		apt.WithHealthChecks("floor", nil, floorCheck),
	}
	if storage.Ping != nil {
		options = append(options, apt.WithHealthChecks("storage", nil, storage.Ping))
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
