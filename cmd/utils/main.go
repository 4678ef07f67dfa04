package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/joho/godotenv"

	"github.com/appetiteclub/controlrest/cmd/utils/internal/commands"
)

const (
	appName    = "controlrest-utils"
	appVersion = "0.1.0"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, config *apt.Config, logger apt.Logger) error
	done    string
}

var registry = []command{
	{"seed-demo", "Run a scripted service against the ledger (orders, deliveries, one payment)", commands.SeedDemo, "demo service recorded"},
	{"clear-demo", "Settle every open order so all tables are free", commands.ClearDemo, "open orders settled"},
	{"reset-db", "Drop the stored ledger state (USE WITH CAUTION)", commands.ResetDB, "ledger storage dropped"},
}

func lookup(name string) (command, bool) {
	for _, c := range registry {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cmd, ok := lookup(name)
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("%s(%s) cannot load config: %v", appName, appVersion, err)
	}
	logger := apt.NewLogger(config.GetStringOrDef("log.level", "info")).With("command", cmd.name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, config, logger); err != nil {
		stop()
		log.Fatalf("%s(%s) %s failed: %v", appName, appVersion, cmd.name, err)
	}
	logger.Info(cmd.done)
}

func printUsage() {
	fmt.Printf("%s - ControlRest operator commands\n\nUsage:\n  %s <command> [--key=value ...]\n\nCommands:\n", appName, appName)
	for _, c := range registry {
		fmt.Printf("  %-12s %s\n", c.name, c.summary)
	}
	fmt.Printf("  %-12s %s\n  %-12s %s\n", "version", "Print version information", "help", "Show this help message")
	fmt.Print(`
Configuration (env, config.yaml or --key=value):
  UTILS_LEDGER_URL        ledger.url, default http://localhost:8090
  UTILS_DB_DRIVER         db.driver for reset-db: mongo | postgres (default mongo)
  UTILS_DB_MONGO_URL      db.mongo.url, default mongodb://localhost:27017
  UTILS_DB_MONGO_NAME     db.mongo.name, default controlrest_ledger
  UTILS_DB_POSTGRES_URL   db.postgres.url
  UTILS_LOG_LEVEL         log.level: debug | info | error
`)
}
