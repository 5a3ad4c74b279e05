package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/delivery/cmd/utils/internal/commands"
	"github.com/aquamarinepk/aqm"
)

const (
	appName    = "delivery-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := aqm.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel := config.GetStringOrDef("log.level", "info")
	logger := aqm.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		logger.Info("Demo seeding completed successfully")

	case "clear-demo":
		if err := commands.ClearDemo(ctx, config, logger); err != nil {
			log.Fatalf("Clear demo data failed: %v", err)
		}
		logger.Info("Demo data cleared successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("Database reset failed: %v", err)
		}
		logger.Info("Database reset completed successfully")

	case "outbox-stats":
		if err := commands.OutboxStats(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("Outbox stats failed: %v", err)
		}

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - delivery utility commands

Usage:
  %s <command> [options]

Commands:
  seed-demo     Create demo orders, kitchen orders and payments (needs the demo restaurants)
  clear-demo    Remove the demo orders, kitchen orders and payments
  reset-db      Drop the order, restaurant and payment databases - USE WITH CAUTION
  outbox-stats  Print outbox messages per status
  version       Print version information
  help          Show this help message

Environment Variables:
  UTILS_DB_MONGO_URL   MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_LOG_LEVEL      Log level: debug, info, error (default: info)
  UTILS_SERVICE        outbox-stats only: order, restaurant or payment (default: all)

Examples:
  %s seed-demo
  UTILS_SERVICE=order %s outbox-stats
  UTILS_DB_MONGO_URL=mongodb://localhost:27017 %s reset-db

`, appName, appName, appName, appName, appName)
}
