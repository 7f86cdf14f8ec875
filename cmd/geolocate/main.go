package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/roman-kulish/sar-geolocator/cmd/geolocate/app"
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	var configPath string
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -c config.yaml <image|directory>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if configPath == "" {
		logger.Error("no configuration file provided")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		logger.Error("no images provided")
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load() // .env is optional

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", configPath))
		os.Exit(1)
	}

	_ = logLevel.UnmarshalText([]byte(config.Settings.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, flag.Args(), app.Dependencies{}, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
