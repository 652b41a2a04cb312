package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := shared.ResolveConfigPath("")
	config, err := shared.LoadOrDefault(configPath)
	if err != nil {
		logger.Fatalf("failed to load config %s: %v", configPath, err)
	}
	logger.SetLevel(shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "shiftswap",
		Usage:    "Swap calendar shifts with your coworkers",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.Close()
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
