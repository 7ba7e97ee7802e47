package main

import (
	"fmt"
	"os"

	"github.com/fxnlabs/device-runtime/internal/config"
	"github.com/fxnlabs/device-runtime/internal/logger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	var cfg *config.Config
	var rootLogger *zap.Logger

	app := &cli.App{
		Name:  "devrt",
		Usage: "Inspect and exercise the device execution contexts of this host",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Value:       config.GetDefaultConfigPath(),
				Usage:       "Path to the devrt config file",
				EnvVars:     []string{"DEVRT_CONFIG"},
				Destination: &configPath,
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				// Missing config is fine for ad-hoc use.
				if !os.IsNotExist(err) {
					return err
				}
				cfg = config.Default()
			}
			zapLogger, err := logger.New(cfg.Logger.Verbosity)
			if err != nil {
				return err
			}
			rootLogger = zapLogger.Named("cli")
			c.App.Metadata["config"] = cfg
			c.App.Metadata["logger"] = rootLogger
			return nil
		},
		Commands: []*cli.Command{
			devicesCommand(),
			smokeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if rootLogger != nil {
			rootLogger.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
