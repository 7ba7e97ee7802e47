package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/fxnlabs/device-runtime/internal/config"
	"github.com/fxnlabs/device-runtime/internal/devctx"
	"github.com/fxnlabs/device-runtime/internal/registry"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func devicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "Build the context registry from the config and list every device context",
		Action: func(c *cli.Context) error {
			cfg := c.App.Metadata["config"].(*config.Config)
			log := c.App.Metadata["logger"].(*zap.Logger)

			places, err := cfg.Places()
			if err != nil {
				return err
			}
			reg, err := registry.Build(places, registry.WithLogger(log))
			if err != nil {
				return err
			}
			defer reg.Destroy()

			banner := figure.NewFigure("devrt", "", true)
			banner.Print()
			fmt.Println("")

			caps := registry.DetectCapabilities()
			fmt.Printf("Capabilities: accelerator=%v optimized-cpu=%v\n", caps.Accelerator, caps.OptimizedCPU)
			fmt.Println("-----------------------------------------------")

			for _, ctx := range reg.All() {
				switch dc := ctx.(type) {
				case *devctx.AcceleratorContext:
					fmt.Printf("%-10s accelerator  capability=%d  max_threads=%d  queue=%s\n",
						dc.Place(), dc.ComputeCapability(), dc.MaxPhysicalThreads(), dc.Queue().ID())
				case *devctx.OptimizedCPUContext:
					fmt.Printf("%-10s cpu (optimized kernels)\n", dc.Place())
				case *devctx.CPUContext:
					fmt.Printf("%-10s cpu\n", dc.Place())
				case *devctx.PinnedContext:
					fmt.Printf("%-10s pinned host memory\n", dc.Place())
				default:
					fmt.Printf("%-10s unknown context kind\n", ctx.Place())
				}
			}
			return nil
		},
	}
}
