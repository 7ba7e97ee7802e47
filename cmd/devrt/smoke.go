package main

import (
	"fmt"
	"net/http"

	"github.com/fxnlabs/device-runtime/internal/config"
	"github.com/fxnlabs/device-runtime/internal/devctx"
	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/fxnlabs/device-runtime/internal/registry"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas"
)

const smokeMatrixDim = 64

func smokeCommand() *cli.Command {
	var workers int
	var rounds int

	return &cli.Command{
		Name:  "smoke",
		Usage: "Exercise the accelerator context: concurrent workspace users plus a matmul on the math handle",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "workers",
				Value:       8,
				Usage:       "Concurrent workspace users",
				Destination: &workers,
			},
			&cli.IntFlag{
				Name:        "rounds",
				Value:       64,
				Usage:       "Workspace requests per worker",
				Destination: &rounds,
			},
		},
		Action: func(c *cli.Context) error {
			cfg := c.App.Metadata["config"].(*config.Config)
			log := c.App.Metadata["logger"].(*zap.Logger)

			if cfg.Metrics.Listen != "" {
				go func() {
					http.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(cfg.Metrics.Listen, nil); err != nil {
						log.Error("metrics listener failed", zap.Error(err))
					}
				}()
			}

			reg, err := registry.Build([]device.Place{device.Accel(0)}, registry.WithLogger(log))
			if err != nil {
				return err
			}
			defer reg.Destroy()

			ctx, err := reg.Get(device.Accel(0))
			if err != nil {
				return err
			}
			accelCtx, ok := ctx.(*devctx.AcceleratorContext)
			if !ok {
				return errors.New("accel:0 did not resolve to an accelerator context")
			}

			var g errgroup.Group
			for w := 0; w < workers; w++ {
				w := w
				g.Go(func() error {
					for i := 0; i < rounds; i++ {
						required := 512 << uint((w+i)%6)
						err := accelCtx.RunWithWorkspace(func(ws []byte) error {
							if len(ws) < required {
								return errors.Errorf("workspace too small: %d < %d", len(ws), required)
							}
							ws[0] = byte(w)
							return nil
						}, required)
						if err != nil {
							return err
						}
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			// One matmul through the queue-bound math handle.
			n := smokeMatrixDim
			a := make([]float32, n*n)
			b := make([]float32, n*n)
			out := make([]float32, n*n)
			for i := range a {
				a[i] = 1
				b[i] = 2
			}
			if err := accelCtx.MathHandle().Sgemm(blas.NoTrans, blas.NoTrans, n, n, n, 1, a, n, b, n, 0, out, n); err != nil {
				return err
			}
			accelCtx.Wait()
			if got, want := out[0], float32(2*n); got != want {
				return errors.Errorf("matmul mismatch: got %v, want %v", got, want)
			}

			fmt.Printf("smoke ok: %d workers x %d rounds, matmul %dx%d verified\n", workers, rounds, n, n)
			return nil
		},
	}
}
