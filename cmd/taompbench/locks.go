package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	tbackoff "github.com/go-taomp/taomp/backoff"
	"github.com/go-taomp/taomp/qlock"
	"github.com/go-taomp/taomp/spinlock"
)

func newLocksCmd(v *viper.Viper) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "locks",
		Short: "Run the counter-under-lock mutual-exclusion scenario for one lock kind.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runLocksScenario(cmd.Context(), logger, kind, cfg.ThreadNum, cfg.Ops, cfg.BackoffMin, cfg.BackoffMax)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "ttas", "lock kind: tas, ttas, native, array, clh, mcs")
	return cmd
}

func runLocksScenario(ctx context.Context, logger *zap.Logger, kind string, threadNum, ops int, min, max time.Duration) error {
	start := time.Now()

	var counter int
	g, _ := errgroup.WithContext(ctx)

	switch kind {
	case "tas", "ttas", "native":
		var lock spinlock.Locker
		switch kind {
		case "tas":
			lock = &spinlock.TAS{}
		case "ttas":
			lock = &spinlock.TTAS{}
		default:
			lock = &spinlock.Native{}
		}
		for i := 0; i < threadNum; i++ {
			g.Go(func() error {
				policy := tbackoff.NewExponential(min, max)
				for j := 0; j < ops; j++ {
					lock.Lock(policy)
					counter++
					lock.Unlock()
				}
				return nil
			})
		}
	case "array":
		lock := qlock.NewArrayLock(threadNum)
		for i := 0; i < threadNum; i++ {
			g.Go(func() error {
				for j := 0; j < ops; j++ {
					h := lock.Lock()
					counter++
					lock.Unlock(h)
				}
				return nil
			})
		}
	case "clh":
		lock := qlock.NewCLHLock()
		for i := 0; i < threadNum; i++ {
			g.Go(func() error {
				my := qlock.NewCLHNode()
				for j := 0; j < ops; j++ {
					pred := lock.Acquire(my)
					counter++
					lock.Release(my)
					my = pred
				}
				return nil
			})
		}
	case "mcs":
		lock := qlock.NewMCSLock()
		for i := 0; i < threadNum; i++ {
			g.Go(func() error {
				my := &qlock.MCSNode{}
				for j := 0; j < ops; j++ {
					lock.Acquire(my)
					counter++
					lock.Release(my)
				}
				return nil
			})
		}
	default:
		return fmt.Errorf("locks: unknown kind %q", kind)
	}

	if err := g.Wait(); err != nil {
		return err
	}

	want := threadNum * ops
	elapsed := time.Since(start)
	logger.Info("counter-under-lock scenario complete",
		zap.String("kind", kind),
		zap.Int("want", want),
		zap.Int("got", counter),
		zap.Bool("ok", counter == want),
		zap.Duration("elapsed", elapsed),
	)
	if counter != want {
		return fmt.Errorf("locks: mutual exclusion violated: want %d, got %d", want, counter)
	}
	return nil
}
