package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/go-taomp/taomp/hazard"
	"github.com/go-taomp/taomp/registry"
)

type bench struct {
	v atomic.Int32
}

type benchAllocator struct{}

func (benchAllocator) Allocate(n int) []*bench {
	out := make([]*bench, n)
	for i := range out {
		out[i] = &bench{}
	}
	return out
}

func (benchAllocator) Deallocate(p *bench) {
	p.v.Store(1)
}

func newHazardCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hazard",
		Short: "Exercise the hazard-pointer no-premature-free and progress properties.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runHazardScenario(logger, cfg.ThreadNum, cfg.HazardSlotsPerThread, cfg.RetireThreshold, cfg.Ops)
		},
	}
	return cmd
}

func runHazardScenario(logger *zap.Logger, threadNum, slotsPerThread, retireThreshold, ops int) error {
	alloc := benchAllocator{}
	totalSlots := threadNum * slotsPerThread
	start := time.Now()

	d, err := hazard.New[bench](threadNum, totalSlots, alloc, retireThreshold)
	if err != nil {
		return err
	}
	reg := registry.New(threadNum)

	g := new(errgroup.Group)
	for i := 0; i < threadNum; i++ {
		g.Go(func() error {
			tid := reg.Join()
			win := d.Window(tid, slotsPerThread)
			preserved := alloc.Allocate(1)[0]
			win.Preserve(0, preserved)
			d.Retire(tid, preserved)
			for j := 0; j < ops; j++ {
				d.Retire(tid, &bench{})
			}
			if preserved.v.Load() != 0 {
				return fmt.Errorf("hazard: thread %d's preserved pointer was freed prematurely", tid)
			}
			win.Preserve(0, nil)
			d.ForcedDeallocate(tid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("hazard-pointer scenario complete",
		zap.Int("threads", threadNum),
		zap.Int("total_slots", totalSlots),
		zap.Int("ops_per_thread", ops),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
