package main

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/go-taomp/taomp/linpoint"
	"github.com/go-taomp/taomp/msqueue"
	"github.com/go-taomp/taomp/registry"
)

func newQueueCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Exercise the Michael-Scott queue's conservation and linearizability properties.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(v)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runQueueScenario(logger, cfg.ThreadNum, cfg.Ops, cfg.Linearize)
		},
	}
	return cmd
}

func runQueueScenario(logger *zap.Logger, threadNum, ops int, linearize bool) error {
	var opts []msqueue.Option
	if linearize {
		opts = append(opts, msqueue.WithLinearization())
	}
	// threadNum workers plus one extra slot for the drain-phase thread below.
	q := msqueue.New[int](threadNum+1, opts...)
	reg := registry.New(threadNum + 1)
	start := time.Now()

	var mu sync.Mutex
	var enqueued, dequeued []int
	var stamps []linpoint.Stamp

	g := new(errgroup.Group)
	for w := 0; w < threadNum; w++ {
		w := w
		g.Go(func() error {
			tid := reg.Join()
			var localEnq, localDeq []int
			var localStamps []linpoint.Stamp
			for i := 0; i < ops; i++ {
				if i%2 == 0 {
					v := (i << 8) | w
					q.Enqueue(tid, v)
					localEnq = append(localEnq, v)
				} else if v, ok := q.Dequeue(tid); ok {
					localDeq = append(localDeq, v)
				}
				if linearize {
					localStamps = append(localStamps, q.LinearizationStamp(tid))
				}
			}
			mu.Lock()
			enqueued = append(enqueued, localEnq...)
			dequeued = append(dequeued, localDeq...)
			stamps = append(stamps, localStamps...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	overlapCount := 0
	if linearize {
		sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before.Before(stamps[j].Before) })
		for i := 1; i < len(stamps); i++ {
			if stamps[i-1].Overlaps(stamps[i]) {
				overlapCount++
			}
		}
	}

	tid := reg.Join()
	var drained []int
	for {
		v, ok := q.Dequeue(tid)
		if !ok {
			break
		}
		drained = append(drained, v)
	}

	got := append(append([]int{}, dequeued...), drained...)
	sort.Ints(enqueued)
	sort.Ints(got)

	conserved := len(enqueued) == len(got)
	if conserved {
		for i := range enqueued {
			if enqueued[i] != got[i] {
				conserved = false
				break
			}
		}
	}

	logger.Info("ms-queue scenario complete",
		zap.Int("threads", threadNum),
		zap.Int("ops_per_thread", ops),
		zap.Bool("linearize", linearize),
		zap.Bool("conserved", conserved),
		zap.Int("overlap_count", overlapCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	if !conserved {
		return errQueueNotConserved
	}
	return nil
}

var errQueueNotConserved = errors.New("queue: enqueued and dequeued+drained multisets differ")
