// Command taompbench is the external driver (component K) that exercises
// the core packages: it is not part of the library's public contract, only
// a stress-test and scenario runner built from it, in the spirit of the
// original's own benchmark/ and test/ directories.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/go-taomp/taomp/backoff"
	"github.com/go-taomp/taomp/internal/taompcfg"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "taompbench",
		Short:         "Exercise taomp's locks, hazard pointers, and MS-queue under concurrent load.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	taompcfg.BindFlags(root.PersistentFlags(), v)

	root.AddCommand(newLocksCmd(v))
	root.AddCommand(newHazardCmd(v))
	root.AddCommand(newQueueCmd(v))
	return root
}

// newLogger builds the process logger, retrying construction a few times
// with the library-backed backoff policy: zap's constructors touch the
// filesystem (for log rotation hooks) and can fail transiently on a
// loaded machine, which the spin-loop policies in package backoff are not
// meant to ride out.
func newLogger(cfg taompcfg.Config) (*zap.Logger, error) {
	build := func() (*zap.Logger, error) {
		if cfg.LogEncoding == "json" {
			return zap.NewProduction()
		}
		return zap.NewDevelopment()
	}

	retry := backoff.NewFromLibrary(10*time.Millisecond, 200*time.Millisecond)
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		logger, err := build()
		if err == nil {
			return logger, nil
		}
		lastErr = err
		if _, done := retry.Next(); done {
			break
		}
	}
	return nil, fmt.Errorf("taompbench: logger construction failed after retries: %w", lastErr)
}

func loadConfig(v *viper.Viper) (taompcfg.Config, *zap.Logger, error) {
	cfg, err := taompcfg.FromViper(v)
	if err != nil {
		return taompcfg.Config{}, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return taompcfg.Config{}, nil, err
	}
	return cfg, logger, nil
}
