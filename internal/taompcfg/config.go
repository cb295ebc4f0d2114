// Package taompcfg loads cmd/taompbench's runtime configuration: flags bound
// through spf13/pflag, layered with spf13/viper so the same settings can
// come from TAOMP_-prefixed environment variables, matching the
// flags-plus-env convention used throughout the corpus's CLI tools (e.g.
// gravitational/teleport, grafana/tempo).
package taompcfg

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every construction-time parameter the core packages expose,
// collected in one place for the CLI driver.
type Config struct {
	ThreadNum            int
	HazardSlotsPerThread int
	RetireThreshold      int
	BackoffMin           time.Duration
	BackoffMax           time.Duration
	Linearize            bool
	Ops                  int
	LogEncoding          string // "console" or "json"
}

// BindFlags registers this package's flags on fs and binds them into v so
// TAOMP_-prefixed environment variables can override defaults before flags
// are parsed.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.Int("threads", 8, "number of worker goroutines")
	fs.Int("hazard-slots-per-thread", 2, "hazard pointer slots per thread")
	fs.Int("retire-threshold", 0, "hazard pointer retire threshold (0 = default H+1)")
	fs.Duration("backoff-min", 100*time.Nanosecond, "minimum spin backoff delay")
	fs.Duration("backoff-max", 10*time.Microsecond, "maximum spin backoff delay")
	fs.Bool("linearize", false, "record linearization-point timestamps for the queue scenario")
	fs.Int("ops", 10000, "operations per worker goroutine")
	fs.String("log-encoding", "console", "log encoding: console or json")

	v.SetEnvPrefix("TAOMP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(fs)
}

// FromViper materializes a Config from a bound viper.Viper, after flags have
// been parsed.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		ThreadNum:            v.GetInt("threads"),
		HazardSlotsPerThread: v.GetInt("hazard-slots-per-thread"),
		RetireThreshold:      v.GetInt("retire-threshold"),
		BackoffMin:           v.GetDuration("backoff-min"),
		BackoffMax:           v.GetDuration("backoff-max"),
		Linearize:            v.GetBool("linearize"),
		Ops:                  v.GetInt("ops"),
		LogEncoding:          v.GetString("log-encoding"),
	}
	if c.ThreadNum <= 0 {
		return Config{}, fmt.Errorf("taompcfg: threads must be positive, got %d", c.ThreadNum)
	}
	if c.Ops <= 0 {
		return Config{}, fmt.Errorf("taompcfg: ops must be positive, got %d", c.Ops)
	}
	if c.BackoffMin <= 0 || c.BackoffMax < c.BackoffMin {
		return Config{}, fmt.Errorf("taompcfg: require 0 < backoff-min <= backoff-max")
	}
	return c, nil
}
