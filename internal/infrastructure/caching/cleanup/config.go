package cleanup

import (
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

// Config holds background worker configuration, sourced from the central config package.
type Config struct {
	DrainInterval    time.Duration
	SweepInterval    time.Duration
	VerboseReporting bool
}

// NewConfig creates a worker configuration from the loaded process config.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		DrainInterval:    cfg.Queue.WorkerInterval,
		SweepInterval:    cfg.Cache.SweepInterval,
		VerboseReporting: cfg.Queue.WorkerVerbose,
	}
}
