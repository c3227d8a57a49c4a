package hookcfg

import (
	"context"

	"github.com/flitsinc/go-hooks/internal/bridge"
)

type loadResult struct {
	cfg  *Config
	errs []string
}

// LoadBlocking is Load for callers without a context of their own.
func (s *Store) LoadBlocking() (*Config, []string) {
	out, _ := bridge.Run(func(ctx context.Context) (loadResult, error) {
		cfg, errs := s.Load(ctx)
		return loadResult{cfg: cfg, errs: errs}, nil
	})
	return out.cfg, out.errs
}
