package cli

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/mscope/internal/config"
	"github.com/vburojevic/mscope/internal/history"
	"github.com/vburojevic/mscope/internal/scan"
	"github.com/vburojevic/mscope/internal/session"
	"go.uber.org/zap"
)

// newSource builds the scan source described by cfg.
func newSource(cfg *config.Config, clk clock.Clock) scan.Source {
	opts := []scan.MockOption{
		scan.WithClock(clk),
		scan.WithLocation(cfg.Scan.Location),
	}
	if cfg.Scan.Seed != 0 {
		opts = append(opts, scan.WithSeed(cfg.Scan.Seed))
	}

	var src scan.Source = scan.NewMockSource(opts...)
	if d := cfg.ScanLatency(); d > 0 {
		src = scan.WithLatency(src, d, clk)
	}
	if d := cfg.ScanTimeout(); d > 0 {
		src = scan.WithTimeout(src, d)
	}
	return src
}

// openStore opens the configured history backend.
func openStore(ctx context.Context, globals *Globals) (history.Store, func() error, error) {
	cfg := globals.Config
	globals.Debug("Opening history store: backend=%s path=%s", cfg.History.Backend, cfg.History.Path)
	return history.Open(ctx, cfg.History.Backend, cfg.History.Path, history.WithLogger(globals.logger()))
}

// openSession wires a controller to the configured source and store. The
// returned close function disposes the controller and then the store.
func openSession(ctx context.Context, globals *Globals) (*session.Controller, func() error, error) {
	store, closeStore, err := openStore(ctx, globals)
	if err != nil {
		return nil, nil, err
	}

	clk := clock.New()
	logger := globals.logger()
	ctrl := session.New(newSource(globals.Config, clk), store,
		session.WithLogger(logger),
		session.WithClock(clk),
	)
	ctrl.Subscribe(func(v session.View) {
		logger.Debug("session state",
			zap.String("page", v.Page.String()),
			zap.String("subview", v.Subview.String()),
			zap.Bool("saving", v.Saving),
			zap.Int("history", v.HistoryCount))
	})

	return ctrl, func() error {
		ctrl.Close()
		_ = logger.Sync()
		return closeStore()
	}, nil
}
