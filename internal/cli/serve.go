package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/vburojevic/mscope/internal/server"
	"go.uber.org/zap"
)

// ServeCmd exposes one dashboard session over HTTP
type ServeCmd struct {
	Addr     string   `short:"a" help:"Listen address (default: server.addr from config)"`
	Origins  []string `help:"Allowed CORS origins (default: server.allowed_origins from config)"`
	NoSplash bool     `help:"Start in the Ready phase instead of waiting for the splash timer"`
}

// Run executes the serve command
func (c *ServeCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ctrl, closeSession, err := openSession(ctx, globals)
	if err != nil {
		return outputError(globals, err)
	}
	defer closeSession()

	if c.NoSplash {
		_ = ctrl.FinishLoading()
	} else {
		ctrl.ScheduleLoading(globals.Config.Splash())
	}

	addr := c.Addr
	if addr == "" {
		addr = globals.Config.Server.Addr
	}
	origins := c.Origins
	if len(origins) == 0 {
		origins = globals.Config.Server.AllowedOrigins
	}

	srv := server.New(addr, ctrl, server.Options{
		AllowedOrigins: origins,
		Logger:         globals.logger().Named("http"),
	})
	globals.logger().Info("serving dashboard session",
		zap.String("addr", addr),
		zap.String("history_backend", globals.Config.History.Backend))

	if err := srv.Run(ctx); err != nil {
		return outputError(globals, err)
	}
	return nil
}
