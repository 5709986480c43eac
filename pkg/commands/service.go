package commands

import (
	"context"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/config"
	"tableflip.dev/questlog/pkg/logger"
)

// withService loads the configuration, starts a Service for the duration
// of fn and stops it afterwards.
func withService(ctx context.Context, fn func(svc *app.Service) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if so.Memory {
		cfg.StoreDriver = config.DriverMemory
		cfg.SessionPath = ""
	}
	log := logger.New(cfg.LogLevel)

	svc, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(svc)
}
