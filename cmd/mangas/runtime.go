package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kerbaras/mangasync/pkg/config"
	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/integrations"
	"github.com/kerbaras/mangasync/pkg/logger"
	"github.com/kerbaras/mangasync/pkg/metrics"
	"github.com/kerbaras/mangasync/pkg/services"
	"github.com/kerbaras/mangasync/pkg/sources"
	"github.com/kerbaras/mangasync/pkg/utils"
)

// runtime holds what every command shares for one invocation.
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	repo       *data.Repository
	registry   *prometheus.Registry
	controller *services.TitleController
}

var rt *runtime

func openRuntime() error {
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, logCloser, err := logger.Open(cfg.LogLevel, logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
	})
	if err != nil {
		return err
	}
	logger.SetupDefault(log)

	repo, err := data.OpenRepository(cfg.StoreDriver, cfg.StorePath, cfg.Capacity)
	if err != nil {
		logCloser.Close()
		return fmt.Errorf("open store: %w", err)
	}

	apiOpts := func(token string) []utils.APIOption {
		return []utils.APIOption{
			utils.WithToken(token),
			utils.WithRate(cfg.HTTPRate),
			utils.WithTimeout(cfg.HTTPTimeout),
		}
	}
	mangadex := sources.NewMangaDex(utils.NewAPI(cfg.MangaDexURL, apiOpts(cfg.MangaDexToken)...), cfg.MangaDexLanguage)
	registry := integrations.NewRegistry(
		integrations.NewAniList(utils.NewAPI(cfg.AniListURL, apiOpts(cfg.AniListToken)...)),
	)

	reg := prometheus.NewRegistry()
	rt = &runtime{
		cfg:       cfg,
		logger:    log,
		logCloser: logCloser,
		repo:      repo,
		registry:  reg,
		controller: services.NewTitleController(services.ControllerConfig{
			Store:    repo,
			Registry: registry,
			Source:   mangadex,
			Mirror:   mangadex,
			Metrics:  metrics.NewCollector(reg),
			Logger:   log,
			Options:  cfg.Options(),
		}),
	}
	return nil
}

func closeRuntime() error {
	if rt == nil {
		return nil
	}
	var errs []error
	if rt.cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(rt.cfg.MetricsTextfile, rt.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := rt.repo.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := rt.logCloser.Close(); err != nil {
		errs = append(errs, err)
	}
	rt = nil
	return errors.Join(errs...)
}
