package main

import (
	"context"
	"net/http"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"epaperdash/pkg/config"
	"epaperdash/pkg/dashboard"
	"epaperdash/pkg/frame"
	"epaperdash/pkg/httpapi"
	"epaperdash/pkg/panel"
	"epaperdash/pkg/raster"
	"epaperdash/pkg/settings"
	"epaperdash/pkg/weather"
)

var listen = flag.String("listen", ":5000", "listen addr")
var stateDir = flag.String("state-dir", "", "override state directory")
var demo = flag.Bool("demo", false, "run without panel hardware")
var auto = flag.Bool("auto", true, "start the dashboard auto refresh loop")
var tgToken = flag.String("tg-token", "", "telegram bot token")
var debug = flag.Bool("debug", false, "set debug")

func main() {
	flag.Parse()

	fx.New(
		fx.Provide(
			newLogger,
			newConfig,
			func() afero.Fs { return afero.NewOsFs() },
			newRasterStore,
			newSettingsStore,
			newWeatherClient,
			newFonts,
			dashboard.NewRenderer,
			newDevice,
			panel.NewDisplay,
			frame.NewController,
			frame.NewLoop,
			newServer,
		),
		fx.Invoke(run),
	).Run()
}

func newLogger() (*zap.Logger, error) {
	if *debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newConfig() *config.Config {
	cfg := config.Default()
	cfg.Listen = *listen
	if *stateDir != "" {
		cfg.Rebase(*stateDir)
	}
	return cfg
}

func newRasterStore(cfg *config.Config, fs afero.Fs, logger *zap.Logger) *raster.Store {
	return raster.NewStore(fs, cfg.CurrentImagePath, cfg.BaseImagePath, cfg.DashboardPreviewPath, cfg.PreviewDir, logger)
}

func newSettingsStore(cfg *config.Config, fs afero.Fs, logger *zap.Logger) *settings.Store {
	return settings.NewStore(fs, cfg.SettingsPath, logger)
}

func newWeatherClient(cfg *config.Config, logger *zap.Logger) *weather.Client {
	return weather.NewClient(cfg.WeatherTimeout, cfg.WeatherUserAgent, logger)
}

func newFonts(cfg *config.Config, fs afero.Fs, logger *zap.Logger) *dashboard.FontSet {
	return dashboard.NewFontSet(fs, cfg.FontPaths, logger)
}

func newDevice(logger *zap.Logger) panel.Control {
	if *demo {
		return panel.Demo(logger)
	}
	return panel.Probe(logger)
}

func newServer(cfg *config.Config, ctrl *frame.Controller, loop *frame.Loop, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(cfg, ctrl, loop, logger)
}

func run(
	lc fx.Lifecycle,
	cfg *config.Config,
	dev panel.Control,
	ctrl *frame.Controller,
	loop *frame.Loop,
	api *httpapi.Server,
	logger *zap.Logger,
) error {
	srv := &http.Server{Addr: cfg.Listen, Handler: api.Router()}

	var bot *frame.Bot
	if *tgToken != "" {
		var err error
		if bot, err = frame.NewBot(*tgToken, ctrl, loop); err != nil {
			return err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if *auto {
				loop.Start()
			}
			if bot != nil {
				bot.Start()
			}
			go func() {
				logger.With(zap.String("addr", srv.Addr)).Info("http server listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.With(zap.Error(err)).Error("http server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if bot != nil {
				bot.Stop()
			}
			loop.Stop()
			if err := srv.Shutdown(ctx); err != nil {
				logger.With(zap.Error(err)).Info("http shutdown failed")
			}
			if err := dev.Shutdown(); err != nil {
				logger.With(zap.Error(err)).Info("panel shutdown failed")
			}
			return nil
		},
	})

	return nil
}
