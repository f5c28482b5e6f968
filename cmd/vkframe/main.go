package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/config"
	"github.com/vkngwrapper/vkframe/engine"
	"github.com/vkngwrapper/vkframe/graphics"
	"github.com/vkngwrapper/vkframe/hal/vulkan"
	"github.com/vkngwrapper/vkframe/window"
)

// clearApp has no scene; it only keeps the clear pass running.
type clearApp struct {
	log     logrus.FieldLogger
	updates int
}

func (a *clearApp) Init(w engine.Window, r engine.Renderer) error {
	if renderer, ok := r.(*graphics.Renderer); ok {
		a.log.Infof("Rendering session %s", renderer.Session())
	}
	return nil
}

func (a *clearApp) Input(w engine.Window, diff time.Duration) {}

func (a *clearApp) Update(w engine.Window, diff time.Duration) {
	a.updates++
}

func (a *clearApp) CleanUp() {
	a.log.Debugf("Ran %d updates", a.updates)
}

func run() error {
	cfg, err := config.Load(".env", "vkframe.env")
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.Info("Starting application")

	win, err := window.New(window.Options{
		Title:  cfg.WindowTitle,
		Width:  cfg.WindowWidth,
		Height: cfg.WindowHeight,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	backend, err := vulkan.NewBackend(win.ProcAddr())
	if err != nil {
		win.Destroy()
		return err
	}

	renderer, err := graphics.NewRenderer(backend, win, cfg.Graphics(logger))
	if err != nil {
		win.Destroy()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &clearApp{log: logger.WithField("component", "app")}
	return engine.New(win, renderer, app, cfg.Engine(logger)).Run(ctx)
}

func main() {
	runtime.LockOSThread()

	if err := run(); err != nil {
		logrus.Fatalf("%+v\n", err)
	}
}
