// Package engine runs the application loop: it polls the window, feeds
// input to the application every iteration, updates it at a fixed rate and
// renders one frame per iteration.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Window is what the loop needs from the windowing layer.
type Window interface {
	PollEvents()
	ShouldClose() bool
	Destroy()
}

type Renderer interface {
	Render() error
	Destroy() error
}

// AppLogic is implemented by the application driven by the engine.
type AppLogic interface {
	Init(window Window, renderer Renderer) error
	// Input is called once per loop iteration with the time since the
	// previous iteration.
	Input(window Window, diff time.Duration)
	// Update is called at the fixed update rate with the time since the
	// previous update.
	Update(window Window, diff time.Duration)
	CleanUp()
}

type Options struct {
	// UPS is the number of updates per second.
	UPS int
	// StatsInterval is how often frame statistics are logged; zero
	// disables reporting.
	StatsInterval time.Duration
	Logger        logrus.FieldLogger
}

type Engine struct {
	window   Window
	renderer Renderer
	app      AppLogic
	opts     Options
	stats    stats
	log      logrus.FieldLogger
}

func New(window Window, renderer Renderer, app AppLogic, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.UPS <= 0 {
		opts.UPS = 30
	}
	return &Engine{
		window:   window,
		renderer: renderer,
		app:      app,
		opts:     opts,
		log:      log.WithField("component", "engine"),
	}
}

// Run initialises the application and loops until the window asks to close,
// ctx is cancelled or a frame fails. The application, renderer and window are
// torn down in that order before Run returns.
func (e *Engine) Run(ctx context.Context) (err error) {
	defer func() {
		err = errors.CombineErrors(err, e.cleanUp())
	}()

	if err := e.app.Init(e.window, e.renderer); err != nil {
		return errors.Wrap(err, "init application")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.StatsInterval > 0 {
		g.Go(func() error {
			return e.reportStats(gctx)
		})
	}

	loopErr := e.loop(gctx)
	cancel()
	return errors.CombineErrors(loopErr, g.Wait())
}

func (e *Engine) loop(ctx context.Context) error {
	updateInterval := time.Second / time.Duration(e.opts.UPS)

	previous := hrtime.Now()
	lastUpdate := previous
	var deltaUpdate float64

	for ctx.Err() == nil && !e.window.ShouldClose() {
		e.window.PollEvents()

		now := hrtime.Now()
		deltaUpdate += float64(now-previous) / float64(updateInterval)

		e.app.Input(e.window, now-previous)

		if deltaUpdate >= 1 {
			e.app.Update(e.window, now-lastUpdate)
			lastUpdate = now
			deltaUpdate--
		}

		start := hrtime.Now()
		if err := e.renderer.Render(); err != nil {
			return errors.Wrap(err, "render")
		}
		e.stats.record(hrtime.Since(start))

		previous = now
	}
	return nil
}

func (e *Engine) cleanUp() error {
	e.log.Debug("Shutting down")
	e.app.CleanUp()
	err := e.renderer.Destroy()
	e.window.Destroy()
	return err
}

func (e *Engine) reportStats(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.logStats()
		}
	}
}

// logStats logs and resets the counters gathered since the last report.
func (e *Engine) logStats() {
	frames, total := e.stats.take()
	if frames == 0 {
		return
	}
	e.log.WithFields(logrus.Fields{
		"frames":  frames,
		"average": total / time.Duration(frames),
	}).Info("Frame statistics")
}

type stats struct {
	frames atomic.Int64
	total  atomic.Int64
}

func (s *stats) record(frame time.Duration) {
	s.frames.Add(1)
	s.total.Add(int64(frame))
}

func (s *stats) take() (int64, time.Duration) {
	return s.frames.Swap(0), time.Duration(s.total.Swap(0))
}
