package engine

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeWindow struct {
	polls     int
	closeAt   int
	calls     *[]string
	destroyed bool
}

func (w *fakeWindow) PollEvents()       { w.polls++ }
func (w *fakeWindow) ShouldClose() bool { return w.closeAt > 0 && w.polls >= w.closeAt }
func (w *fakeWindow) Destroy() {
	w.destroyed = true
	*w.calls = append(*w.calls, "window")
}

type fakeRenderer struct {
	frames  int
	failAt  int
	calls   *[]string
	destroy error
}

func (r *fakeRenderer) Render() error {
	r.frames++
	if r.failAt > 0 && r.frames == r.failAt {
		return errors.New("device lost")
	}
	return nil
}

func (r *fakeRenderer) Destroy() error {
	*r.calls = append(*r.calls, "renderer")
	return r.destroy
}

type fakeApp struct {
	initErr error
	inputs  int
	updates int
	calls   *[]string
}

func (a *fakeApp) Init(Window, Renderer) error { return a.initErr }
func (a *fakeApp) Input(Window, time.Duration) { a.inputs++ }
func (a *fakeApp) Update(Window, time.Duration) {
	a.updates++
}
func (a *fakeApp) CleanUp() {
	*a.calls = append(*a.calls, "app")
}

func newFakes(closeAt int) (*fakeWindow, *fakeRenderer, *fakeApp, *[]string) {
	calls := &[]string{}
	return &fakeWindow{closeAt: closeAt, calls: calls}, &fakeRenderer{calls: calls}, &fakeApp{calls: calls}, calls
}

func TestRunUntilWindowCloses(t *testing.T) {
	c := qt.New(t)
	window, renderer, app, calls := newFakes(5)
	logger, _ := test.NewNullLogger()

	e := New(window, renderer, app, Options{UPS: 1000, Logger: logger})
	c.Assert(e.Run(context.Background()), qt.IsNil)

	c.Assert(renderer.frames, qt.Equals, 5)
	c.Assert(app.inputs, qt.Equals, 5)
	c.Assert(app.updates <= 5, qt.IsTrue)
	c.Assert(*calls, qt.DeepEquals, []string{"app", "renderer", "window"})
}

func TestRunStopsOnRenderError(t *testing.T) {
	c := qt.New(t)
	window, renderer, app, calls := newFakes(0)
	renderer.failAt = 3

	e := New(window, renderer, app, Options{StatsInterval: time.Hour})
	err := e.Run(context.Background())
	c.Assert(err, qt.ErrorMatches, "render: device lost")
	c.Assert(*calls, qt.DeepEquals, []string{"app", "renderer", "window"})
}

func TestRunInitFailure(t *testing.T) {
	c := qt.New(t)
	window, renderer, app, calls := newFakes(0)
	app.initErr = errors.New("no assets")
	renderer.destroy = errors.New("wait idle failed")

	err := New(window, renderer, app, Options{}).Run(context.Background())
	c.Assert(err, qt.ErrorMatches, "init application: no assets")
	c.Assert(renderer.frames, qt.Equals, 0)
	c.Assert(*calls, qt.DeepEquals, []string{"app", "renderer", "window"})
}

func TestRunCancelled(t *testing.T) {
	c := qt.New(t)
	window, renderer, app, _ := newFakes(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Assert(New(window, renderer, app, Options{}).Run(ctx), qt.IsNil)
	c.Assert(renderer.frames, qt.Equals, 0)
	c.Assert(window.destroyed, qt.IsTrue)
}

func TestUpdatesRunAtFixedRate(t *testing.T) {
	c := qt.New(t)
	window, renderer, app, _ := newFakes(0)
	// Each frame takes about 10ms, so a 50 UPS loop updates every other frame.
	slow := &slowRenderer{fakeRenderer: renderer, delay: 10 * time.Millisecond, stopAfter: 20, window: window}

	c.Assert(New(window, slow, app, Options{UPS: 50}).Run(context.Background()), qt.IsNil)
	c.Assert(app.inputs, qt.Equals, 20)
	c.Assert(app.updates > 0, qt.IsTrue)
	c.Assert(app.updates < app.inputs, qt.IsTrue)
}

type slowRenderer struct {
	*fakeRenderer
	delay     time.Duration
	stopAfter int
	window    *fakeWindow
}

func (r *slowRenderer) Render() error {
	time.Sleep(r.delay)
	if err := r.fakeRenderer.Render(); err != nil {
		return err
	}
	if r.frames >= r.stopAfter {
		r.window.closeAt = r.window.polls
	}
	return nil
}

func TestLogStats(t *testing.T) {
	c := qt.New(t)
	logger, hook := test.NewNullLogger()
	window, renderer, app, _ := newFakes(0)
	e := New(window, renderer, app, Options{Logger: logger})

	e.logStats()
	c.Assert(hook.AllEntries(), qt.HasLen, 0)

	e.stats.record(2 * time.Millisecond)
	e.stats.record(4 * time.Millisecond)
	e.logStats()
	entry := hook.LastEntry()
	c.Assert(entry.Level, qt.Equals, logrus.InfoLevel)
	c.Assert(entry.Data["frames"], qt.Equals, int64(2))
	c.Assert(entry.Data["average"], qt.Equals, 3*time.Millisecond)
	c.Assert(entry.Data["component"], qt.Equals, "engine")

	frames, total := e.stats.take()
	c.Assert(frames, qt.Equals, int64(0))
	c.Assert(total, qt.Equals, time.Duration(0))
}
