// Package haltest is an in-memory hal backend for tests. It scripts the
// driver's answers (layers, GPUs, queue families, surface capabilities,
// acquire order, failures) and records every call in order.
package haltest

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vkframe/hal"
)

// ErrInjected is the default error produced by Fail.
var ErrInjected = errors.New("injected driver failure")

type Backend struct {
	Layers     []string
	Extensions []string
	GPUs       []*GPU

	// Calls is the ordered log of every driver call, e.g. "create fence#7".
	Calls []string

	Instances []*Instance
	Submits   []Submission
	Presents  []hal.PresentInfo
	Acquires  []Acquisition

	// DoubleDestroys names every object destroyed more than once.
	DoubleDestroys []string

	failures map[string][]error
	nextID   int
	live     map[int]*object
}

func NewBackend() *Backend {
	return &Backend{
		failures: map[string][]error{},
		live:     map[int]*object{},
	}
}

// Fail makes the next call to op return err, or ErrInjected when err is nil.
// Repeated calls queue further failures.
func (b *Backend) Fail(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	b.failures[op] = append(b.failures[op], err)
}

// Pass queues n successful calls to op; a Fail queued afterwards hits the
// call that follows them.
func (b *Backend) Pass(op string, n int) {
	for i := 0; i < n; i++ {
		b.failures[op] = append(b.failures[op], nil)
	}
}

func (b *Backend) fail(op string) error {
	queued := b.failures[op]
	if len(queued) == 0 {
		return nil
	}
	b.failures[op] = queued[1:]
	return queued[0]
}

func (b *Backend) record(format string, args ...any) {
	b.Calls = append(b.Calls, fmt.Sprintf(format, args...))
}

// CallsMatching returns the logged calls that start with prefix.
func (b *Backend) CallsMatching(prefix string) []string {
	var matched []string
	for _, call := range b.Calls {
		if strings.HasPrefix(call, prefix) {
			matched = append(matched, call)
		}
	}
	return matched
}

// Live lists every object that was created and not yet destroyed.
func (b *Backend) Live() []string {
	var names []string
	for id := 1; id <= b.nextID; id++ {
		if obj, ok := b.live[id]; ok {
			names = append(names, obj.String())
		}
	}
	return names
}

type object struct {
	backend   *Backend
	kind      string
	id        int
	destroyed bool
}

func (b *Backend) newObject(kind string) object {
	b.nextID++
	obj := object{backend: b, kind: kind, id: b.nextID}
	b.record("create %s", obj.String())
	return obj
}

func (o *object) track() {
	o.backend.live[o.id] = o
}

func (o *object) String() string {
	return fmt.Sprintf("%s#%d", o.kind, o.id)
}

func (o *object) ID() int {
	return o.id
}

func (o *object) Destroyed() bool {
	return o.destroyed
}

func (o *object) destroy() {
	if o.destroyed {
		o.backend.DoubleDestroys = append(o.backend.DoubleDestroys, o.String())
		return
	}
	o.destroyed = true
	delete(o.backend.live, o.id)
	o.backend.record("destroy %s", o.String())
}

func (b *Backend) AvailableLayers() ([]string, error) {
	if err := b.fail("AvailableLayers"); err != nil {
		return nil, err
	}
	return b.Layers, nil
}

func (b *Backend) AvailableExtensions() ([]string, error) {
	if err := b.fail("AvailableExtensions"); err != nil {
		return nil, err
	}
	return b.Extensions, nil
}

func (b *Backend) CreateInstance(desc hal.InstanceDescriptor) (hal.Instance, error) {
	if err := b.fail("CreateInstance"); err != nil {
		return nil, err
	}
	inst := &Instance{object: b.newObject("instance"), Descriptor: desc}
	inst.track()
	b.Instances = append(b.Instances, inst)
	return inst, nil
}

type Instance struct {
	object
	Descriptor hal.InstanceDescriptor
	Messenger  *DebugMessenger
}

func (i *Instance) CreateDebugMessenger(callback hal.DebugCallback) (hal.DebugMessenger, error) {
	if err := i.backend.fail("CreateDebugMessenger"); err != nil {
		return nil, err
	}
	m := &DebugMessenger{object: i.backend.newObject("messenger"), callback: callback}
	m.track()
	i.Messenger = m
	return m, nil
}

// Emit delivers a validation message through the installed messenger. It
// reports false when no live messenger exists.
func (i *Instance) Emit(msg hal.DebugMessage) bool {
	if i.Messenger == nil || i.Messenger.destroyed {
		return false
	}
	i.Messenger.callback(msg)
	return true
}

func (i *Instance) EnumeratePhysicalDevices() ([]hal.PhysicalDevice, error) {
	if err := i.backend.fail("EnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	i.backend.record("enumerate gpus")
	devices := make([]hal.PhysicalDevice, 0, len(i.backend.GPUs))
	for _, gpu := range i.backend.GPUs {
		gpu.backend = i.backend
		devices = append(devices, gpu)
	}
	return devices, nil
}

func (i *Instance) CreateSurface(window any) (hal.Surface, error) {
	if window == nil {
		return nil, errors.Mark(errors.New("nil window"), hal.ErrUnsupportedWindow)
	}
	if err := i.backend.fail("CreateSurface"); err != nil {
		return nil, err
	}
	s := &Surface{object: i.backend.newObject("surface"), Window: window}
	s.track()
	return s, nil
}

func (i *Instance) Destroy() {
	i.destroy()
}

type DebugMessenger struct {
	object
	callback hal.DebugCallback
}

func (m *DebugMessenger) Destroy() {
	m.destroy()
}

type Surface struct {
	object
	Window any
}

func (s *Surface) Destroy() {
	s.destroy()
}
