// Package sim is an in-process XR runtime. It implements the xr.Runtime,
// xr.Session and xr.SwapchainImages interfaces with scripted lifecycle
// events, CPU-backed swapchain images and optional display pacing, so the
// whole session/frame-loop core runs and is testable without a headset.
//
// The simulated runtime enforces the same call-order rules a device
// runtime would: begin/end pairing, the image acquire/wait/release
// cycle, and session loss semantics. Violations come back as
// xr.RuntimeError values, which is exactly what the tests assert on.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/internal/clock"
)

// Option configures the simulated runtime.
type Option func(*Runtime)

// Script seeds the runtime's event queue. Events are delivered in order
// by PollEvent.
func Script(events []xr.Event) Option {
	return func(r *Runtime) {
		r.events = append(r.events, events...)
	}
}

// StateSequence builds the state-changed events for a lifecycle path,
// for use with Script.
func StateSequence(states ...xr.SessionState) []xr.Event {
	evs := make([]xr.Event, len(states))
	for i, s := range states {
		evs[i] = xr.StateEvent(s)
	}
	return evs
}

// WithViewConfig overrides the stereo view arrangement. The default is
// two 1024x1024 views.
func WithViewConfig(cfg xr.ViewConfig) Option {
	return func(r *Runtime) { r.viewCfg = cfg }
}

// WithFormats overrides the preference-ordered swapchain format list.
func WithFormats(formats ...gputypes.TextureFormat) Option {
	return func(r *Runtime) { r.formats = formats }
}

// WithDisplayPeriod sets the predicted display period reported in frame
// timing records. The default is 11ms (roughly 90Hz).
func WithDisplayPeriod(d time.Duration) Option {
	return func(r *Runtime) { r.period = d }
}

// WithClock enables real pacing: WaitFrame sleeps one display period on
// the given clock. Without a clock, WaitFrame returns immediately, which
// keeps tests fast while display times still advance by the period.
func WithClock(c clock.Clock) Option {
	return func(r *Runtime) { r.clock = c }
}

// WithImageCount sets the number of images per swapchain. Default 3.
func WithImageCount(n int) Option {
	return func(r *Runtime) { r.imageCount = n }
}

// defaultViewConfig is a stereo pair of square views.
func defaultViewConfig() xr.ViewConfig {
	view := xr.ViewSpec{
		Recommended: xr.Extent{Width: 1024, Height: 1024},
		Max:         xr.Extent{Width: 2048, Height: 2048},
		SampleCount: 1,
	}
	return xr.ViewConfig{Views: []xr.ViewSpec{view, view}}
}

// Runtime is the simulated XR runtime. Events are scripted up front or
// pushed while running; a single session at a time can be created
// against it.
type Runtime struct {
	mu     sync.Mutex
	events []xr.Event

	viewCfg    xr.ViewConfig
	formats    []gputypes.TextureFormat
	blends     []xr.EnvironmentBlendMode
	period     time.Duration
	clock      clock.Clock
	imageCount int

	shouldRender bool
	untrackable  bool
	waitDelays   map[int]time.Duration

	active   *Session
	sessions int
}

// NewRuntime builds a simulated runtime. Without options it reports a
// stereo 1024x1024 view configuration, RGBA8 formats, opaque blending,
// and an empty event queue.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		viewCfg: defaultViewConfig(),
		formats: []gputypes.TextureFormat{
			gputypes.TextureFormatRGBA8Unorm,
			gputypes.TextureFormatRGBA8UnormSrgb,
		},
		blends:       []xr.EnvironmentBlendMode{xr.BlendOpaque},
		period:       11 * time.Millisecond,
		imageCount:   3,
		shouldRender: true,
		waitDelays:   map[int]time.Duration{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PollEvent pops the next scripted event, if any. Never blocks.
func (r *Runtime) PollEvent() (xr.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return xr.Event{}, false
	}
	ev := r.events[0]
	r.events = r.events[1:]
	return ev, true
}

// PushEvent appends an event to the queue. Safe to call from any
// goroutine, including while a frame is in flight.
func (r *Runtime) PushEvent(ev xr.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// ViewConfig returns the simulated stereo arrangement.
func (r *Runtime) ViewConfig() xr.ViewConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewCfg
}

// SetViewConfig swaps the view arrangement and queues the
// view-config-changed event, the way a runtime reacts to a render-scale
// change.
func (r *Runtime) SetViewConfig(cfg xr.ViewConfig) {
	r.mu.Lock()
	r.viewCfg = cfg
	r.events = append(r.events, xr.Event{Kind: xr.EventViewConfigChanged})
	r.mu.Unlock()
}

// SwapchainFormats returns the preference-ordered format list.
func (r *Runtime) SwapchainFormats() []gputypes.TextureFormat {
	return append([]gputypes.TextureFormat(nil), r.formats...)
}

// BlendModes returns the supported blend modes in preference order.
func (r *Runtime) BlendModes() []xr.EnvironmentBlendMode {
	return append([]xr.EnvironmentBlendMode(nil), r.blends...)
}

// SetShouldRender controls the ShouldRender flag of subsequent frame
// timing records. Frames with ShouldRender false still require the full
// begin/end pairing.
func (r *Runtime) SetShouldRender(v bool) {
	r.mu.Lock()
	r.shouldRender = v
	r.mu.Unlock()
}

// SetUntrackable controls whether LocateViews fails with
// xr.ErrSpaceUntrackable.
func (r *Runtime) SetUntrackable(v bool) {
	r.mu.Lock()
	r.untrackable = v
	r.mu.Unlock()
}

// SetImageWaitDelay makes eye's swapchain image waits take d. A delay
// longer than the caller's wait timeout produces a timeout error without
// any real sleeping.
func (r *Runtime) SetImageWaitDelay(eye int, d time.Duration) {
	r.mu.Lock()
	r.waitDelays[eye] = d
	r.mu.Unlock()
}

// LoseSession invalidates the active session the way a runtime-side
// fault would: every subsequent session call fails with a session-lost
// error, and the loss event lands in the queue.
func (r *Runtime) LoseSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.active.lose()
	}
	r.events = append(r.events, xr.Event{Kind: xr.EventSessionLost})
}

// Sessions returns the number of sessions created over the runtime's
// lifetime.
func (r *Runtime) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions
}

// ActiveSession returns the current session, or nil. Test helper for
// inspecting the call log.
func (r *Runtime) ActiveSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// CreateSession creates the simulated session. The binding is accepted
// but unused: the simulated runtime renders into CPU images and needs no
// GPU device. At most one live session exists at a time.
func (r *Runtime) CreateSession(_ xr.GraphicsBinding) (xr.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil && !r.active.destroyed {
		return nil, xr.ErrSessionExists
	}
	r.sessions++
	s := &Session{
		runtime:     r,
		displayTime: xr.Time(1_000_000_000), // arbitrary nonzero epoch
	}
	r.active = s
	return s, nil
}

// Session is the simulated session. Its call log records every frame
// and lifecycle call in order, which is what the pairing and ordering
// tests assert on.
type Session struct {
	mu      sync.Mutex
	runtime *Runtime

	begun     bool
	destroyed bool
	lost      bool

	frameBegun  bool
	displayTime xr.Time
	waits       int
	chainCount  int

	calls []string
	ends  []EndRecord
}

// EndRecord captures one EndFrame submission.
type EndRecord struct {
	DisplayTime xr.Time
	Mode        xr.EnvironmentBlendMode
	Layers      int
	Views       int
	EmptyViews  int
}

func (s *Session) lose() {
	s.mu.Lock()
	s.lost = true
	s.mu.Unlock()
}

func (s *Session) record(call string) {
	s.calls = append(s.calls, call)
}

// Calls returns a copy of the call log.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CountCalls returns how many log entries equal name.
func (s *Session) CountCalls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

// EndRecords returns a copy of the EndFrame submissions.
func (s *Session) EndRecords() []EndRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EndRecord(nil), s.ends...)
}

// Begin starts the session's frame protocol.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("begin_session"); err != nil {
		return err
	}
	if s.begun {
		return &xr.RuntimeError{Op: "begin_session", Code: xr.ResultCallOrder}
	}
	s.begun = true
	s.record("begin_session")
	return nil
}

// End stops the frame protocol.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("end_session"); err != nil {
		return err
	}
	if !s.begun {
		return &xr.RuntimeError{Op: "end_session", Code: xr.ResultSessionNotRunning}
	}
	s.begun = false
	s.record("end_session")
	return nil
}

// Destroy releases the session.
func (s *Session) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return &xr.RuntimeError{Op: "destroy_session", Code: xr.ResultCallOrder}
	}
	s.destroyed = true
	s.record("destroy_session")
	return nil
}

// guard returns the session-lost or use-after-destroy error shared by
// every call.
func (s *Session) guard(op string) error {
	if s.destroyed {
		return &xr.RuntimeError{Op: op, Code: xr.ResultCallOrder}
	}
	if s.lost {
		return &xr.RuntimeError{Op: op, Code: xr.ResultSessionLost}
	}
	return nil
}

// CreateReferenceSpace creates a simulated space of the given kind.
func (s *Session) CreateReferenceSpace(kind xr.ReferenceSpaceKind) (xr.ReferenceSpace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("create_reference_space"); err != nil {
		return nil, err
	}
	s.record("create_reference_space")
	return &refSpace{kind: kind}, nil
}

// CreateSwapchain allocates a CPU-backed image chain. Chains are
// numbered in creation order, which is how per-eye wait delays find
// their chain.
func (s *Session) CreateSwapchain(desc xr.SwapchainDescriptor) (xr.SwapchainImages, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("create_swapchain"); err != nil {
		return nil, err
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, &xr.RuntimeError{Op: "create_swapchain", Code: xr.ResultFailure}
	}

	eye := s.chainCount
	s.chainCount++
	s.record("create_swapchain")
	return newSwapchain(s, eye, desc, s.runtime.imageCount), nil
}

// WaitFrame blocks (when pacing is enabled) until the next frame slot
// and returns its timing record. Display times advance by exactly one
// period per call, so they are strictly monotonic.
func (s *Session) WaitFrame(ctx context.Context) (xr.FrameTiming, error) {
	if err := ctx.Err(); err != nil {
		return xr.FrameTiming{}, err
	}

	s.runtime.mu.Lock()
	c := s.runtime.clock
	period := s.runtime.period
	shouldRender := s.runtime.shouldRender
	s.runtime.mu.Unlock()

	if c != nil && period > 0 {
		select {
		case <-c.After(period):
		case <-ctx.Done():
			return xr.FrameTiming{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("wait_frame"); err != nil {
		return xr.FrameTiming{}, err
	}
	if !s.begun {
		return xr.FrameTiming{}, &xr.RuntimeError{Op: "wait_frame", Code: xr.ResultSessionNotRunning}
	}

	s.waits++
	s.displayTime = s.displayTime.Add(period)
	s.record("wait_frame")
	return xr.FrameTiming{
		DisplayTime:   s.displayTime,
		DisplayPeriod: period,
		ShouldRender:  shouldRender,
	}, nil
}

// BeginFrame marks render start for the frame returned by the last
// WaitFrame.
func (s *Session) BeginFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("begin_frame"); err != nil {
		return err
	}
	if s.frameBegun {
		return &xr.RuntimeError{Op: "begin_frame", Code: xr.ResultCallOrder}
	}
	s.frameBegun = true
	s.record("begin_frame")
	return nil
}

// EndFrame submits the composition. The display time must be the one
// returned by the matching WaitFrame; anything else is an ordering
// error, because pose resolution and submission would disagree about
// when the frame is shown.
func (s *Session) EndFrame(displayTime xr.Time, mode xr.EnvironmentBlendMode, layers []xr.CompositionLayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("end_frame"); err != nil {
		return err
	}
	if !s.frameBegun {
		return &xr.RuntimeError{Op: "end_frame", Code: xr.ResultCallOrder}
	}
	if displayTime != s.displayTime {
		return &xr.RuntimeError{Op: "end_frame", Code: xr.ResultCallOrder}
	}
	s.frameBegun = false

	rec := EndRecord{
		DisplayTime: displayTime,
		Mode:        mode,
		Layers:      len(layers),
	}
	for _, layer := range layers {
		for _, v := range layer.Views {
			rec.Views++
			if v.Empty() {
				rec.EmptyViews++
			}
		}
	}
	s.ends = append(s.ends, rec)
	s.record("end_frame")
	return nil
}

// LocateViews resolves per-eye poses at the given display time. The
// simulated head sits at the origin with a small interpupillary offset
// per eye and symmetric 90 degree frusta.
func (s *Session) LocateViews(at xr.Time, space xr.ReferenceSpace) ([]xr.ViewPose, error) {
	s.runtime.mu.Lock()
	untrackable := s.runtime.untrackable
	views := len(s.runtime.viewCfg.Views)
	s.runtime.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard("locate_views"); err != nil {
		return nil, err
	}
	if space == nil {
		return nil, &xr.RuntimeError{Op: "locate_views", Code: xr.ResultFailure}
	}
	if untrackable {
		return nil, xr.ErrSpaceUntrackable
	}

	s.record("locate_views")
	const halfIPD = 0.032
	const halfAngle = 0.7853982 // 45 degrees
	poses := make([]xr.ViewPose, views)
	for i := range poses {
		offset := float32(-halfIPD)
		if i == 1 {
			offset = halfIPD
		}
		poses[i] = xr.ViewPose{
			Pose: xr.Pose{
				Orientation: xr.Quaternion{W: 1},
				Position:    xr.Vector3{X: offset},
			},
			FOV: xr.FOV{
				AngleLeft:  -halfAngle,
				AngleRight: halfAngle,
				AngleUp:    halfAngle,
				AngleDown:  -halfAngle,
			},
		}
	}
	return poses, nil
}

var (
	_ xr.Runtime = (*Runtime)(nil)
	_ xr.Session = (*Session)(nil)
)
