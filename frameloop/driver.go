// Package frameloop drives one XR frame per runtime-paced iteration:
// wait, begin, locate views, render each eye, submit. The driver owns
// the session state machine, survives session loss by rebuilding when
// the runtime offers Ready again, and unwinds cleanly on Exiting or
// context cancellation.
//
// The loop never free-runs. WaitFrame is the sole scheduling primitive
// while a session is running; between sessions the driver polls
// lifecycle events at a low fixed cadence. All timing bounds come from
// xr.Config, never from constants.
package frameloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/internal/clock"
	"github.com/gogpu/xr/session"
	"github.com/gogpu/xr/swapchain"
	"github.com/gogpu/xr/video"
)

// idlePollInterval is the event-poll cadence while no session is
// running and WaitFrame cannot pace the loop.
const idlePollInterval = 10 * time.Millisecond

// defaultRebuildLimit bounds consecutive failed session setups before
// Run gives up. Override with WithRebuildLimit.
const defaultRebuildLimit = 3

// Driver runs the frame loop. Construct with New, start with Run. All
// methods except Inject and Stats belong to the goroutine that calls
// Run.
type Driver struct {
	machine  *session.Machine
	bridge   *video.Bridge
	renderer xr.Renderer
	cfg      xr.Config
	clk      clock.Clock
	mirror   *video.Bridge

	rebuildLimit int

	stats     Stats
	lastPoses []xr.ViewPose
	lastSeq   uint64
}

// New builds a driver over the runtime, the surface provider's graphics
// binding, the video bridge and the per-eye renderer. cfg supplies every
// timing bound; it is validated here so Run cannot start misconfigured.
func New(rt xr.Runtime, binding session.BindingSource, bridge *video.Bridge, renderer xr.Renderer, cfg xr.Config, opts ...Option) (*Driver, error) {
	if rt == nil {
		return nil, errors.New("frameloop: nil runtime")
	}
	if binding == nil {
		return nil, errors.New("frameloop: nil binding source")
	}
	if bridge == nil {
		return nil, errors.New("frameloop: nil video bridge")
	}
	if renderer == nil {
		return nil, errors.New("frameloop: nil renderer")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("frameloop: %w", err)
	}

	d := &Driver{
		machine:      session.New(rt, binding, cfg),
		bridge:       bridge,
		renderer:     renderer,
		cfg:          cfg,
		clk:          clock.Real(),
		rebuildLimit: defaultRebuildLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Stats returns a snapshot of the driver's frame counters. Safe from
// any goroutine.
func (d *Driver) Stats() StatsSnapshot { return d.stats.Snapshot() }

// Inject hands an OS lifecycle event (surface created or destroyed,
// focus change) to the session machine. Safe from any goroutine; the
// event is applied on the loop goroutine at its next poll.
func (d *Driver) Inject(ev xr.Event) { d.machine.Inject(ev) }

// Run drives the loop until the runtime reaches Exiting, the context is
// canceled, setup fails rebuildLimit times in a row, or an
// unrecoverable protocol violation surfaces. Session loss is not an
// exit: the loop waits for the next Ready and rebuilds.
//
// On return every session resource has been released.
func (d *Driver) Run(ctx context.Context) error {
	defer d.machine.Destroy()

	var statsC <-chan time.Time
	if d.cfg.StatsInterval > 0 {
		ticker := d.clk.NewTicker(d.cfg.StatsInterval)
		defer ticker.Stop()
		statsC = ticker.C
	}

	xr.Logger().Info("frame loop starting",
		"frame_wait_timeout", d.cfg.FrameWaitTimeout,
		"image_wait_timeout", d.cfg.ImageWaitTimeout,
		"reference_space", d.cfg.ReferenceSpace,
		"blend_mode", d.cfg.BlendMode)

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-statsC:
			d.logStats()
		default:
		}

		if _, err := d.machine.PollEvents(); err != nil {
			if errors.Is(err, xr.ErrSessionLost) {
				d.noteLoss(err)
			} else {
				failures++
				xr.Logger().Warn("session setup failed",
					"error", err, "attempt", failures, "limit", d.rebuildLimit)
				if failures >= d.rebuildLimit {
					return fmt.Errorf("frameloop: session setup failed %d times: %w", failures, err)
				}
			}
		}

		switch {
		case d.machine.State() == xr.StateExiting:
			xr.Logger().Info("frame loop exiting", "frames", d.stats.frames.Load())
			return nil

		case d.machine.ShouldRunFrameLoop():
			failures = 0
			if err := d.frame(ctx); err != nil {
				if stop, retErr := d.recover(ctx, err); stop {
					return retErr
				}
			}

		default:
			// No session to pace on; wait a beat before polling again.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-d.clk.After(idlePollInterval):
			}
		}
	}
}

// frame runs one iteration: wait, begin, render, submit. BeginFrame and
// EndFrame pair 1:1 on every path through this function, and EndFrame
// always receives the display time WaitFrame predicted, the same one
// the views were located at.
func (d *Driver) frame(ctx context.Context) error {
	sess := d.machine.Session()
	chains := d.machine.Chains()
	if sess == nil || chains == nil {
		return fmt.Errorf("frameloop: session resources missing: %w", xr.ErrNotRenderable)
	}

	wctx := ctx
	if d.cfg.FrameWaitTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, d.cfg.FrameWaitTimeout)
		defer cancel()
	}
	timing, err := sess.WaitFrame(wctx)
	if err != nil {
		return fmt.Errorf("frameloop: wait frame: %w", err)
	}

	if err := sess.BeginFrame(); err != nil {
		return fmt.Errorf("frameloop: begin frame: %w", err)
	}

	// When the runtime asks for no rendering the pairing still
	// completes, with an empty submission at the same display time.
	var layers []xr.CompositionLayer
	var renderErr error
	if timing.ShouldRender && d.machine.ShouldRunFrameLoop() {
		layers, renderErr = d.renderLayers(sess, chains, timing)
		if renderErr != nil {
			chains.ReleaseAll()
			layers = nil
		}
	} else {
		d.stats.skipped.Add(1)
		xr.Logger().Debug("empty submission",
			"display_time", int64(timing.DisplayTime),
			"should_render", timing.ShouldRender)
	}

	endErr := sess.EndFrame(timing.DisplayTime, d.cfg.BlendMode, layers)
	if renderErr != nil {
		return renderErr
	}
	if endErr != nil {
		return fmt.Errorf("frameloop: end frame: %w", endErr)
	}

	d.machine.NoteFrame()
	d.stats.frames.Add(1)
	return nil
}

// renderLayers locates the views and fills one layer view per eye from
// the freshest video frame. Per-eye failures degrade to empty
// contributions; the returned error is reserved for unrecoverable
// conditions (image cycle violations, dead session).
func (d *Driver) renderLayers(sess xr.Session, chains *swapchain.Manager, timing xr.FrameTiming) ([]xr.CompositionLayer, error) {
	poses := d.locate(sess, timing)

	frame, _ := d.bridge.Latest()
	if frame != nil && frame.Seq != d.lastSeq {
		d.lastSeq = frame.Seq
		d.stats.videoFrames.Add(1)
		xr.Logger().Debug("composing video frame",
			"seq", frame.Seq, "trace_id", frame.TraceID)
	}

	views := make([]xr.LayerView, chains.Eyes())
	for eye := range views {
		view, err := d.renderEye(chains, eye, poseAt(poses, eye), frame)
		if err != nil {
			return nil, err
		}
		if view.Empty() {
			d.stats.emptyViews.Add(1)
		}
		views[eye] = view
	}

	return []xr.CompositionLayer{{Space: d.machine.Space(), Views: views}}, nil
}

// renderEye acquires eye's image, runs the renderer into it, and
// releases it. An image wait timeout or renderer failure drops this
// eye's contribution for the frame and the loop moves on.
func (d *Driver) renderEye(chains *swapchain.Manager, eye int, pose xr.ViewPose, frame *video.Frame) (xr.LayerView, error) {
	empty := xr.LayerView{Pose: pose.Pose, FOV: pose.FOV}

	if _, err := chains.Acquire(eye); err != nil {
		if errors.Is(err, xr.ErrAcquireTimeout) {
			xr.Logger().Warn("image wait timed out, dropping eye", "eye", eye)
			return empty, nil
		}
		return empty, err
	}

	view := empty
	target := chains.Target(eye)
	if err := d.renderer.RenderView(target, eye, pose, frame); err != nil {
		xr.Logger().Warn("render failed, dropping eye", "eye", eye, "error", err)
	} else {
		view.Swapchain = chains.Chain(eye)
		view.Rect = chains.Rect(eye)
		if eye == 0 && d.mirror != nil {
			d.forwardMirror(target, frame)
		}
	}

	if err := chains.Release(eye); err != nil {
		return empty, err
	}
	return view, nil
}

// locate resolves per-eye poses at the frame's display time, degrading
// to the previous frame's poses when the space is momentarily
// untrackable. Before any successful locate, identity poses are used.
func (d *Driver) locate(sess xr.Session, timing xr.FrameTiming) []xr.ViewPose {
	poses, err := sess.LocateViews(timing.DisplayTime, d.machine.Space())
	if err == nil {
		d.lastPoses = poses
		return poses
	}

	d.stats.locateFallbacks.Add(1)
	if errors.Is(err, xr.ErrSpaceUntrackable) {
		xr.Logger().Debug("space untrackable, reusing last poses",
			"display_time", int64(timing.DisplayTime))
	} else {
		xr.Logger().Warn("locate views failed, reusing last poses", "error", err)
	}
	return d.lastPoses
}

// poseAt returns the eye's pose, or the identity pose when the locate
// fallback has nothing recorded yet.
func poseAt(poses []xr.ViewPose, eye int) xr.ViewPose {
	if eye < len(poses) {
		return poses[eye]
	}
	return xr.ViewPose{Pose: xr.IdentityPose()}
}

// forwardMirror publishes a tightly packed copy of the composed left
// eye to the mirror sink. The copy is unavoidable: the swapchain
// recycles the image after release, while the mirror consumer samples
// at its own cadence.
func (d *Driver) forwardMirror(target xr.RenderTarget, frame *video.Frame) {
	pix := target.Pixels()
	if pix == nil {
		return
	}

	w, h, stride := target.Width(), target.Height(), target.Stride()
	rowLen := w * video.BytesPerPixel
	data := make([]byte, h*rowLen)
	for y := range h {
		copy(data[y*rowLen:(y+1)*rowLen], pix[y*stride:])
	}

	var pts time.Duration
	if frame != nil {
		pts = frame.PTS
	}
	if err := d.mirror.Publish(video.NewFrame(w, h, data, pts)); err != nil {
		xr.Logger().Debug("mirror publish failed", "error", err)
	}
}

// recover classifies a frame error. Context cancellation and protocol
// violations stop the loop; a blown wait bound skips the iteration;
// everything else tears the session down and waits for the runtime to
// offer Ready again.
func (d *Driver) recover(ctx context.Context, err error) (stop bool, _ error) {
	switch {
	case ctx.Err() != nil:
		return true, ctx.Err()

	case errors.Is(err, context.DeadlineExceeded):
		d.stats.waitTimeouts.Add(1)
		xr.Logger().Warn("wait frame exceeded bound", "bound", d.cfg.FrameWaitTimeout)
		return false, nil

	case errors.Is(err, xr.ErrImageCycle):
		return true, err

	default:
		d.noteLoss(err)
		_ = d.machine.ForceLoss(err)
		return false, nil
	}
}

// noteLoss records a session loss in the stats and drops state tied to
// the dead session.
func (d *Driver) noteLoss(cause error) {
	d.stats.losses.Add(1)
	d.lastPoses = nil
	xr.Logger().Warn("session lost, awaiting ready", "error", cause)
}

// logStats emits the periodic stats line.
func (d *Driver) logStats() {
	s := d.stats.Snapshot()
	bs := d.bridge.Stats()
	xr.Logger().Info("frame stats",
		"frames", s.Frames,
		"skipped", s.Skipped,
		"empty_views", s.EmptyViews,
		"video_frames", s.VideoFrames,
		"video_published", bs.Published,
		"video_dropped", bs.Dropped,
		"losses", s.Losses,
		"wait_timeouts", s.WaitTimeouts,
		"state", d.machine.State())
}
