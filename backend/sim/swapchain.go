package sim

import (
	"time"

	"github.com/gogpu/xr"
)

// refSpace is a simulated reference space.
type refSpace struct {
	kind      xr.ReferenceSpaceKind
	destroyed bool
}

func (sp *refSpace) Kind() xr.ReferenceSpaceKind { return sp.kind }

func (sp *refSpace) Destroy() error {
	if sp.destroyed {
		return &xr.RuntimeError{Op: "destroy_space", Code: xr.ResultCallOrder}
	}
	sp.destroyed = true
	return nil
}

// Swapchain is one eye's simulated image chain: a ring of CPU pixmap
// targets cycled under the strict acquire → wait → release rules. Every
// violation is reported rather than tolerated, so driver bugs surface in
// tests instead of rendering artifacts.
type Swapchain struct {
	session *Session
	eye     int

	targets []xr.RenderTarget
	next    int

	acquired int
	waited   bool

	acquires  int
	releases  int
	destroyed bool
}

func newSwapchain(s *Session, eye int, desc xr.SwapchainDescriptor, images int) *Swapchain {
	sc := &Swapchain{
		session:  s,
		eye:      eye,
		acquired: -1,
	}
	for range images {
		sc.targets = append(sc.targets, xr.NewPixmapTarget(desc.Width, desc.Height))
	}
	return sc
}

// Eye returns the chain's creation index (0 = left).
func (sc *Swapchain) Eye() int { return sc.eye }

// Acquires returns how many successful Acquire calls the chain has seen.
func (sc *Swapchain) Acquires() int {
	sc.session.mu.Lock()
	defer sc.session.mu.Unlock()
	return sc.acquires
}

// Releases returns how many successful Release calls the chain has seen.
func (sc *Swapchain) Releases() int {
	sc.session.mu.Lock()
	defer sc.session.mu.Unlock()
	return sc.releases
}

// Destroyed reports whether the chain has been destroyed.
func (sc *Swapchain) Destroyed() bool {
	sc.session.mu.Lock()
	defer sc.session.mu.Unlock()
	return sc.destroyed
}

func (sc *Swapchain) guard(op string) error {
	if sc.destroyed {
		return &xr.RuntimeError{Op: op, Code: xr.ResultCallOrder}
	}
	return sc.session.guard(op)
}

// Acquire reserves the next image in ring order.
func (sc *Swapchain) Acquire() (int, error) {
	sc.session.mu.Lock()
	defer sc.session.mu.Unlock()
	if err := sc.guard("acquire_image"); err != nil {
		return 0, err
	}
	if sc.acquired != -1 {
		return 0, &xr.RuntimeError{Op: "acquire_image", Code: xr.ResultCallOrder}
	}

	idx := sc.next
	sc.next = (sc.next + 1) % len(sc.targets)
	sc.acquired = idx
	sc.waited = false
	sc.acquires++
	sc.session.record("acquire_image")
	return idx, nil
}

// Wait simulates the image-ready wait. A per-eye delay configured with
// Runtime.SetImageWaitDelay that exceeds timeout produces the timeout
// error immediately; the simulation never actually sleeps here.
func (sc *Swapchain) Wait(timeout time.Duration) error {
	sc.session.runtime.mu.Lock()
	delay := sc.session.runtime.waitDelays[sc.eye]
	sc.session.runtime.mu.Unlock()

	sc.session.mu.Lock()
	defer sc.session.mu.Unlock()
	if err := sc.guard("wait_image"); err != nil {
		return err
	}
	if sc.acquired == -1 {
		return &xr.RuntimeError{Op: "wait_image", Code: xr.ResultCallOrder}
	}
	if delay > timeout {
		sc.session.record("wait_image_timeout")
		return &xr.RuntimeError{Op: "wait_image", Code: xr.ResultTimeout}
	}
	sc.waited = true
	sc.session.record("wait_image")
	return nil
}

// Release returns the acquired image to the ring.
func (sc *Swapchain) Release() error {
	sc.session.mu.Lock()
	defer sc.session.mu.Unlock()
	if err := sc.guard("release_image"); err != nil {
		return err
	}
	if sc.acquired == -1 {
		return &xr.RuntimeError{Op: "release_image", Code: xr.ResultCallOrder}
	}
	sc.acquired = -1
	sc.waited = false
	sc.releases++
	sc.session.record("release_image")
	return nil
}

// Len returns the ring size.
func (sc *Swapchain) Len() int { return len(sc.targets) }

// Image returns image i's render target. Simulated images are CPU
// pixmaps, so tests can inspect composited output pixel by pixel.
func (sc *Swapchain) Image(i int) xr.RenderTarget {
	return sc.targets[i]
}

// Destroy frees the chain.
func (sc *Swapchain) Destroy() error {
	sc.session.mu.Lock()
	defer sc.session.mu.Unlock()
	if sc.destroyed {
		return &xr.RuntimeError{Op: "destroy_swapchain", Code: xr.ResultCallOrder}
	}
	sc.destroyed = true
	sc.session.record("destroy_swapchain")
	return nil
}

var _ xr.SwapchainImages = (*Swapchain)(nil)
