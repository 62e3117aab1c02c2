// Package swapchain owns the per-eye image chains of a session and
// tracks every image through the runtime-dictated acquire → wait →
// render → release cycle. Violating that order is a programming error,
// not a recoverable condition; the manager reports it as
// xr.ErrImageCycle instead of corrupting chain state.
//
// The manager belongs to the frame-loop thread. It is not safe for
// concurrent use and never needs to be: acquisition, rendering and
// release all happen inside one frame-loop iteration.
package swapchain

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
)

// noImage marks an eye with no acquired image.
const noImage = -1

// Manager holds one swapchain per eye plus the acquire bookkeeping.
// Chains are created from a session and must be recreated whenever the
// session or its view configuration changes.
type Manager struct {
	chains   []xr.SwapchainImages
	extents  []xr.Extent
	acquired []int
	format   gputypes.TextureFormat

	waitTimeout time.Duration
}

// Create negotiates an image format and allocates one chain per view of
// cfg on sess. waitTimeout bounds each per-eye image wait. Failure to
// create any chain destroys the chains created so far and returns the
// error; callers treat it as session-fatal.
func Create(sess xr.Session, cfg xr.ViewConfig, runtimeFormats []gputypes.TextureFormat, waitTimeout time.Duration) (*Manager, error) {
	format, err := NegotiateFormat(runtimeFormats)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		format:      format,
		waitTimeout: waitTimeout,
	}
	for i, view := range cfg.Views {
		chain, err := sess.CreateSwapchain(xr.SwapchainDescriptor{
			Format:      format,
			Width:       view.Recommended.Width,
			Height:      view.Recommended.Height,
			SampleCount: view.SampleCount,
			Usage:       xr.DefaultSwapchainUsage,
		})
		if err != nil {
			m.Destroy()
			return nil, fmt.Errorf("swapchain: create chain for eye %d: %w", i, err)
		}
		m.chains = append(m.chains, chain)
		m.extents = append(m.extents, view.Recommended)
		m.acquired = append(m.acquired, noImage)
	}

	xr.Logger().Info("swapchains created",
		"eyes", len(m.chains),
		"format", format,
		"extent", fmt.Sprintf("%dx%d", m.extents[0].Width, m.extents[0].Height))
	return m, nil
}

// Eyes returns the number of chains.
func (m *Manager) Eyes() int {
	return len(m.chains)
}

// Format returns the negotiated image format.
func (m *Manager) Format() gputypes.TextureFormat {
	return m.format
}

// Extent returns the image size of eye's chain.
func (m *Manager) Extent(eye int) xr.Extent {
	return m.extents[eye]
}

// Chain exposes eye's underlying image chain for composition layer
// assembly.
func (m *Manager) Chain(eye int) xr.SwapchainImages {
	return m.chains[eye]
}

// Rect returns the full-image rectangle for eye, the sub-image a
// composition layer references when the whole image was rendered.
func (m *Manager) Rect(eye int) xr.Rect {
	ext := m.extents[eye]
	return xr.Rect{Width: ext.Width, Height: ext.Height}
}

// Acquire reserves and waits for the next image of eye's chain,
// returning its index. On a wait timeout the image is released
// internally and xr.ErrAcquireTimeout comes back: the eye drops this
// frame, and the caller must not call Release for it.
func (m *Manager) Acquire(eye int) (int, error) {
	if eye < 0 || eye >= len(m.chains) {
		return 0, fmt.Errorf("swapchain: eye %d out of range: %w", eye, xr.ErrImageCycle)
	}
	if m.acquired[eye] != noImage {
		return 0, fmt.Errorf("swapchain: eye %d acquired twice without release: %w", eye, xr.ErrImageCycle)
	}

	chain := m.chains[eye]
	index, err := chain.Acquire()
	if err != nil {
		return 0, fmt.Errorf("swapchain: acquire eye %d: %w", eye, err)
	}

	if err := chain.Wait(m.waitTimeout); err != nil {
		// The acquire succeeded, so the chain still expects a release
		// before this image can cycle again.
		if relErr := chain.Release(); relErr != nil {
			xr.Logger().Warn("release after failed wait", "eye", eye, "error", relErr)
		}
		return 0, fmt.Errorf("swapchain: wait eye %d image %d: %w", eye, index, err)
	}

	m.acquired[eye] = index
	xr.Logger().Debug("image acquired", "eye", eye, "image", index)
	return index, nil
}

// Release returns eye's acquired image to its chain. Exactly one
// Release per successful Acquire.
func (m *Manager) Release(eye int) error {
	if eye < 0 || eye >= len(m.chains) {
		return fmt.Errorf("swapchain: eye %d out of range: %w", eye, xr.ErrImageCycle)
	}
	if m.acquired[eye] == noImage {
		return fmt.Errorf("swapchain: eye %d released without acquire: %w", eye, xr.ErrImageCycle)
	}

	index := m.acquired[eye]
	m.acquired[eye] = noImage
	if err := m.chains[eye].Release(); err != nil {
		return fmt.Errorf("swapchain: release eye %d image %d: %w", eye, index, err)
	}
	xr.Logger().Debug("image released", "eye", eye, "image", index)
	return nil
}

// Acquired returns eye's acquired image index, or false when none.
func (m *Manager) Acquired(eye int) (int, bool) {
	if eye < 0 || eye >= len(m.acquired) || m.acquired[eye] == noImage {
		return 0, false
	}
	return m.acquired[eye], true
}

// Target returns the render target of eye's acquired image. Only valid
// between a successful Acquire and the matching Release.
func (m *Manager) Target(eye int) xr.RenderTarget {
	index, ok := m.Acquired(eye)
	if !ok {
		return nil
	}
	return m.chains[eye].Image(index)
}

// ReleaseAll releases every acquired image. Used on teardown paths
// (session Stopping, loss, loop unwind) where per-eye release tracking
// has already been abandoned.
func (m *Manager) ReleaseAll() {
	for eye := range m.chains {
		if m.acquired[eye] == noImage {
			continue
		}
		if err := m.Release(eye); err != nil {
			xr.Logger().Warn("release on teardown", "eye", eye, "error", err)
		}
	}
}

// Destroy releases acquired images and frees all chains. The manager
// must not be used afterwards.
func (m *Manager) Destroy() {
	m.ReleaseAll()
	for i, chain := range m.chains {
		if chain == nil {
			continue
		}
		if err := chain.Destroy(); err != nil {
			xr.Logger().Warn("destroy swapchain", "eye", i, "error", err)
		}
	}
	m.chains = nil
	m.extents = nil
	m.acquired = nil
}
