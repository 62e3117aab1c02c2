// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"testing"

	"github.com/gogpu/xr"
)

func TestHeadlessLifecycle(t *testing.T) {
	p := Headless()

	if p.Name() != "headless" {
		t.Errorf("Name = %s, want headless", p.Name())
	}
	if !p.Alive() {
		t.Error("new headless surface should be alive")
	}
	if p.Binding() == nil {
		t.Error("Binding = nil, want null binding")
	}
	if got := p.Extent(); got != (xr.Extent{}) {
		t.Errorf("Extent = %+v, want zero", got)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if p.Alive() {
		t.Error("closed surface reports alive")
	}
	// Close is idempotent.
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestFromDevice(t *testing.T) {
	if _, err := FromDevice(nil, xr.Extent{}); err == nil {
		t.Fatal("FromDevice(nil) should fail")
	}

	p, err := FromDevice(xr.NullBinding{}, xr.Extent{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("FromDevice: %v", err)
	}

	if p.Name() != "device" {
		t.Errorf("Name = %s, want device", p.Name())
	}
	if !p.Alive() {
		t.Error("new device surface should be alive")
	}
	if got := p.Extent(); got.Width != 1920 || got.Height != 1080 {
		t.Errorf("Extent = %+v, want 1920x1080", got)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if p.Alive() {
		t.Error("closed surface reports alive")
	}
	// The binding is caller-owned and survives Close.
	if p.Binding() == nil {
		t.Error("Binding = nil after close; device is caller-owned")
	}
}
