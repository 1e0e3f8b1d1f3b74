package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayHUD       OverlayID = "hud"
	OverlayPanel     OverlayID = "panel"
	OverlayInspector OverlayID = "inspector"
	OverlayPeakRing  OverlayID = "peak_ring"
	OverlayPerf      OverlayID = "perf"
	OverlayHelp      OverlayID = "help"
)

// KeyBinding is one entry of the key legend.
type KeyBinding struct {
	Key    string // key label, e.g. "H"
	Action string // short action name, e.g. "HUD"
}

func (b KeyBinding) String() string {
	return fmt.Sprintf("[%s] %s", b.Key, b.Action)
}

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID        OverlayID
	Key       int32 // toggle key (0 = none)
	Binding   KeyBinding
	Exclusive []OverlayID // disabled when this overlay is enabled
}

// OverlayRegistry manages overlay state and key bindings.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the visualizer's overlays,
// all disabled.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	for _, d := range []OverlayDescriptor{
		{ID: OverlayHUD, Key: rl.KeyH, Binding: KeyBinding{"H", "HUD"}},
		// The panel and inspector share the right edge of the screen.
		{ID: OverlayPanel, Key: rl.KeyP, Binding: KeyBinding{"P", "sliders"}, Exclusive: []OverlayID{OverlayInspector}},
		{ID: OverlayInspector, Key: rl.KeyI, Binding: KeyBinding{"I", "inspector"}, Exclusive: []OverlayID{OverlayPanel}},
		{ID: OverlayPeakRing, Key: rl.KeyG, Binding: KeyBinding{"G", "peak ring"}},
		{ID: OverlayPerf, Key: rl.KeyF, Binding: KeyBinding{"F", "timing"}},
		{ID: OverlayHelp, Key: rl.KeyF1, Binding: KeyBinding{"F1", "help"}},
	} {
		reg.Register(d)
	}
	return reg
}

// Register adds an overlay to the registry, initially disabled.
// Registering an existing ID replaces its descriptor.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	for i, d := range r.descriptors {
		if d.ID == desc.ID {
			r.descriptors[i] = desc
			return
		}
	}
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = false
}

func (r *OverlayRegistry) find(id OverlayID) (OverlayDescriptor, bool) {
	for _, d := range r.descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return OverlayDescriptor{}, false
}

// Toggle flips an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.find(id); !ok {
		return false
	}
	on := !r.enabled[id]
	r.SetEnabled(id, on)
	return on
}

// SetEnabled sets an overlay's state. Enabling an overlay disables the
// overlays it excludes.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.find(id)
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if !enabled {
		return
	}
	for _, other := range desc.Exclusive {
		r.enabled[other] = false
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeyPress toggles the overlay bound to key. It reports the
// overlay, its new state, and whether any overlay was bound.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	if key == 0 {
		return "", false, false
	}
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}

// Keys returns every key bound to an overlay.
func (r *OverlayRegistry) Keys() []int32 {
	var keys []int32
	for _, desc := range r.descriptors {
		if desc.Key != 0 {
			keys = append(keys, desc.Key)
		}
	}
	return keys
}

// EnabledOverlays returns the enabled overlay IDs in registration order.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var ids []OverlayID
	for _, desc := range r.descriptors {
		if r.enabled[desc.ID] {
			ids = append(ids, desc.ID)
		}
	}
	return ids
}

// Legend formats the fixed bindings followed by every overlay toggle.
func (r *OverlayRegistry) Legend(fixed ...KeyBinding) string {
	parts := make([]string, 0, len(fixed)+len(r.descriptors))
	for _, b := range fixed {
		parts = append(parts, b.String())
	}
	for _, desc := range r.descriptors {
		if desc.Key != 0 {
			parts = append(parts, desc.Binding.String())
		}
	}
	return strings.Join(parts, "  ")
}
