package core

import (
	"math"
	"time"
)

// DefaultCenterDuration is how long a center-on animation runs.
const DefaultCenterDuration = 600 * time.Millisecond

// cameraAnim is one in-flight camera interpolation. Starting a new one
// replaces any animation already running, so the newest request wins.
type cameraAnim struct {
	from     Camera
	to       Camera
	start    time.Time
	duration time.Duration
}

// Viewport owns deliberate camera moves over a render surface. The surface
// remains the authority for the current camera; the viewport only writes
// interpolated frames into it.
type Viewport struct {
	surface  RenderSurface
	canvasW  float64
	canvasH  float64
	duration time.Duration
	anim     *cameraAnim
	nowFn    func() time.Time
}

// NewViewport builds a viewport for a canvas of the given pixel size.
func NewViewport(surface RenderSurface, canvasW, canvasH float64) *Viewport {
	return &Viewport{
		surface:  surface,
		canvasW:  canvasW,
		canvasH:  canvasH,
		duration: DefaultCenterDuration,
		nowFn:    time.Now,
	}
}

// SetNowFunc injects the clock, used by tests.
func (v *Viewport) SetNowFunc(fn func() time.Time) { v.nowFn = fn }

// Resize updates the canvas dimensions used for centering math.
func (v *Viewport) Resize(w, h float64) {
	v.canvasW, v.canvasH = w, h
}

// targetScale normalizes the current zoom for a centering move: far-out
// views snap to 1:1, extreme zoom-in settles back to 2x, and anything in
// between is left alone.
func targetScale(current float64) float64 {
	switch {
	case current < 0.8:
		return 1.0
	case current > 3.0:
		return 2.0
	default:
		return current
	}
}

// CenterOn starts an animated pan/zoom that places the world position at
// the canvas midpoint. A move already in flight is dropped.
func (v *Viewport) CenterOn(pos Position) {
	from := v.surface.Camera()
	scale := targetScale(from.Scale)
	to := Camera{
		X:     v.canvasW/2 - pos.X*scale,
		Y:     v.canvasH/2 - pos.Y*scale,
		Scale: scale,
	}
	v.anim = &cameraAnim{from: from, to: to, start: v.nowFn(), duration: v.duration}
}

// easeInOutCubic maps linear progress to the symmetric cubic profile used
// for camera moves.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Advance steps the active animation to now and writes the frame into the
// surface. It reports whether an animation is still running; once progress
// reaches 1 the camera lands exactly on the target and the animation ends.
func (v *Viewport) Advance(now time.Time) bool {
	if v.anim == nil {
		return false
	}
	a := v.anim
	t := float64(now.Sub(a.start)) / float64(a.duration)
	if t >= 1 {
		v.surface.SetCamera(a.to)
		v.anim = nil
		return false
	}
	if t < 0 {
		t = 0
	}
	e := easeInOutCubic(t)
	v.surface.SetCamera(Camera{
		X:     a.from.X + (a.to.X-a.from.X)*e,
		Y:     a.from.Y + (a.to.Y-a.from.Y)*e,
		Scale: a.from.Scale + (a.to.Scale-a.from.Scale)*e,
	})
	return true
}

// Animating reports whether a camera move is in flight.
func (v *Viewport) Animating() bool { return v.anim != nil }
