// Package camera holds the viewer's pan and zoom state and converts between
// screen and world pixels.
package camera

import "math"

const (
	MinZoom = 0.005
	MaxZoom = 1.0

	// zoomStep is the fraction of the current zoom added or removed per
	// wheel notch.
	zoomStep = 0.5
)

// Camera maps world pixels to screen pixels: screen = (world - Scroll) * Zoom.
type Camera struct {
	ScrollX float64
	ScrollY float64
	Zoom    float64
}

func New(zoom float64) *Camera {
	return &Camera{Zoom: clamp(zoom)}
}

// Pan moves the view by a raw screen delta, so dragging right reveals what
// lies to the left.
func (c *Camera) Pan(dx, dy float64) {
	c.ScrollX -= dx / c.Zoom
	c.ScrollY -= dy / c.Zoom
}

// ZoomAt applies one wheel notch per sign of notches around the screen point
// (sx, sy), keeping the world point under it fixed. Positive zooms in.
func (c *Camera) ZoomAt(sx, sy, notches float64) {
	if notches == 0 {
		return
	}
	wx, wy := c.ScreenToWorld(sx, sy)
	next := c.Zoom + math.Copysign(c.Zoom*zoomStep, notches)
	c.Zoom = clamp(next)
	c.ScrollX = wx - sx/c.Zoom
	c.ScrollY = wy - sy/c.Zoom
}

// CenterOn places world point (wx, wy) in the middle of a view of the given
// screen size.
func (c *Camera) CenterOn(wx, wy float64, viewW, viewH int) {
	c.ScrollX = wx - float64(viewW)/2/c.Zoom
	c.ScrollY = wy - float64(viewH)/2/c.Zoom
}

func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	return sx/c.Zoom + c.ScrollX, sy/c.Zoom + c.ScrollY
}

func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	return (wx - c.ScrollX) * c.Zoom, (wy - c.ScrollY) * c.Zoom
}

func clamp(z float64) float64 {
	if math.IsNaN(z) || z < MinZoom {
		return MinZoom
	}
	return min(z, MaxZoom)
}
