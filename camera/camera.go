// Package camera maps the bounded field onto a rectangle of the screen.
package camera

// Camera controls one viewport into the field. At zoom 1 the whole field
// fits the viewport; higher zoom magnifies around the camera center,
// which is kept inside the field.
type Camera struct {
	// Position is the camera center in field coordinates
	X, Y float32

	// Zoom level relative to the fit scale (1.0 = whole field visible)
	Zoom float32

	// Viewport rectangle on screen
	ViewportX, ViewportY float32
	ViewportW, ViewportH float32

	// Field dimensions
	WorldW, WorldH float32

	MaxZoom float32
}

// New creates a camera showing the whole field in the given viewport.
func New(viewportX, viewportY, viewportW, viewportH, worldW, worldH float32) *Camera {
	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportX: viewportX,
		ViewportY: viewportY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MaxZoom:   4.0,
	}
}

// scale returns screen pixels per field unit on each axis. The fit scale
// stretches the field to the viewport so lanes need not share its aspect.
func (c *Camera) scale() (sx, sy float32) {
	return c.ViewportW / c.WorldW * c.Zoom, c.ViewportH / c.WorldH * c.Zoom
}

// WorldToScreen converts field coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	kx, ky := c.scale()
	sx = c.ViewportX + c.ViewportW/2 + (wx-c.X)*kx
	sy = c.ViewportY + c.ViewportH/2 + (wy-c.Y)*ky
	return sx, sy
}

// ScreenToWorld converts screen coordinates to field coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	kx, ky := c.scale()
	wx = c.X + (sx-c.ViewportX-c.ViewportW/2)/kx
	wy = c.Y + (sy-c.ViewportY-c.ViewportH/2)/ky
	return wx, wy
}

// ScaleSize converts a field-space size to screen pixels.
func (c *Camera) ScaleSize(w, h float32) (sw, sh float32) {
	kx, ky := c.scale()
	return w * kx, h * ky
}

// Contains reports whether the screen point lies inside the viewport.
func (c *Camera) Contains(sx, sy float32) bool {
	return sx >= c.ViewportX && sx < c.ViewportX+c.ViewportW &&
		sy >= c.ViewportY && sy < c.ViewportY+c.ViewportH
}

// IsVisible reports whether a field rectangle overlaps the visible area.
func (c *Camera) IsVisible(left, top, width, height float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return left+width >= minX && left <= maxX && top+height >= minY && top <= maxY
}

// SetViewport moves and resizes the screen rectangle.
func (c *Camera) SetViewport(x, y, w, h float32) {
	c.ViewportX, c.ViewportY = x, y
	c.ViewportW, c.ViewportH = w, h
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	kx, ky := c.scale()
	c.X += dx / kx
	c.Y += dy / ky
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to [1, MaxZoom].
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, 1, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the whole-field view.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the field-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.WorldW / (2 * c.Zoom)
	halfH := c.WorldH / (2 * c.Zoom)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// clampCenter keeps the visible area inside the field.
func (c *Camera) clampCenter() {
	halfW := c.WorldW / (2 * c.Zoom)
	halfH := c.WorldH / (2 * c.Zoom)
	c.X = clamp(c.X, halfW, c.WorldW-halfW)
	c.Y = clamp(c.Y, halfH, c.WorldH-halfH)
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
