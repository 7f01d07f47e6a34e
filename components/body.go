package components

// Body holds the axis-aligned extent of an entity.
type Body struct {
	Width, Height float64
}

// Bottom returns the bottom edge for an entity at pos.
func (b Body) Bottom(pos Position) float64 {
	return pos.Top + b.Height
}

// Right returns the right edge for an entity at pos.
func (b Body) Right(pos Position) float64 {
	return pos.Left + b.Width
}

// Overlaps reports whether two boxes intersect.
func Overlaps(pa Position, ba Body, pb Position, bb Body) bool {
	return pa.Left < bb.Right(pb) && pb.Left < ba.Right(pa) &&
		pa.Top < bb.Bottom(pb) && pb.Top < ba.Bottom(pa)
}
