package components

// Position is the top-left corner of an entity in field units.
// Top grows downward; Top == 0 is the ceiling.
type Position struct {
	Left, Top float64
}

// Velocity is vertical speed in field units per tick (negative is up).
// Horizontal motion belongs to obstacles only and is applied directly.
type Velocity struct {
	Y float64
}
