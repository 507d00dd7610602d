package wsurf

// presenter is the presentation path of a surface, fixed at creation by the
// display kind.
type presenter interface {
	// alloc fills an empty pool entry with a buffer of the surface size.
	alloc(cb *colorBuffer) error

	// swap presents the back buffer.
	swap(damage []Rect) error

	// bufferAge returns the age of the back buffer.
	bufferAge() (int, error)
}
