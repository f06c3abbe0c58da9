//go:build !debug

package channel

// New creates a channel with the given buffer size.
// Release builds queue events so recording never stalls the battle loop.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
