//go:build debug

package channel

// New creates a channel, ignoring the buffer size.
// Debug builds hand events off synchronously so ordering bugs surface.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
