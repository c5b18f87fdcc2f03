package manifold

// DefaultSegments is the number of segments used to approximate circles.
const DefaultSegments = 32

// Option configures the kernel returned by New.
type Option func(*ManifoldKernel)

// WithSegments sets the circle resolution for cylinders and spheres. Values
// below 3 are ignored.
func WithSegments(n int) Option {
	return func(k *ManifoldKernel) {
		if n >= 3 {
			k.segments = n
		}
	}
}
