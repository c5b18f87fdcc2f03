//go:build !manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library. Without the "manifold" build tag this stub is compiled
// instead and New reports ErrUnavailable.
//
// Build with: go build -tags=manifold
package manifold

import (
	"errors"

	"github.com/chazu/ramify/pkg/kernel"
)

// ErrUnavailable is returned by New when the binary was built without the
// manifold tag.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// ManifoldKernel is only constructible with the manifold build tag.
type ManifoldKernel struct {
	segments int
}

func New(opts ...Option) (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
