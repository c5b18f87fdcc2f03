package wavefront

import (
	"errors"
	"fmt"
)

// Sentinel errors for export failures. Match with errors.Is.
var (
	// ErrObjWrite is matched by any failure writing the object stream.
	ErrObjWrite = errors.New("obj write failed")

	// ErrMtlWrite is matched by any failure creating or writing the material library.
	ErrMtlWrite = errors.New("mtl write failed")
)

// Kind identifies which sink failed.
type Kind int

const (
	ObjWrite Kind = iota
	MtlWrite
)

func (k Kind) String() string {
	switch k {
	case ObjWrite:
		return "obj"
	case MtlWrite:
		return "mtl"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ExportError tags an I/O failure with the sink it happened on.
type ExportError struct {
	Kind Kind
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("wavefront: write %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *ExportError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *ExportError) Is(target error) bool {
	switch target {
	case ErrObjWrite:
		return e.Kind == ObjWrite
	case ErrMtlWrite:
		return e.Kind == MtlWrite
	}
	return false
}

func objErr(err error) error {
	if err == nil {
		return nil
	}
	return &ExportError{Kind: ObjWrite, Err: err}
}

func mtlErr(err error) error {
	if err == nil {
		return nil
	}
	return &ExportError{Kind: MtlWrite, Err: err}
}
