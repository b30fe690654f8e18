package builder

import "errors"

var (
	// ErrDuplicateEntry indicates two discovered files reduce to the same entry name
	ErrDuplicateEntry = errors.New("duplicate entry point name")
	// ErrUnsupportedFormat indicates an output format esbuild cannot emit
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
