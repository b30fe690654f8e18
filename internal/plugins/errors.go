package plugins

import "errors"

var (
	// ErrDeclarationsFailed indicates the declaration generator exited unsuccessfully
	ErrDeclarationsFailed = errors.New("declaration emission failed")
)
