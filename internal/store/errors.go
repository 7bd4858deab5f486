package store

import "errors"

// Error kinds per spec §7. ErrMissingRef is tolerated by callers (holes
// in the nd-list are expected upstream osmosis-style filtering);
// ErrStoreFault is fatal to the tile currently being built.
var (
	ErrStoreFault  = errors.New("store fault")
	ErrMissingRef  = errors.New("missing reference")
)
