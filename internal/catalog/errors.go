package catalog

import "errors"

var (
	// ErrNotFound indicates a lookup by id or slug matched no document.
	ErrNotFound = errors.New("not found")

	// ErrIndexUnready indicates a similarity search was issued while the
	// vector index is absent or still building. Searches fail with this
	// error instead of returning an empty result set: a silent empty answer
	// is indistinguishable from "truly no matches".
	ErrIndexUnready = errors.New("vector index not ready")
)
