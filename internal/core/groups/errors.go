package groups

import "errors"

var (
	ErrInvalidScope      = errors.New("group scope is empty or malformed")
	ErrScopeMismatch     = errors.New("stream scope does not match token scope")
	ErrNilStream         = errors.New("group accessor requires an event stream")
	ErrAlreadyMonitoring = errors.New("group accessor is already monitoring")
	ErrAccessorDisposed  = errors.New("group accessor is disposed")
	ErrRegistryClosed    = errors.New("group registry is closed")
)
