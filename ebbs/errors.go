package ebbs

import "errors"

// Every failed call is all-or-nothing: when one of these comes back the state has not changed.
var (
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInstanceInactive  = errors.New("instance is inactive")
	ErrActionDenied      = errors.New("action denied by pre-action hook")
	ErrSizeLimitExceeded = errors.New("size limit exceeded")
	ErrInvalidReference  = errors.New("invalid post reference")
	ErrInvalidVoteValue  = errors.New("invalid vote value")
	ErrStaleComparand    = errors.New("stale comparand")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrAlreadyTerminated = errors.New("instance already terminated")
	ErrInvalidMask       = errors.New("invalid admin mask")
	ErrUnknownHook       = errors.New("unknown hook handle")
)
