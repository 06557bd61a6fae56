package diagnosis

import "errors"

var (
	ErrInvalidImage   = errors.New("invalid image reference")
	ErrUnidentified   = errors.New("unidentified")
	ErrIdentification = errors.New("identification failed")
	// ErrClientGone means the event sink stopped accepting frames.
	ErrClientGone     = errors.New("client disconnected")
	ErrStageRegressed = errors.New("stage regression")
)
