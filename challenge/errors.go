package challenge

import "github.com/pkg/errors"

// Sentinel errors for the challenge state machine and the commitment
// structures it operates on.
var (
	ErrNoPermission       = errors.New("no permission")
	ErrNotMatch           = errors.New("paths and seeds do not match")
	ErrOverflow           = errors.New("calculation overflow")
	ErrNoChallengeAllowed = errors.New("no challenge allowed")
	ErrReputationError    = errors.New("error getting user reputation")
	ErrTooSoon            = errors.New("too soon")
	ErrProgress           = errors.New("wrong progress")
	ErrNonExistent        = errors.New("non-existent")
	ErrTooMany            = errors.New("too many uploads")

	ErrOrderNotMatch       = errors.New("order does not match")
	ErrDataDuplication     = errors.New("duplicate data")
	ErrMaximumDepth        = errors.New("maximum commitment depth exceeded")
	ErrScoreMismatch       = errors.New("score mismatch")
	ErrPathIndexError      = errors.New("path index out of bracket")
	ErrAlreadyExist        = errors.New("path already exists")
	ErrLengthNotEqual      = errors.New("length not equal")
	ErrIndexExceedsMaximum = errors.New("index exceeds maximum")
	ErrPathTooLong         = errors.New("path too long")
	ErrPathTooShort        = errors.New("path too short")
	ErrNoTargetNode        = errors.New("target node missing from path")
	ErrConvertError        = errors.New("conversion error")
	ErrDataEmpty           = errors.New("no commitment levels exist")
	ErrStepNotMatch        = errors.New("reputation pipeline step does not match")
)
