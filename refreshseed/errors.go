package refreshseed

import "github.com/pkg/errors"

var (
	ErrStepNotMatch        = errors.New("reputation pipeline is not in the seed step")
	ErrNotAllTimeout        = errors.New("confirmation period has not yet elapsed for every target")
	ErrPathDoesNotExist     = errors.New("no pathfinder path recorded at that index")
	ErrIndexExceedsMaximum  = errors.New("index exceeds the recorded path count")
	ErrLengthNotEqual       = errors.New("mid-path count does not match the path's claimed total")
	ErrPathTooShort         = errors.New("path has fewer than two nodes")
	ErrNoTargetNode         = errors.New("target node missing from path")
	ErrResultHashNotExist   = errors.New("no commitment levels recorded for target")
	ErrAlreadyExist         = errors.New("an identical path already exists")
	ErrNonExistent          = errors.New("candidate does not exist")
)
