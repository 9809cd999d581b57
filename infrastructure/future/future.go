package future

import (
	"context"
	"time"
)

// Error codes follow the status table of the quote service API:
//400 - Bad Request - request body not understood by the quote service
//404 - Draft quote or option not found
//406 - Not Accepted - action attempted on a draft quote that no longer accepts it (finalized, cancelled)
//409 - Conflict - duplicate draft quote for a request quote, stale update
//422 - Validation Errors returned by the quote service
//500 - Transport failure or unexpected response

type ErrorCode int32

const (
	BadRequest      ErrorCode = 400
	Forbidden       ErrorCode = 403
	NotFound        ErrorCode = 404
	NotAccepted     ErrorCode = 406
	Conflict        ErrorCode = 409
	ValidationError ErrorCode = 422
	InternalError   ErrorCode = 500
)

type IFuture interface {
	Get() IDataFuture
	GetTimeout(duration time.Duration) IDataFuture
	// GetContext waits for the result until ctx is done, returning nil on cancellation.
	GetContext(ctx context.Context) IDataFuture
	Count() int
	Capacity() int
}

type IDataFuture interface {
	Data() interface{}
	Error() IErrorFuture
}

type IErrorFuture interface {
	error
	Code() ErrorCode
	Message() string
	Reason() error
}
