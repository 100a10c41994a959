package sqs

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrConfig is returned by [Client.Init] when the client options are invalid.
	ErrConfig = errors.New("invalid SQS queue configuration")

	// ErrNotInitialized is returned when an operation is invoked before [Client.Init].
	ErrNotInitialized = errors.New("SQS client not initialized")

	// ErrResolution is returned when the queue URL could not be resolved from the
	// queue name. It is shared by every caller waiting on the same lookup and is
	// never cached.
	ErrResolution = errors.New("failed to resolve SQS queue URL")

	ErrSend     = errors.New("failed to send SQS message")
	ErrReceive  = errors.New("failed to receive SQS messages")
	ErrDelete   = errors.New("failed to delete SQS message")
	ErrDescribe = errors.New("failed to get SQS queue attributes")
)

// Error is returned by all [Client] operations. Kind is one of the package
// sentinel errors and Err is the underlying cause, usually the AWS SDK error
// unchanged. Both are reachable through [errors.Is] and [errors.As].
type Error struct {
	Kind  error
	Queue string
	Err   error
}

func (e *Error) Error() string {
	if e.Queue == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}

	return fmt.Sprintf("%v (queue %s): %v", e.Kind, e.Queue, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, queue string, err error) *Error {
	return &Error{Kind: kind, Queue: queue, Err: err}
}

// APIErrorCode returns the AWS error code carried by err, or "N/A" if err does
// not wrap a [smithy.APIError].
func APIErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		return apiErr.ErrorCode()
	}

	return "N/A"
}

func apiErrorMessage(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}

	return err.Error()
}
