package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTagTransport marks DNS, connection, timeout and body read failures
	ErrTagTransport = goerr.NewTag("transport")

	// ErrTagHTTPStatus marks a response with non-2xx status code
	ErrTagHTTPStatus = goerr.NewTag("http_status")

	// ErrTagBlockedTarget marks a request rejected by the network safety check
	ErrTagBlockedTarget = goerr.NewTag("blocked_target")

	// ErrTagInvalidRequest marks malformed input from the caller
	ErrTagInvalidRequest = goerr.NewTag("invalid_request")
)
