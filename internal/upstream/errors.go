package upstream

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by ReadAll before a successful Connect.
var ErrNotConnected = errors.New("upstream: not connected")

// ConnectError reports a failed session open.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("upstream: connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ReadError reports a failed batch read. Node is the first node that failed.
type ReadError struct {
	Node string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("upstream: read: %v", e.Err)
	}
	return fmt.Sprintf("upstream: read %s: %v", e.Node, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
