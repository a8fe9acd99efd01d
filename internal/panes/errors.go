package panes

import (
	"errors"
	"fmt"
)

var (
	ErrMissingContainer = errors.New("price pane container missing")
	ErrSurfaceRemoved   = errors.New("surface removed")
)

// safeCall runs fn and turns a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
