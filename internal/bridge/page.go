package bridge

import (
	"context"
	"errors"
)

// ErrNoWindow is returned by Evaluate once the main window is gone.
var ErrNoWindow = errors.New("window not present")

// Page is the hosted page scripts are evaluated in. Evaluate has no result
// contract; callers swallow its errors.
type Page interface {
	Present() bool
	Evaluate(ctx context.Context, script string) error
}

// loadNotifier is implemented by pages that can report a finished load.
type loadNotifier interface {
	OnLoad(fn func(ctx context.Context))
}
