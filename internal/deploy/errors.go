package deploy

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoDevices = errors.New("no devices found")
	ErrMissingIP = errors.New("device has no IP address")
)

// ToolError reports a WinAppDeployCmd invocation that failed to start or
// exited non-zero.
type ToolError struct {
	Op   string
	Args []string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("WinAppDeployCmd %s (%s): %v", e.Op, strings.Join(e.Args, " "), e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
