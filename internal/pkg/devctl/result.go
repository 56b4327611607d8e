package devctl

import "fmt"

// Result is what a function call returns to its caller.  Exactly one of
// Success and Error is set; both are meant to be shown to an end user.
type Result struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r Result) OK() bool {
	return r.Error == ""
}

func (r Result) String() string {
	if r.OK() {
		return "success: " + r.Success
	}
	return "error: " + r.Error
}

func successf(format string, args ...interface{}) Result {
	return Result{Success: fmt.Sprintf(format, args...)}
}

func failuref(format string, args ...interface{}) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}
