package command

import "fmt"

type Status string

const (
	StatusHandled       Status = "Command Handled"
	StatusMissing       Status = "Missing Information"
	StatusInvalid       Status = "Invalid Parameter"
	StatusNotUnderstood Status = "Command Not Understood"
	StatusError         Status = "Error"
	StatusExit          Status = "Exit"
	StatusNoInput       Status = "No Input Detected"
)

// Result is what a handler hands back to the loop: the line to speak and
// the status label written to the session log.
type Result struct {
	Response string
	Status   Status
}

func Handled(format string, args ...any) Result {
	return Result{Response: fmt.Sprintf(format, args...), Status: StatusHandled}
}

func Missing(format string, args ...any) Result {
	return Result{Response: fmt.Sprintf(format, args...), Status: StatusMissing}
}

func Invalid(format string, args ...any) Result {
	return Result{Response: fmt.Sprintf(format, args...), Status: StatusInvalid}
}

// IsProblem reports whether the status describes something the user
// should hear about as a failure.
func (s Status) IsProblem() bool {
	switch s {
	case StatusMissing, StatusInvalid, StatusNotUnderstood, StatusError, StatusNoInput:
		return true
	}
	return false
}
