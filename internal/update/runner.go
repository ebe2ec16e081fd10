package update

import "os/exec"

// Runner is an interface for running external commands (brew, xattr,
// open). It allows pointing tests at fake executables.
type Runner interface {
	// Output runs the command and returns its stdout. On a non-zero
	// exit the error is an *exec.ExitError carrying stderr.
	Output(name string, args ...string) ([]byte, error)
	// Run executes the command, discarding output.
	Run(name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Output executes a command and captures stdout.
func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Run executes a command.
func (ExecRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}
