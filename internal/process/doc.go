// Package process runs the external JDK tools used by the packaging stages.
//
// A Runner executes one Command synchronously. ExecRunner starts a real
// subprocess, echoes stdout and stderr line by line to the context logger and
// returns the captured stdout. A non-zero exit becomes an *ExitError carrying
// the exit code and both captured streams.
package process
