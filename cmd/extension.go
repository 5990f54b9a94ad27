package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// RunExtension attempts to find and execute an external pay-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// Global flags are passed to the extension as PAY_* environment variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "pay-" + subcommand

	// Look for the external command in PATH
	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return true, status.ExitStatus()
			}
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv returns the global flags as environment variables.
func extensionEnv() []string {
	return []string{
		EnvLogLevel + "=" + *logLevel,
		EnvLogFormat + "=" + *logFormat,
		EnvDisputeWindow + "=" + strconv.FormatUint(*disputeWindow, 10),
		EnvAMQPURL + "=" + *amqpURL,
		EnvAMQPQueue + "=" + *amqpQueue,
		EnvDatabaseURL + "=" + *databaseURL,
		EnvDatabaseDriver + "=" + *databaseDriver,
	}
}
