package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	apperrors "github.com/surgeprotector/surgeprotector/internal/errors"
	"github.com/surgeprotector/surgeprotector/internal/observability"
)

// HandleError classifies a command error, reports it and exits with the
// matching semantic exit code. A failed update cycle's ID becomes the
// correlation ID.
func HandleError(err error) {
	if err == nil {
		return
	}

	code, envelope := apperrors.Classify(err, lastCycleID)
	ExitWithCode(observability.CLILogger, code, "Command failed", envelope)
}

// ExitWithCode exits the program with a semantic foundry exit code and logs the error.
// logger may be nil for early failures; the report then goes to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := lookupExitCode(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger != nil {
		logger.Error(msg, exitFields(info, err)...)
	} else {
		writeExitReport(msg, info, err)
	}

	os.Exit(info.Code)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
// Use this for early failures before logger initialization.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := lookupExitCode(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	writeExitReport(msg, info, err)
	os.Exit(info.Code)
}

// exitInfo is the subset of the foundry exit code catalog entry we report.
type exitInfo struct {
	Code        int
	Name        string
	Description string
	Category    string
}

func lookupExitCode(exitCode foundry.ExitCode) (exitInfo, bool) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		return exitInfo{}, false
	}
	return exitInfo{
		Code:        info.Code,
		Name:        info.Name,
		Description: info.Description,
		Category:    info.Category,
	}, true
}

func exitFields(info exitInfo, err error) []zap.Field {
	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_description", info.Description),
		zap.String("exit_category", info.Category),
	}

	if envelope, ok := err.(*errors.ErrorEnvelope); ok {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("error_message", envelope.Message),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
		if originalErr, ok := envelope.Original.(error); ok && originalErr != nil {
			err = originalErr
		}
	}

	return append(fields, zap.Error(err))
}

func writeExitReport(msg string, info exitInfo, err error) {
	switch e := err.(type) {
	case nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	case *errors.ErrorEnvelope:
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %v (correlation: %s)\n", msg, e.Code, e.Message, e.CorrelationID)
		if originalErr, ok := e.Original.(error); ok && originalErr != nil {
			fmt.Fprintf(os.Stderr, "Underlying error: %v\n", originalErr)
		}
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
}
