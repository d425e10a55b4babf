package errors

import (
	stderrors "errors"
	"io/fs"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"

	"github.com/surgeprotector/surgeprotector/internal/config"
	"github.com/surgeprotector/surgeprotector/internal/core"
)

// Error codes carried by envelopes.
const (
	CodeSamplingFailed   = "SAMPLING_FAILED"
	CodeStoreReadFailed  = "STORE_READ_FAILED"
	CodeStoreWriteFailed = "STORE_WRITE_FAILED"
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeFileNotFound     = "FILE_NOT_FOUND"
	CodeInternal         = "INTERNAL_ERROR"
)

func NewSamplingError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeSamplingFailed, message)
}

func NewStoreReadError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeStoreReadFailed, message)
}

func NewStoreWriteError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeStoreWriteFailed, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

func NewFileNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeFileNotFound, message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInternal, message)
}

// Classify maps err to a semantic exit code and an envelope carrying the
// original error. An empty correlationID gets a fresh UUID. Errors that
// already are envelopes keep their code.
func Classify(err error, correlationID string) (foundry.ExitCode, *errors.ErrorEnvelope) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	var envelope *errors.ErrorEnvelope
	var code foundry.ExitCode

	var existing *errors.ErrorEnvelope
	switch {
	case err == nil:
		return 0, nil
	case stderrors.As(err, &existing) && existing != nil:
		envelope = existing
		code = ExitCodeFor(existing.Code)
	case stderrors.Is(err, config.ErrInvalid):
		envelope = NewConfigInvalidError("configuration is invalid")
		code = foundry.ExitConfigInvalid
	case stderrors.Is(err, core.ErrSampling):
		envelope = NewSamplingError("failed to sample connections")
		code = foundry.ExitExternalServiceUnavailable
	case stderrors.Is(err, fs.ErrNotExist):
		envelope = NewFileNotFoundError("file not found")
		code = foundry.ExitFileNotFound
	case stderrors.Is(err, core.ErrStoreRead):
		envelope = NewStoreReadError("failed to read blocklist")
		code = foundry.ExitFailure
	case stderrors.Is(err, core.ErrStoreWrite):
		envelope = NewStoreWriteError("failed to write blocklist")
		code = foundry.ExitFailure
	default:
		envelope = NewInternalError("unexpected error")
		envelope, _ = envelope.WithSeverity(errors.SeverityHigh)
		code = foundry.ExitFailure
	}

	if envelope.CorrelationID == "" {
		envelope = envelope.WithCorrelationID(correlationID)
	}
	if envelope != existing {
		envelope = withWrappedError(envelope, err)
	}
	return code, envelope
}

// ExitCodeFor resolves the exit code for an envelope code.
func ExitCodeFor(code string) foundry.ExitCode {
	switch code {
	case CodeConfigInvalid:
		return foundry.ExitConfigInvalid
	case CodeSamplingFailed:
		return foundry.ExitExternalServiceUnavailable
	case CodeFileNotFound:
		return foundry.ExitFileNotFound
	default:
		return foundry.ExitFailure
	}
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	updated.Original = err
	return updated
}
