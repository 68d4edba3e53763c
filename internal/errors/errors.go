// Package errors provides structured error types for framegrid operations.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindInvalidConfiguration represents invalid generation parameters.
	KindInvalidConfiguration ErrorKind = iota
	// KindLayoutFailed represents failure to find a feasible mosaic geometry.
	KindLayoutFailed
	// KindExtractionDegraded represents non-fatal frame extraction degradation.
	KindExtractionDegraded
	// KindImageGeneration represents composition-stage failures.
	KindImageGeneration
	// KindInvalidDimensions represents a non-positive canvas size.
	KindInvalidDimensions
	// KindSaveFailed represents output export or persist failures.
	KindSaveFailed
	// KindBackendUnavailable represents an uninitializable rendering backend.
	KindBackendUnavailable
	// KindCommand represents external command execution errors.
	KindCommand
	// KindProbeParse represents FFprobe output parsing errors.
	KindProbeParse
	// KindVideoInfo represents video metadata extraction errors.
	KindVideoInfo
	// KindNoFilesFound represents no suitable video files found.
	KindNoFilesFound
	// KindCancelled represents user-cancelled operations.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidConfiguration:
		return "Invalid configuration"
	case KindLayoutFailed:
		return "Layout creation failed"
	case KindExtractionDegraded:
		return "Frame extraction degraded"
	case KindImageGeneration:
		return "Image generation failed"
	case KindInvalidDimensions:
		return "Invalid dimensions"
	case KindSaveFailed:
		return "Save failed"
	case KindBackendUnavailable:
		return "Backend unavailable"
	case KindCommand:
		return "Command error"
	case KindProbeParse:
		return "FFprobe parse error"
	case KindVideoInfo:
		return "Video info error"
	case KindNoFilesFound:
		return "No files found"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind represents the type of command error.
type CommandErrorKind int

const (
	// CommandStart means the command failed to start.
	CommandStart CommandErrorKind = iota
	// CommandWait means waiting for the command failed.
	CommandWait
	// CommandFailed means the command returned non-zero exit status.
	CommandFailed
)

// CommandError represents an error from executing an external command.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case CommandStart:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case CommandWait:
		return fmt.Sprintf("failed to wait for %s: %v", e.Command, e.Underlying)
	case CommandFailed:
		if e.Stderr != "" {
			return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("command %s error: %v", e.Command, e.Underlying)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// SaveError represents a failure to write a generated image, keeping the
// target path alongside the underlying cause.
type SaveError struct {
	Path       string
	Underlying error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Path, e.Underlying)
}

func (e *SaveError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for framegrid operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewInvalidConfigError creates an error for invalid generation parameters.
func NewInvalidConfigError(message string) *CoreError {
	return &CoreError{Kind: KindInvalidConfiguration, Message: message}
}

// NewLayoutError creates an error for infeasible mosaic geometry.
func NewLayoutError(message string) *CoreError {
	return &CoreError{Kind: KindLayoutFailed, Message: message}
}

// NewExtractionDegradedError creates an informational error recording how many
// samples fell back to blank placeholders. It is reported, never fatal.
func NewExtractionDegradedError(placeholders, total int) *CoreError {
	return &CoreError{
		Kind:    KindExtractionDegraded,
		Message: fmt.Sprintf("%d of %d frames replaced with blank placeholders", placeholders, total),
	}
}

// NewImageGenerationError creates an error for composition-stage failures.
func NewImageGenerationError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindImageGeneration, Message: message, Underlying: underlying}
}

// NewInvalidDimensionsError creates an error for a non-positive canvas size.
func NewInvalidDimensionsError(width, height int) *CoreError {
	return &CoreError{
		Kind:    KindInvalidDimensions,
		Message: fmt.Sprintf("canvas size %dx%d is not positive", width, height),
	}
}

// NewSaveError creates an error for a failed image write, keeping the target path.
func NewSaveError(path string, underlying error) *CoreError {
	saveErr := &SaveError{Path: path, Underlying: underlying}
	return &CoreError{Kind: KindSaveFailed, Message: saveErr.Error(), Underlying: saveErr}
}

// NewBackendUnavailableError creates an error for a backend that cannot initialize.
func NewBackendUnavailableError(backend string, underlying error) *CoreError {
	return &CoreError{
		Kind:       KindBackendUnavailable,
		Message:    fmt.Sprintf("%s backend is not available", backend),
		Underlying: underlying,
	}
}

// NewCommandError creates a new command execution error.
func NewCommandError(cmd string, kind CommandErrorKind, underlying error) *CoreError {
	cmdErr := &CommandError{
		Command:    cmd,
		Kind:       kind,
		Underlying: underlying,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewCommandStartError creates an error for when a command fails to start.
func NewCommandStartError(cmd string, err error) *CoreError {
	return NewCommandError(cmd, CommandStart, err)
}

// NewCommandWaitError creates an error for when waiting for a command fails.
func NewCommandWaitError(cmd string, err error) *CoreError {
	return NewCommandError(cmd, CommandWait, err)
}

// NewCommandFailedError creates an error for when a command returns non-zero exit status.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	cmdErr := &CommandError{
		Command:  cmd,
		Kind:     CommandFailed,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewProbeParseError creates a new FFprobe parsing error.
func NewProbeParseError(message string) *CoreError {
	return &CoreError{Kind: KindProbeParse, Message: message}
}

// NewVideoInfoError creates a new video metadata extraction error.
func NewVideoInfoError(message string) *CoreError {
	return &CoreError{Kind: KindVideoInfo, Message: message}
}

// NewNoFilesFoundError creates an error for when no video files are found.
func NewNoFilesFoundError(dir string) *CoreError {
	return &CoreError{Kind: KindNoFilesFound, Message: fmt.Sprintf("no suitable video files found in %s", dir)}
}

// NewCancelledError creates an error for user-cancelled operations.
func NewCancelledError() *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled by the user"}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsNoFilesFound checks if the error is a no-files-found error.
func IsNoFilesFound(err error) bool {
	return IsKind(err, KindNoFilesFound)
}

// WrapExecError wraps an exec.ExitError into a CoreError.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandStartError(cmd, err)
}
