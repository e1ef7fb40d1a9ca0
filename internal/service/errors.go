package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/localcat/pkg/log"
)

type ErrorType int

const (
	ErrFileNotFound ErrorType = iota
	ErrFileRead
	ErrFileWrite
	ErrParse
	ErrStorage
	ErrValidation
	ErrConfig
	ErrUnknown
)

// CATError is the error surfaced to the command line, with the failing
// operation's context attached.
type CATError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *CATError {
	return &CATError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *CATError {
	return &CATError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *CATError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *CATError) Unwrap() error {
	return e.Cause
}

func (e *CATError) WithContext(key string, value any) *CATError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrFileRead:
		return "FileRead"
	case ErrFileWrite:
		return "FileWrite"
	case ErrParse:
		return "Parse"
	case ErrStorage:
		return "Storage"
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

type ErrorHandler interface {
	Handle(err error) bool
	GetAdvice(err *CATError) string
}

type DefaultErrorHandler struct{}

func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{}
}

// Handle logs err, with advice when it is a CATError. It reports whether
// the error was a known one.
func (h *DefaultErrorHandler) Handle(err error) bool {
	var catErr *CATError
	if !errors.As(err, &catErr) {
		log.Error("Unknown Error: %v", err)
		return false
	}

	advice := h.GetAdvice(catErr)
	log.Error("Error Detail: %v\n advice: %s", err, advice)

	return true
}

func (h *DefaultErrorHandler) GetAdvice(err *CATError) string {
	switch err.Type {
	case ErrFileNotFound:
		return "Please check that the file path is correct and ensure the file exists with read permissions"
	case ErrFileRead:
		return "Please check file permissions and verify the file is not corrupted"
	case ErrFileWrite:
		return "Please ensure the output directory exists and has write permissions"
	case ErrParse:
		return "Please verify the file format: glossaries must be .csv, .tsv, .xlsx or .json and sources .po or .srt"
	case ErrStorage:
		return "Please check the data directory; the memory log or history database may be locked or unwritable"
	case ErrValidation:
		return "Please verify input parameters: source text and target cannot be empty"
	case ErrConfig:
		return "Please check that the settings file and LOCALCAT_* environment variables are set correctly"
	default:
		return "Please review detailed error information and check relevant configuration and files"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var catErr *CATError
	if errors.As(err, &catErr) {
		return catErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *CATError {
	return NewErrorWithCause(errorType, message, err)
}
