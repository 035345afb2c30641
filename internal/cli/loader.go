package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/store"
)

// Error code constants - unified across all CLI commands. Config documents
// report their own codes (config.Err*).
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E005" // File or registered name not found
	ErrCodeReadFailed    = "E006" // File read error
	ErrCodeAlreadyExists = "E007" // Name already registered
	ErrCodeOpenFailed    = "E008" // Project could not be opened
	ErrCodeRunFailed     = "E009" // Checkpoint or scenario did not succeed
)

// LoadError represents an error reading CLI input.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDocument reads a YAML document from path, or from stdin when path
// is "-".
func LoadDocument(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("read stdin: %v", err)}
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("read %s: %v", path, err)}
	}
	return data, nil
}

// reportError writes err through the formatter and returns the ExitError
// the command should fail with. Invalid configuration is a validation
// failure (exit 1); everything else is a command error (exit 2).
func reportError(f *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	var verrs config.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if outErr := f.Error(verrs[0].Code, "invalid configuration", verrs); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}

	code, msg := ErrorCode(err), err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		msg = loadErr.Message
	}
	if outErr := f.Error(code, msg, nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, code, err)
}

// ErrorCode maps an error to a CLI error code.
func ErrorCode(err error) string {
	var loadErr *LoadError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrCodeAlreadyExists
	}
	return ErrCodeGeneric
}
