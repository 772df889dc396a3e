package exitcodes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeError(t *testing.T) {
	underlying := errors.New("registry unreachable")
	err := &ExitCodeError{Code: ExitRegistryTransportError, Err: underlying}

	assert.Contains(t, err.Error(), "exit code 22")
	assert.Contains(t, err.Error(), "registry unreachable")
	assert.ErrorIs(t, err, underlying)
}

func TestIsExitCodeError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode int
		wantOK   bool
	}{
		{
			name:     "direct exit code error",
			err:      &ExitCodeError{Code: ExitIOError, Err: errors.New("read failed")},
			wantCode: ExitIOError,
			wantOK:   true,
		},
		{
			name:     "wrapped exit code error",
			err:      fmt.Errorf("check: %w", &ExitCodeError{Code: ExitInputConfigurationError, Err: errors.New("bad flag")}),
			wantCode: ExitInputConfigurationError,
			wantOK:   true,
		},
		{
			name:   "plain error",
			err:    errors.New("plain"),
			wantOK: false,
		},
		{
			name:   "nil error",
			err:    nil,
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := IsExitCodeError(tc.err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantCode, code)
		})
	}
}

func TestCodeDescriptionsCoverDefinedCodes(t *testing.T) {
	for _, code := range []int{
		ExitSuccess,
		ExitInputConfigurationError,
		ExitManifestNotFound,
		ExitDockerfileProcessingError,
		ExitComposeProcessingError,
		ExitGeneralRuntimeError,
		ExitIOError,
		ExitRegistryTransportError,
		ExitInternalError,
	} {
		assert.NotEmpty(t, CodeDescriptions[code], "missing description for code %d", code)
	}
}
