//go:build !nite

package cli

import (
	"errors"
	"fmt"

	"github.com/skeletrack/skeletrack/pkg/config"
	"github.com/skeletrack/skeletrack/pkg/nite"
)

// ErrNativeUnavailable is returned when the native engine is requested from
// a binary built without the nite tag.
var ErrNativeUnavailable = errors.New("native engine not available; rebuild with -tags nite")

func newNativeEngine() (nite.Engine, error) {
	return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, ErrNativeUnavailable)
}

func availableEngines() string {
	return "sim, replay"
}
