//go:build nite

package cli

import (
	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/nite/native"
)

func newNativeEngine() (nite.Engine, error) {
	return native.New(), nil
}

func availableEngines() string {
	return "sim, replay, nite"
}
