package cli

import (
	"fmt"

	"github.com/skeletrack/skeletrack/pkg/config"
	"github.com/skeletrack/skeletrack/pkg/nite"
	"github.com/skeletrack/skeletrack/pkg/replay"
	"github.com/skeletrack/skeletrack/pkg/simulator"
)

func newEngine(cfg *config.Config) (nite.Engine, error) {
	switch cfg.Engine {
	case config.EngineSimulator:
		return simulator.New(cfg.Simulator), nil
	case config.EngineReplay:
		return replay.New(cfg.Replay), nil
	case config.EngineNative:
		return newNativeEngine()
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalidConfig, cfg.Engine)
	}
}
