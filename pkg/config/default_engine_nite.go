//go:build nite

package config

// DefaultEngine is the engine used when none is configured
const DefaultEngine = EngineNative
