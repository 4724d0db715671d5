// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/prefab/internal/adapters/codec"
	_ "go.trai.ch/prefab/internal/adapters/config"
	_ "go.trai.ch/prefab/internal/adapters/logger"
	_ "go.trai.ch/prefab/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/prefab/internal/app"
)
