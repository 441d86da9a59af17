// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/protobuild/internal/adapters/cache"
	_ "go.trai.ch/protobuild/internal/adapters/config"
	_ "go.trai.ch/protobuild/internal/adapters/fs"
	_ "go.trai.ch/protobuild/internal/adapters/logger"
	_ "go.trai.ch/protobuild/internal/adapters/manifest"
	_ "go.trai.ch/protobuild/internal/adapters/repository"
	_ "go.trai.ch/protobuild/internal/adapters/shell"
	_ "go.trai.ch/protobuild/internal/adapters/source"
	_ "go.trai.ch/protobuild/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/protobuild/internal/app"
	_ "go.trai.ch/protobuild/internal/engine/archive"
	_ "go.trai.ch/protobuild/internal/engine/dedup"
	_ "go.trai.ch/protobuild/internal/engine/packer"
	_ "go.trai.ch/protobuild/internal/engine/resolver"
)
