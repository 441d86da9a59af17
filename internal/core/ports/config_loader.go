package ports

import "go.trai.ch/protobuild/internal/core/domain"

// SettingsLoader loads tool settings.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type SettingsLoader interface {
	// Load returns settings for the working directory cwd.
	Load(cwd string) (*domain.Settings, error)
}
