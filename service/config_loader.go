package service

import (
	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/config"
)

// ConfigurationLoaderImpl loads engine configuration for the CLI layer
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path; an empty path
// searches the working directory and its parents before falling back to
// defaults
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads discovered configuration, falling back to the
// hardcoded defaults when nothing is found or the file is broken
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *config.Config {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// OptionsFromConfig converts configuration into run options
func (c *ConfigurationLoaderImpl) OptionsFromConfig(cfg *config.Config) domain.Options {
	return domain.Options{
		IncludeAccessibility: cfg.Analysis.IncludeAccessibility,
		IncludePerformance:   cfg.Analysis.IncludePerformance,
		TargetClients:        cfg.Analysis.TargetClients,
	}
}
