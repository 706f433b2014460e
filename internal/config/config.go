package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceEnvironment string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	ServiceAPIPort     string `envconfig:"SERVICE_API_PORT" default:"18800"`
	DataDir            string `envconfig:"DATA_DIR" default:"./data"`
	Namespaces         string `envconfig:"NAMESPACES" required:"true"`
	MaxBodySize        int64  `envconfig:"MAX_BODY_SIZE" default:"104857600"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if len(cfg.NamespaceList()) == 0 {
		return nil, fmt.Errorf("NAMESPACES must contain at least one namespace")
	}

	return &cfg, nil
}

// NamespaceList splits the comma-separated NAMESPACES value, trimming
// whitespace and dropping empty entries.
func (c *Config) NamespaceList() []string {
	parts := strings.Split(c.Namespaces, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}
