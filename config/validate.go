package config

import (
	"fmt"
	"strings"

	nativecommon "github.com/exfury/gridiron-core/native/common"
)

var knownModules = map[string]struct{}{
	nativecommon.ModuleGenerator:    {},
	nativecommon.ModuleVotingEscrow: {},
}

var knownLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate reports the first inconsistency in the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("ListenAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	if level := strings.ToLower(strings.TrimSpace(c.LogLevel)); level != "" {
		if _, ok := knownLevels[level]; !ok {
			return fmt.Errorf("LogLevel %q not recognised", c.LogLevel)
		}
	}
	for _, module := range c.PausedModules {
		normalized := strings.ToLower(strings.TrimSpace(module))
		if _, ok := knownModules[normalized]; !ok {
			return fmt.Errorf("PausedModules: unknown module %q", module)
		}
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("RateLimit.RequestsPerSecond must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RateLimit.Burst must be positive when rate limiting is enabled")
	}
	if (c.Telemetry.Metrics || c.Telemetry.Traces) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("Telemetry.Endpoint required when exporters are enabled")
	}
	return nil
}
