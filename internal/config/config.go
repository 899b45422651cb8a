// Package config loads YAML configuration for the ring signature
// HTTP upload server: defaults first, then whatever the file
// overrides, tolerant of a missing file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the HTTP upload server.
type Server struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	UploadDir         string   `yaml:"upload_dir"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		BindAddress:        "0.0.0.0",
		Port:               8090,
		UploadDir:          "./uploads",
		AllowedExtensions:  []string{"pem"},
		MaxUploadBytes:     1 << 20,
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
	}
}

// LoadServer loads the HTTP upload server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// AllowsExtension reports whether ext (without a leading dot) is
// permitted for uploaded files.
func (s Server) AllowsExtension(ext string) bool {
	for _, allowed := range s.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

// CLIDefaults holds default flag values for the ringsigctl
// command-line tool as read from YAML. ringsigctl does not load it;
// its flag defaults are fixed in cmd/ringsigctl.
type CLIDefaults struct {
	RingBits int    `yaml:"ring_bits"`
	LogLevel string `yaml:"log_level"`
}

// DefaultCLI returns CLIDefaults with sensible defaults.
func DefaultCLI() CLIDefaults {
	return CLIDefaults{
		RingBits: 2048,
		LogLevel: "info",
	}
}

// LoadCLI loads CLIDefaults from a YAML file. If the file doesn't
// exist, returns defaults.
func LoadCLI(path string) (CLIDefaults, error) {
	cfg := DefaultCLI()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
