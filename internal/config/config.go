package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Default values used when neither a flag nor an environment variable is set.
const (
	DefaultPort        = 8000
	DefaultGRPCPort    = 9000
	DefaultEnvironment = "production"

	// EnvDevelopment turns on verbose logging.
	EnvDevelopment = "development"
)

// Config holds all service configuration resolved from flags and environment
// variables.
type Config struct {
	Port     int // HTTP port, bound on all interfaces
	GRPCPort int // gRPC port, 0 disables the listener

	v *viper.Viper
}

// New returns a viper instance with defaults and environment bindings for
// every key the service reads. Callers may bind CLI flags on it before
// passing it to Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", DefaultPort)
	v.SetDefault("grpc_port", DefaultGRPCPort)
	v.SetDefault("env", DefaultEnvironment)

	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("grpc_port", "GRPC_PORT")
	_ = v.BindEnv("env", "APP_ENV", "FLASK_ENV")
	return v
}

// Load resolves the configuration from v. A nil v uses New(). Malformed
// port values fall back to the defaults.
func Load(v *viper.Viper) *Config {
	if v == nil {
		v = New()
	}
	return &Config{
		Port:     portOrDefault(v, "port", DefaultPort),
		GRPCPort: portOrDefault(v, "grpc_port", DefaultGRPCPort),
		v:        v,
	}
}

// Environment returns the environment label. It is looked up on every call
// so a changed APP_ENV or FLASK_ENV is visible without a restart.
func (c *Config) Environment() string {
	if c == nil || c.v == nil {
		return DefaultEnvironment
	}
	if env := c.v.GetString("env"); env != "" {
		return env
	}
	return DefaultEnvironment
}

// Debug reports whether the service runs in development mode.
func (c *Config) Debug() bool {
	return c.Environment() == EnvDevelopment
}

// ListenAddr is the HTTP listen address on all interfaces.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// GRPCAddr is the gRPC listen address, or "" when gRPC is disabled.
func (c *Config) GRPCAddr() string {
	if c.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("0.0.0.0:%d", c.GRPCPort)
}

func portOrDefault(v *viper.Viper, key string, fallback int) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 65535 {
		log.Printf("WARNING: invalid %s %q, using %d", strings.ToUpper(key), raw, fallback)
		return fallback
	}
	return n
}
