// Package config loads uid-signer settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Defaults match the Base Sepolia deployment of the UniqueIdentity registry.
const (
	DefaultRPCURL          = "https://sepolia.base.org"
	DefaultRegistryAddress = "0xCB18688d24feBB377932E703805D7B2d94fF0E13"
	DefaultListenAddr      = "0.0.0.0:5001"
)

// Secret is a string that never prints its value.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// Value returns the raw secret.
func (s Secret) Value() string {
	return string(s)
}

type Config struct {
	// PrivateKey is the hex secp256k1 key attestations are signed with.
	PrivateKey Secret `env:"PRIVATE_KEY,required,notEmpty"`

	RPCURL          string        `env:"RPC_URL" envDefault:"https://sepolia.base.org"`
	RegistryAddress string        `env:"UID_ADDRESS" envDefault:"0xCB18688d24feBB377932E703805D7B2d94fF0E13"`
	RPCDialTimeout  time.Duration `env:"RPC_DIAL_TIMEOUT" envDefault:"10s"`
	// RPCDialAttempts counts the first attempt.
	RPCDialAttempts uint64 `env:"RPC_DIAL_ATTEMPTS" envDefault:"5"`

	ValidityWindow      time.Duration `env:"VALIDITY_WINDOW" envDefault:"1h"`
	DefaultIdentityType uint64        `env:"DEFAULT_ID_TYPE" envDefault:"1"`

	ListenAddr         string        `env:"LISTEN_ADDR" envDefault:"0.0.0.0:5001"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// TracingEndpoint enables OTLP/HTTP span export when set.
	TracingEndpoint  string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
}

// Load reads the process environment and validates the result.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads settings from environ instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, err
	}
	cfg.CORSAllowedOrigins = lo.Compact(lo.Map(cfg.CORSAllowedOrigins, func(origin string, _ int) string {
		return strings.TrimSpace(origin)
	}))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the parser cannot. The private key itself is validated when
// the signer is built so the error carries the signing_key_invalid kind.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL cannot be empty")
	}
	if _, err := url.ParseRequestURI(c.RPCURL); err != nil {
		return fmt.Errorf("RPC_URL is not a valid url: %w", err)
	}
	if !common.IsHexAddress(c.RegistryAddress) {
		return fmt.Errorf("UID_ADDRESS %q is not a valid address", c.RegistryAddress)
	}
	if c.ValidityWindow < time.Second {
		return fmt.Errorf("VALIDITY_WINDOW must be at least 1s, got %s", c.ValidityWindow)
	}
	if c.RPCDialAttempts == 0 {
		return fmt.Errorf("RPC_DIAL_ATTEMPTS must be at least 1")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1, got %v", c.TraceSampleRatio)
	}
	return nil
}

// Registry returns the parsed registry address.
func (c *Config) Registry() common.Address {
	return common.HexToAddress(c.RegistryAddress)
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Fields summarizes the configuration for the startup log. The key is never included.
func (c *Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("rpc", c.RPCURL),
		zap.String("contract", c.Registry().Hex()),
		zap.String("listen_addr", c.ListenAddr),
		zap.Duration("validity_window", c.ValidityWindow),
		zap.Uint64("default_id_type", c.DefaultIdentityType),
		zap.Strings("cors_allowed_origins", c.CORSAllowedOrigins),
		zap.Bool("tracing", c.TracingEndpoint != ""),
	}
}
