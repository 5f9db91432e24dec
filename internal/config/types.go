// internal/config/types.go
package config

import "time"

// Config is the root configuration structure for stackprint.
type Config struct {
	Log        LogConfig        `description:"Logging configuration" koanf:"log"`
	HTTP       HTTPConfig       `description:"Outbound request configuration" koanf:"http"`
	Scan       ScanConfig       `description:"Scan command configuration" koanf:"scan"`
	Signatures SignaturesConfig `description:"Signature catalog configuration" koanf:"signatures"`
	Server     ServerConfig     `description:"HTTP API configuration" koanf:"server"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level: trace | debug | info | warn | error" koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"oneof=text json"`
}

// HTTPConfig controls the single GET issued per URL.
type HTTPConfig struct {
	Timeout         time.Duration `description:"Per request timeout" koanf:"timeout" validate:"gt=0"`
	UserAgent       string        `description:"User-Agent header sent with every request" koanf:"user_agent" validate:"required"`
	MaxBodyBytes    int64         `description:"Largest response body read, in bytes" koanf:"max_body_bytes" validate:"gt=0"`
	Insecure        bool          `description:"Skip TLS certificate verification" koanf:"insecure"`
	FollowRedirects bool          `description:"Follow HTTP redirects" koanf:"follow_redirects"`
	MaxRedirects    int           `description:"Redirect hop limit" koanf:"max_redirects" validate:"gte=1,lte=50"`
	DNSPreflight    bool          `description:"Resolve the host before sending the request" koanf:"dns_preflight"`
}

// ScanConfig holds settings of the scan command.
type ScanConfig struct {
	Concurrency int    `description:"Number of URLs fingerprinted in parallel" koanf:"concurrency" validate:"gte=1,lte=256"`
	Output      string `description:"Report format: text | json" koanf:"output" validate:"oneof=text json"`
}

// SignaturesConfig points at an optional catalog file.
type SignaturesConfig struct {
	File string `description:"Catalog YAML file; empty uses the embedded catalog" koanf:"file"`
}

// ServerConfig holds settings of the serve command.
type ServerConfig struct {
	Addr         string        `description:"Server listen address" koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout" validate:"gte=0"`
	AllowedPorts []int         `description:"Target ports the API may fetch" koanf:"allowed_ports" validate:"min=1,dive,gte=1,lte=65535"`
	AllowedIPs   []string      `description:"Internal addresses the API may fetch despite the SSRF block list" koanf:"allowed_ips" validate:"dive,ip"`
}
