// internal/config/config.go
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kavinsood/stackprint/stackprint"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

var validate = validator.New()

// FlagKeys maps CLI flag names to configuration keys.
var FlagKeys = map[string]string{
	"log-level":        "log.level",
	"log-format":       "log.format",
	"timeout":          "http.timeout",
	"user-agent":       "http.user_agent",
	"max-body-bytes":   "http.max_body_bytes",
	"insecure":         "http.insecure",
	"follow-redirects": "http.follow_redirects",
	"max-redirects":    "http.max_redirects",
	"dns-preflight":    "http.dns_preflight",
	"concurrency":      "scan.concurrency",
	"output":           "scan.output",
	"signatures":       "signatures.file",
	"addr":             "server.addr",
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns the baseline configuration used when no other source
// overrides a value.
func DefaultConfig() Config {
	fetch := stackprint.DefaultFetchOptions()
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			Timeout:         fetch.Timeout,
			UserAgent:       fetch.UserAgent,
			MaxBodyBytes:    fetch.MaxBodyBytes,
			Insecure:        fetch.Insecure,
			FollowRedirects: fetch.FollowRedirects,
			MaxRedirects:    fetch.MaxRedirects,
			DNSPreflight:    fetch.DNSPreflight,
		},
		Scan: ScanConfig{
			Concurrency: 4,
			Output:      "text",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			AllowedPorts: []int{80, 443},
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for koanf's confmap provider.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"http.timeout":          def.HTTP.Timeout,
		"http.user_agent":       def.HTTP.UserAgent,
		"http.max_body_bytes":   def.HTTP.MaxBodyBytes,
		"http.insecure":         def.HTTP.Insecure,
		"http.follow_redirects": def.HTTP.FollowRedirects,
		"http.max_redirects":    def.HTTP.MaxRedirects,
		"http.dns_preflight":    def.HTTP.DNSPreflight,

		"scan.concurrency": def.Scan.Concurrency,
		"scan.output":      def.Scan.Output,

		"signatures.file": def.Signatures.File,

		"server.addr":          def.Server.Addr,
		"server.read_timeout":  def.Server.ReadTimeout,
		"server.write_timeout": def.Server.WriteTimeout,
		"server.allowed_ports": def.Server.AllowedPorts,
	}
}

// Load merges defaults, the optional config file, STACKPRINT_* environment
// variables and explicitly set flags, in that order, then validates the result.
func (m *Manager) Load(flags *pflag.FlagSet, configFilePath string) error {
	return m.LoadSources(DefaultSources(configFilePath, flags)...)
}

// LoadSources is Load with a custom source list.
func (m *Manager) LoadSources(sources ...ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := koanf.New(".")
	sortSources(sources)
	for _, src := range sources {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := k.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := Validate(newCfg); err != nil {
		return err
	}

	m.koanfInstance = k
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Koanf exposes the merged key space, mainly for debugging output.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

// Validate checks a configuration against its struct tags.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// FetchOptions converts the HTTP section into fetch options.
func (c Config) FetchOptions() stackprint.FetchOptions {
	return stackprint.FetchOptions{
		Timeout:         c.HTTP.Timeout,
		UserAgent:       c.HTTP.UserAgent,
		MaxBodyBytes:    c.HTTP.MaxBodyBytes,
		Insecure:        c.HTTP.Insecure,
		FollowRedirects: c.HTTP.FollowRedirects,
		MaxRedirects:    c.HTTP.MaxRedirects,
		DNSPreflight:    c.HTTP.DNSPreflight,
	}
}

// BindFlags defines the command-line flags that override configuration.
// Flag defaults only feed the help text; unset flags never override other sources.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()

	flags.String("log-level", def.Log.Level, "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", def.Log.Format, "Log format (text, json)")
	flags.Bool("debug", false, "Enable debug logging")

	flags.Duration("timeout", def.HTTP.Timeout, "Per request timeout")
	flags.String("user-agent", def.HTTP.UserAgent, "User-Agent header")
	flags.Int64("max-body-bytes", def.HTTP.MaxBodyBytes, "Largest response body read, in bytes")
	flags.Bool("insecure", def.HTTP.Insecure, "Skip TLS certificate verification")
	flags.Bool("follow-redirects", def.HTTP.FollowRedirects, "Follow HTTP redirects")
	flags.Int("max-redirects", def.HTTP.MaxRedirects, "Redirect hop limit")
	flags.Bool("dns-preflight", def.HTTP.DNSPreflight, "Resolve the host before sending the request")

	flags.String("signatures", def.Signatures.File, "Signature catalog YAML file (default: embedded catalog)")
}
