// Package config loads the server configuration from defaults, an
// optional wasmserve.yaml, WASMSERVE_* environment variables and flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Kush-Singh-26/wasmserve/internal/log"
)

const (
	DefaultConfigFile = "wasmserve.yaml"
	EnvPrefix         = "WASMSERVE"
	DefaultPort       = 3000
)

// DefaultAssetExtensions are the extensions served as plain files rather
// than treated as application routes.
var DefaultAssetExtensions = []string{"js", "css", "png", "jpg", "jpeg", "gif", "svg", "ico", "wasm"}

// Config holds the whole server configuration.
type Config struct {
	Server   ServerConfig  `yaml:"server" mapstructure:"server"`
	Layout   LayoutConfig  `yaml:"layout" mapstructure:"layout"`
	Features FeatureConfig `yaml:"features" mapstructure:"features"`
	Timeouts TimeoutConfig `yaml:"timeouts" mapstructure:"timeouts"`
	Log      LogConfig     `yaml:"log" mapstructure:"log"`
}

// ServerConfig is where the server listens and what it serves.
type ServerConfig struct {
	Root string `yaml:"root" mapstructure:"root"` // Serving root (default: working directory)
	Host string `yaml:"host" mapstructure:"host"` // Empty binds all interfaces
	Port int    `yaml:"port" mapstructure:"port"` // Default: 3000
}

// LayoutConfig names the build directories and reserved URL prefixes.
type LayoutConfig struct {
	OutDir       string   `yaml:"out" mapstructure:"out"`       // Production output directory (default: out)
	DevDir       string   `yaml:"dev" mapstructure:"dev"`       // Development artifact directory (default: .next)
	IndexFile    string   `yaml:"index" mapstructure:"index"`   // SPA index document (default: index.html)
	StaticPrefix string   `yaml:"static" mapstructure:"static"` // Default: /_next/static/
	WasmPrefix   string   `yaml:"wasm" mapstructure:"wasm"`     // Default: /dash-wasm/
	APIPrefix    string   `yaml:"api" mapstructure:"api"`       // Default: /api/
	Assets       []string `yaml:"assets" mapstructure:"assets"` // Asset extension allow-list, without dots
}

// FeatureConfig toggles the optional parts of the server.
type FeatureConfig struct {
	Compress bool `yaml:"compress" mapstructure:"compress"` // gzip responses (default: false)
	Watch    bool `yaml:"watch" mapstructure:"watch"`       // build-state watcher and reload events (default: true)
	ETag     bool `yaml:"etag" mapstructure:"etag"`         // blake3 ETags on files (default: true)
}

// TimeoutConfig holds the server timings.
type TimeoutConfig struct {
	Shutdown time.Duration `yaml:"shutdown" mapstructure:"shutdown"` // Graceful shutdown bound (default: 5s)
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"` // Watcher debounce (default: 300ms)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Output string `yaml:"output" mapstructure:"output"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Root: ".",
			Host: "",
			Port: DefaultPort,
		},
		Layout: LayoutConfig{
			OutDir:       "out",
			DevDir:       ".next",
			IndexFile:    "index.html",
			StaticPrefix: "/_next/static/",
			WasmPrefix:   "/dash-wasm/",
			APIPrefix:    "/api/",
			Assets:       append([]string(nil), DefaultAssetExtensions...),
		},
		Features: FeatureConfig{
			Compress: false,
			Watch:    true,
			ETag:     true,
		},
		Timeouts: TimeoutConfig{
			Shutdown: 5 * time.Second,
			Debounce: 300 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  log.LogLevelInfo,
			Output: "stderr",
		},
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// URL is the address operators open in a browser.
func (c *Config) URL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// Load builds the configuration from args (without the program name).
// The returned FlagSet has already been parsed; its remaining arguments
// are available through Args.
func Load(args []string) (*Config, *flag.FlagSet, error) {
	d := Default()
	flags := newFlagSet(d)
	if err := flags.Parse(args); err != nil {
		return nil, flags, err
	}

	cfgFile, _ := flags.GetString("config")
	cfg, err := loadFile(cfgFile, flags.Changed("config"))
	if err != nil {
		return nil, flags, err
	}

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, flags, fmt.Errorf("error binding flags: %w", err)
	}

	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, flags, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := out.validate(); err != nil {
		return nil, flags, err
	}
	return out, flags, nil
}

// Flags returns an unparsed flag set with the default values.
func Flags() *flag.FlagSet {
	return newFlagSet(Default())
}

func newFlagSet(d *Config) *flag.FlagSet {
	flags := flag.NewFlagSet("wasmserve", flag.ContinueOnError)
	flags.SortFlags = false
	flags.StringP("config", "c", DefaultConfigFile, "configuration file (YAML)")
	flags.StringP("server.root", "r", d.Server.Root, "directory to serve")
	flags.StringP("server.host", "a", d.Server.Host, "host/IP to bind to (empty for all interfaces)")
	flags.IntP("server.port", "p", d.Server.Port, "port to listen on")
	flags.String("layout.out", d.Layout.OutDir, "production output directory")
	flags.String("layout.dev", d.Layout.DevDir, "development artifact directory")
	flags.String("layout.index", d.Layout.IndexFile, "SPA index document inside the output directory")
	flags.String("layout.static", d.Layout.StaticPrefix, "static assets URL prefix")
	flags.String("layout.wasm", d.Layout.WasmPrefix, "WASM assets URL prefix")
	flags.String("layout.api", d.Layout.APIPrefix, "API URL prefix")
	flags.StringSlice("layout.assets", d.Layout.Assets, "asset extensions served as files, comma-separated")
	flags.Bool("features.compress", d.Features.Compress, "gzip responses")
	flags.Bool("features.watch", d.Features.Watch, "watch build directories and stream reload events")
	flags.Bool("features.etag", d.Features.ETag, "send ETags for served files")
	flags.Duration("timeouts.shutdown", d.Timeouts.Shutdown, "graceful shutdown timeout")
	flags.Duration("timeouts.debounce", d.Timeouts.Debounce, "watcher debounce")
	flags.StringP("log.level", "l", d.Log.Level, "log level (debug, info, warn, error)")
	flags.StringP("log.output", "o", d.Log.Output, "log output (stdout, stderr or filepath)")
	flags.Usage = func() { Usage(os.Stderr, flags) }
	return flags
}

// Usage prints the flag help for the serve command.
func Usage(w io.Writer, flags *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: wasmserve [serve|check] [flags]\n\nFlags:\n")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintf(w, "\nEnvironment variables use the flag name upper-cased, prefixed with %s_\n", EnvPrefix)
	fmt.Fprintf(w, "  and with dots replaced by underscores, e.g. %s_SERVER_PORT=8080\n", EnvPrefix)
}

// loadFile reads the YAML file over the defaults. A missing file is only
// an error when it was asked for explicitly; a malformed one is reported
// and ignored.
func loadFile(name string, explicit bool) (*Config, error) {
	cfg := Default()
	if name == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Warnw("ignoring invalid config file", "file", name, "error", err.Error())
		return Default(), nil
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("server.root", c.Server.Root)
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("layout.out", c.Layout.OutDir)
	v.SetDefault("layout.dev", c.Layout.DevDir)
	v.SetDefault("layout.index", c.Layout.IndexFile)
	v.SetDefault("layout.static", c.Layout.StaticPrefix)
	v.SetDefault("layout.wasm", c.Layout.WasmPrefix)
	v.SetDefault("layout.api", c.Layout.APIPrefix)
	v.SetDefault("layout.assets", c.Layout.Assets)
	v.SetDefault("features.compress", c.Features.Compress)
	v.SetDefault("features.watch", c.Features.Watch)
	v.SetDefault("features.etag", c.Features.ETag)
	v.SetDefault("timeouts.shutdown", c.Timeouts.Shutdown)
	v.SetDefault("timeouts.debounce", c.Timeouts.Debounce)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.output", c.Log.Output)
}

// validate clamps values into range and normalizes paths and prefixes.
func (c *Config) validate() error {
	d := Default()

	root, err := filepath.Abs(c.Server.Root)
	if err != nil {
		return fmt.Errorf("invalid serving root %q: %w", c.Server.Root, err)
	}
	c.Server.Root = root
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}

	// Timeouts
	if c.Timeouts.Shutdown < 1*time.Second {
		c.Timeouts.Shutdown = 1 * time.Second
	}
	if c.Timeouts.Shutdown > 60*time.Second {
		c.Timeouts.Shutdown = 60 * time.Second
	}
	if c.Timeouts.Debounce < 10*time.Millisecond {
		c.Timeouts.Debounce = 10 * time.Millisecond
	}
	if c.Timeouts.Debounce > 5*time.Second {
		c.Timeouts.Debounce = 5 * time.Second
	}

	// Layout
	c.Layout.OutDir = cleanDir(c.Layout.OutDir, d.Layout.OutDir)
	c.Layout.DevDir = cleanDir(c.Layout.DevDir, d.Layout.DevDir)
	if c.Layout.IndexFile == "" {
		c.Layout.IndexFile = d.Layout.IndexFile
	}
	c.Layout.StaticPrefix = cleanPrefix(c.Layout.StaticPrefix, d.Layout.StaticPrefix)
	c.Layout.WasmPrefix = cleanPrefix(c.Layout.WasmPrefix, d.Layout.WasmPrefix)
	c.Layout.APIPrefix = cleanPrefix(c.Layout.APIPrefix, d.Layout.APIPrefix)
	assets := make([]string, 0, len(c.Layout.Assets))
	for _, ext := range c.Layout.Assets {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			assets = append(assets, ext)
		}
	}
	if len(assets) == 0 {
		assets = d.Layout.Assets
	}
	c.Layout.Assets = assets

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if !log.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Log.Output == "" {
		c.Log.Output = d.Log.Output
	}
	return nil
}

// cleanDir keeps directory names relative to the serving root.
func cleanDir(dir, fallback string) string {
	dir = strings.Trim(filepath.ToSlash(strings.TrimSpace(dir)), "/")
	if dir == "" || dir == "." || strings.HasPrefix(dir, "../") || dir == ".." {
		return fallback
	}
	return dir
}

// cleanPrefix makes a URL prefix start and end with a slash.
func cleanPrefix(prefix, fallback string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return fallback
	}
	return "/" + prefix + "/"
}
