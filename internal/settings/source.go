package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are searched, in order, in each directory from the
// document's own up to the filesystem root.
var ConfigFileNames = []string{".alexlsrc.toml", ".alexlsrc.yaml", ".alexlsrc.yml"}

// Static always returns the same configuration.
type Static Config

// Fetch returns the static configuration.
func (s Static) Fetch(context.Context, string) (Config, error) {
	return Config(s), nil
}

// Client holds workspace-wide settings pushed by the editor. It is safe for
// concurrent use.
type Client struct {
	mu  sync.RWMutex
	cfg Config
}

// NewClient returns client settings initialised to cfg.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Update replaces the client configuration.
func (c *Client) Update(cfg Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

// Fetch returns the current client configuration.
func (c *Client) Fetch(context.Context, string) (Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg, nil
}

// Layered overlays sources in order; later sources win field by field.
type Layered []Source

// Fetch merges every layer. The first failing layer aborts the fetch.
func (l Layered) Fetch(ctx context.Context, uri string) (Config, error) {
	var out Config
	for _, src := range l {
		if src == nil {
			continue
		}
		cfg, err := src.Fetch(ctx, uri)
		if err != nil {
			return Config{}, err
		}
		out = Overlay(out, cfg)
	}
	return out, nil
}

// FileSource reads the nearest project config file above a document.
// Documents without a file path (untitled buffers) get an empty config.
type FileSource struct {
	// Names overrides ConfigFileNames when set.
	Names []string
}

// Fetch finds and decodes the nearest config file for uri.
func (f FileSource) Fetch(ctx context.Context, uri string) (Config, error) {
	path, ok := pathFromURI(uri)
	if !ok {
		return Config{}, nil
	}
	cfgPath, found, err := f.Find(filepath.Dir(path))
	if err != nil || !found {
		return Config{}, err
	}
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}
	return LoadFile(cfgPath)
}

// Find walks up from startDir and returns the first config file present.
func (f FileSource) Find(startDir string) (string, bool, error) {
	names := f.Names
	if len(names) == 0 {
		names = ConfigFileNames
	}
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes a TOML or YAML config file, chosen by extension.
// Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%s: unsupported config format", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func pathFromURI(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 2 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), path != ""
}
