package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"paren/interpreter-go/pkg/interpreter"
)

// ConfigFileName is the file FindConfig looks for.
const ConfigFileName = "paren.yml"

// ConfigEnvVar names an explicit config path, consulted before searching.
const ConfigEnvVar = "PAREN_CONFIG"

// ErrConfigNotFound is returned by FindConfig when no paren.yml exists in the
// start directory or any of its parents.
var ErrConfigNotFound = errors.New(ConfigFileName + " not found")

// Config holds the driver settings read from paren.yml.
type Config struct {
	// Path is the absolute path of the file the config was read from, or ""
	// for the defaults.
	Path               string
	Prompt             string
	ContinuationPrompt string
	HistoryFile        string
	Journal            string
	Color              bool
	ParseCacheSize     int
	// MaxDepth bounds nested function calls and scopes per evaluation.
	MaxDepth int
	Preload  []string
}

// DefaultConfig returns the settings used when no paren.yml is found.
func DefaultConfig() *Config {
	return &Config{
		Prompt:             "user> ",
		ContinuationPrompt: "....> ",
		HistoryFile:        expandHome("~/.paren_history"),
		Color:              true,
		ParseCacheSize:     128,
		MaxDepth:           interpreter.DefaultMaxDepth,
	}
}

type configFile struct {
	Prompt             *string    `yaml:"prompt"`
	ContinuationPrompt *string    `yaml:"continuation_prompt"`
	HistoryFile        *string    `yaml:"history_file"`
	Journal            string     `yaml:"journal"`
	Color              *bool      `yaml:"color"`
	ParseCacheSize     *int       `yaml:"parse_cache_size"`
	MaxDepth           *int       `yaml:"max_depth"`
	Preload            stringList `yaml:"preload"`
}

// LoadConfig parses a paren.yml from disk. Fields the file omits keep their
// defaults; relative preload and journal paths resolve against the file's
// directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: %s is empty", absPath)
		}
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}

	cfg := raw.toConfig(absPath)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	glog.Infof("loaded config from %s", absPath)
	return cfg, nil
}

func (cf configFile) toConfig(path string) *Config {
	cfg := DefaultConfig()
	cfg.Path = path
	base := filepath.Dir(path)
	if cf.Prompt != nil {
		cfg.Prompt = *cf.Prompt
	}
	if cf.ContinuationPrompt != nil {
		cfg.ContinuationPrompt = *cf.ContinuationPrompt
	}
	if cf.HistoryFile != nil {
		cfg.HistoryFile = expandHome(strings.TrimSpace(*cf.HistoryFile))
	}
	if cf.Color != nil {
		cfg.Color = *cf.Color
	}
	if cf.ParseCacheSize != nil {
		cfg.ParseCacheSize = *cf.ParseCacheSize
	}
	if cf.MaxDepth != nil {
		cfg.MaxDepth = *cf.MaxDepth
	}
	cfg.Journal = resolvePath(base, strings.TrimSpace(cf.Journal))
	for _, entry := range cf.Preload {
		cfg.Preload = append(cfg.Preload, resolvePath(base, entry))
	}
	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.Prompt == "" {
		errs = multierror.Append(errs, fmt.Errorf("prompt must be non-empty"))
	}
	if c.ContinuationPrompt == "" {
		errs = multierror.Append(errs, fmt.Errorf("continuation_prompt must be non-empty"))
	}
	if c.ParseCacheSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("parse_cache_size must be >= 0, got %d", c.ParseCacheSize))
	}
	if c.MaxDepth < 1 {
		errs = multierror.Append(errs, fmt.Errorf("max_depth must be >= 1, got %d", c.MaxDepth))
	}
	for i, p := range c.Preload {
		if p == "" {
			errs = multierror.Append(errs, fmt.Errorf("preload[%d] must be a non-empty path", i))
		}
	}
	return errs.ErrorOrNil()
}

// FindConfig walks from start up to the filesystem root looking for
// paren.yml.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %q: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	origin := dir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found from %s upwards: %w", ConfigFileName, origin, ErrConfigNotFound)
		}
		dir = parent
	}
}

// ResolveConfig loads the config named by explicit, then by $PAREN_CONFIG,
// then the nearest paren.yml above start. With none of those present it
// returns the defaults.
func ResolveConfig(explicit, start string) (*Config, error) {
	if explicit != "" {
		return LoadConfig(explicit)
	}
	if env := strings.TrimSpace(os.Getenv(ConfigEnvVar)); env != "" {
		return LoadConfig(env)
	}
	path, err := FindConfig(start)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			glog.V(1).Infof("no %s found; using defaults", ConfigFileName)
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return LoadConfig(path)
}

func resolvePath(base, p string) string {
	if p == "" {
		return ""
	}
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		glog.Warningf("cannot expand %s: %v", p, err)
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// stringList accepts either a single string or a sequence of strings.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, strings.TrimSpace(str))
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("config: expected string or sequence but found %s", value.ShortTag())
	}
}
