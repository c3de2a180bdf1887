// Package config holds the process-wide settings. Defaults come from struct
// tags and may be overridden by a TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mcuadros/go-defaults"

	"github.com/high-horse/fingerprint-server/internal/decision"
	"github.com/high-horse/fingerprint-server/internal/logging"
	"github.com/high-horse/fingerprint-server/internal/matching"
	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/ridge"
)

// Config is the active configuration. LoadDefaultConfig or Load must run
// before it is read.
var Config *Configuration

type Configuration struct {
	// Workers bounds parallel scoring; 0 means one per CPU.
	Workers  int             `toml:"workers" default:"0"`
	Ridge    ridge.Params    `toml:"ridge"`
	Detector minutiae.Params `toml:"detector"`
	Matcher  matching.Params `toml:"matcher"`
	Decision decision.Policy `toml:"decision"`
	Server   ServerConfig    `toml:"server"`
	Store    StoreConfig     `toml:"store"`
	Log      logging.Options `toml:"log"`
}

type ServerConfig struct {
	Address      string        `toml:"address" default:":9090"`
	BodyLimit    int           `toml:"body_limit" default:"16777216"`
	ReadTimeout  time.Duration `toml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `toml:"write_timeout" default:"2m"`
	// SkeletonThreshold separates ridge from background in uploaded skeletons.
	SkeletonThreshold uint8 `toml:"skeleton_threshold" default:"127"`
}

type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `toml:"backend" default:"memory"`
	Redis   RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Address  string `toml:"address" default:"localhost:6379"`
	Password string `toml:"password"`
	DB       int    `toml:"db" default:"0"`
}

func Default() *Configuration {
	c := &Configuration{}
	defaults.SetDefaults(c)
	return c
}

func LoadDefaultConfig() {
	Config = Default()
}

// Load reads path over the defaults and makes the result the active
// configuration. Keys the file sets that no field takes are an error.
func Load(path string) (*Configuration, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	Config = c
	return c, nil
}

func (c *Configuration) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Matcher.LocalDistance <= 0 || c.Matcher.LocalAngle <= 0 || c.Matcher.GlobalDistance <= 0 || c.Matcher.GlobalAngle <= 0 {
		errs = append(errs, errors.New("matcher tolerances must be positive"))
	}
	if c.Detector.MinWalk > c.Detector.MaxWalk {
		errs = append(errs, errors.New("detector min_walk exceeds max_walk"))
	}
	for name, size := range map[string]int{
		"mask_window":        c.Ridge.MaskWindow,
		"orientation_window": c.Ridge.OrientationWindow,
		"period_blur":        c.Ridge.PeriodBlur,
	} {
		if size <= 0 || size%2 == 0 {
			errs = append(errs, fmt.Errorf("ridge %s must be a positive odd size, got %d", name, size))
		}
	}
	return errors.Join(errs...)
}

// MatcherParams returns the matcher settings with the global worker count
// applied when the matcher does not set its own.
func (c *Configuration) MatcherParams() matching.Params {
	p := c.Matcher
	if p.Workers == 0 {
		p.Workers = c.Workers
	}
	return p
}
