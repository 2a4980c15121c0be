package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

const DefaultFileName = "parenttools.toml"

type Server struct {
	Addr string `toml:"addr"`
	// directory with static files served on /, empty to disable
	WebPath string `toml:"web_path"`
	// scene loaded on startup, empty starts with an empty scene
	Scene string `toml:"scene"`
}

type Log struct {
	Level string `toml:"level"`
	// per frame values of the keyframe converter
	Conversion bool `toml:"conversion"`
}

type Scene struct {
	// used for scenes that do not store their frame rate
	FPS float64 `toml:"fps"`
}

type Config struct {
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`
	Scene  Scene  `toml:"scene"`
}

func Default() Config {
	return Config{
		Server: Server{Addr: ":8000"},
		Log:    Log{Level: "info"},
		Scene:  Scene{FPS: 24},
	}
}

// Decode reads data over the defaults. Unknown keys are an error.
func Decode(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "Failed to decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.Errorf("Unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Load reads the config file at path. A missing file gives the defaults
// unless the path was asked for explicitly.
func Load(path string, explicit bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Default(), errors.Wrapf(err, "Failed to read config %q", path)
	}
	cfg, err := Decode(string(data))
	if err != nil {
		return cfg, errors.Wrapf(err, "%q", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level")
	}
	if c.Scene.FPS <= 0 {
		return errors.Errorf("scene.fps must be positive, got %v", c.Scene.FPS)
	}
	return nil
}

func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

var currentConfig = Default()

func Get() Config {
	return currentConfig
}

func Set(c Config) {
	currentConfig = c
}
