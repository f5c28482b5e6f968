// Package config loads the process configuration once at startup. Values
// come from the environment, optionally seeded from dotenv files.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/engine"
	"github.com/vkngwrapper/vkframe/graphics"
)

const (
	KeyValidate      = "VKFRAME_VALIDATE"
	KeyDevice        = "VKFRAME_DEVICE"
	KeyImages        = "VKFRAME_IMAGES"
	KeyVSync         = "VKFRAME_VSYNC"
	KeyUPS           = "VKFRAME_UPS"
	KeyClearColor    = "VKFRAME_CLEAR_COLOR"
	KeyWindowTitle   = "VKFRAME_WINDOW_TITLE"
	KeyWindowWidth   = "VKFRAME_WINDOW_WIDTH"
	KeyWindowHeight  = "VKFRAME_WINDOW_HEIGHT"
	KeyLogLevel      = "VKFRAME_LOG_LEVEL"
	KeyStatsInterval = "VKFRAME_STATS_INTERVAL"
)

type Config struct {
	Validate      bool
	Device        string
	Images        int
	VSync         bool
	UPS           int
	ClearColor    mgl32.Vec4
	WindowTitle   string
	WindowWidth   int
	WindowHeight  int
	LogLevel      logrus.Level
	StatsInterval time.Duration
}

func Default() Config {
	return Config{
		Validate:      true,
		Images:        3,
		VSync:         true,
		UPS:           30,
		ClearColor:    graphics.DefaultClearColor,
		WindowTitle:   "vkframe",
		WindowWidth:   800,
		WindowHeight:  600,
		LogLevel:      logrus.InfoLevel,
		StatsInterval: 5 * time.Second,
	}
}

// Load reads the configuration. Each file is a dotenv file that is skipped
// when missing; variables already set in the environment take precedence.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", file)
		}
	}
	envy.Reload()

	cfg := Default()
	var err error
	if cfg.Validate, err = parseBool(KeyValidate, cfg.Validate); err != nil {
		return Config{}, err
	}
	cfg.Device = envy.Get(KeyDevice, cfg.Device)
	if cfg.Images, err = parseInt(KeyImages, cfg.Images, 1); err != nil {
		return Config{}, err
	}
	if cfg.VSync, err = parseBool(KeyVSync, cfg.VSync); err != nil {
		return Config{}, err
	}
	if cfg.UPS, err = parseInt(KeyUPS, cfg.UPS, 1); err != nil {
		return Config{}, err
	}
	if cfg.ClearColor, err = parseColor(KeyClearColor, cfg.ClearColor); err != nil {
		return Config{}, err
	}
	cfg.WindowTitle = envy.Get(KeyWindowTitle, cfg.WindowTitle)
	if cfg.WindowWidth, err = parseInt(KeyWindowWidth, cfg.WindowWidth, 1); err != nil {
		return Config{}, err
	}
	if cfg.WindowHeight, err = parseInt(KeyWindowHeight, cfg.WindowHeight, 1); err != nil {
		return Config{}, err
	}
	if raw, ok := lookup(KeyLogLevel); ok {
		if cfg.LogLevel, err = logrus.ParseLevel(raw); err != nil {
			return Config{}, invalid(KeyLogLevel, raw, err)
		}
	}
	if raw, ok := lookup(KeyStatsInterval); ok {
		if cfg.StatsInterval, err = time.ParseDuration(raw); err != nil {
			return Config{}, invalid(KeyStatsInterval, raw, err)
		}
	}
	return cfg, nil
}

func lookup(key string) (string, bool) {
	raw := strings.TrimSpace(envy.Get(key, ""))
	return raw, raw != ""
}

func invalid(key, raw string, err error) error {
	return errors.Wrapf(err, "invalid %s=%q", key, raw)
}

func parseBool(key string, def bool) (bool, error) {
	raw, ok := lookup(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(key, raw, err)
	}
	return v, nil
}

func parseInt(key string, def, min int) (int, error) {
	raw, ok := lookup(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(key, raw, err)
	}
	if v < min {
		return 0, invalid(key, raw, errors.Newf("must be at least %d", min))
	}
	return v, nil
}

func parseColor(key string, def mgl32.Vec4) (mgl32.Vec4, error) {
	raw, ok := lookup(key)
	if !ok {
		return def, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return mgl32.Vec4{}, invalid(key, raw, errors.New("want four comma separated components"))
	}
	var color mgl32.Vec4
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return mgl32.Vec4{}, invalid(key, raw, err)
		}
		color[i] = float32(v)
	}
	return color, nil
}

// Graphics converts to renderer options.
func (c Config) Graphics(log logrus.FieldLogger) graphics.Options {
	return graphics.Options{
		ApplicationName: c.WindowTitle,
		Validate:        c.Validate,
		PreferredDevice: c.Device,
		ImageCount:      c.Images,
		VSync:           c.VSync,
		ClearColor:      c.ClearColor,
		Logger:          log,
	}
}

func (c Config) Engine(log logrus.FieldLogger) engine.Options {
	return engine.Options{
		UPS:           c.UPS,
		StatsInterval: c.StatsInterval,
		Logger:        log,
	}
}
