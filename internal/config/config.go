// Package config loads the session configuration from a YAML file, the
// environment and command line flags, in increasing priority.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"LiveChartBoard/internal/geometry"
)

// EnvPrefix prefixes every environment override, e.g. LIVECHARTBOARD_SESSION_ID.
const EnvPrefix = "LIVECHARTBOARD"

// DotenvFile is loaded into the environment when present.
const DotenvFile = ".env.local"

type TransportKind string

const (
	TransportMemory    TransportKind = "memory"
	TransportWebsocket TransportKind = "websocket"
	TransportRedis     TransportKind = "redis"
)

type Session struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Host         bool   `json:"host" yaml:"host"`
	ReplayOnJoin bool   `json:"replayOnJoin" yaml:"replayOnJoin"`
}

type Transport struct {
	Kind TransportKind `json:"kind" yaml:"kind"`
	URL  string        `json:"url,omitempty" yaml:"url,omitempty"`
}

type Redis struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db"`
}

type Relay struct {
	Port int `json:"port" yaml:"port"`
}

type Render struct {
	FPS           int  `json:"fps" yaml:"fps"`
	SkipUnchanged bool `json:"skipUnchanged" yaml:"skipUnchanged"`
}

type Canvas struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

type Chart struct {
	MinPrice  float64 `json:"minPrice" yaml:"minPrice"`
	MaxPrice  float64 `json:"maxPrice" yaml:"maxPrice"`
	Period    string  `json:"period,omitempty" yaml:"period,omitempty"`
	ChartType string  `json:"chartType,omitempty" yaml:"chartType,omitempty"`
}

type MDNS struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

type Config struct {
	Session   Session   `json:"session" yaml:"session"`
	Transport Transport `json:"transport" yaml:"transport"`
	Redis     Redis     `json:"redis" yaml:"redis"`
	Relay     Relay     `json:"relay" yaml:"relay"`
	Render    Render    `json:"render" yaml:"render"`
	Canvas    Canvas    `json:"canvas" yaml:"canvas"`
	Chart     Chart     `json:"chart" yaml:"chart"`
	MDNS      MDNS      `json:"mdns" yaml:"mdns"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Transport: Transport{Kind: TransportWebsocket, URL: "ws://localhost:8080/ws"},
		Redis:     Redis{Host: "localhost", Port: "6379"},
		Relay:     Relay{Port: 8080},
		Render:    Render{FPS: 60},
		Canvas:    Canvas{Width: 1200, Height: 700},
		Chart:     Chart{MinPrice: 0, MaxPrice: 100, Period: "1d", ChartType: "candles"},
		MDNS:      MDNS{Enabled: true},
	}
}

// Load parses a YAML file on top of the defaults.
func Load(configFile string) (*Config, error) {
	config := Default()

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %s", configFile)
	}

	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, errors.Wrapf(err, "unable to parse config file %s", configFile)
	}
	return config, nil
}

// LoadDotenv loads DotenvFile into the process environment if it exists.
func LoadDotenv() error {
	if _, err := os.Stat(DotenvFile); err != nil {
		return nil
	}
	if err := godotenv.Load(DotenvFile); err != nil {
		return errors.Wrapf(err, "error loading dotenv file %s", DotenvFile)
	}
	log.Debugf("loaded %s", DotenvFile)
	return nil
}

// BindEnv makes every config key readable from LIVECHARTBOARD_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

var keys = []string{
	"session.id", "session.host", "session.replayOnJoin",
	"transport.kind", "transport.url",
	"redis.host", "redis.port", "redis.password", "redis.db",
	"relay.port",
	"render.fps", "render.skipUnchanged",
	"canvas.width", "canvas.height",
	"chart.minPrice", "chart.maxPrice", "chart.period", "chart.chartType",
	"mdns.enabled",
}

// Resolve builds the effective configuration: defaults, then the file named by
// the "config" key, then every key set through viper.
func Resolve(v *viper.Viper) (*Config, error) {
	config := Default()
	if file := v.GetString("config"); file != "" {
		loaded, err := Load(file)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	config.override(v)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) override(v *viper.Viper) {
	if v.IsSet("session.id") {
		c.Session.ID = v.GetString("session.id")
	}
	if v.IsSet("session.host") {
		c.Session.Host = v.GetBool("session.host")
	}
	if v.IsSet("session.replayOnJoin") {
		c.Session.ReplayOnJoin = v.GetBool("session.replayOnJoin")
	}
	if v.IsSet("transport.kind") {
		c.Transport.Kind = TransportKind(v.GetString("transport.kind"))
	}
	if v.IsSet("transport.url") {
		c.Transport.URL = v.GetString("transport.url")
	}
	if v.IsSet("redis.host") {
		c.Redis.Host = v.GetString("redis.host")
	}
	if v.IsSet("redis.port") {
		c.Redis.Port = v.GetString("redis.port")
	}
	if v.IsSet("redis.password") {
		c.Redis.Password = v.GetString("redis.password")
	}
	if v.IsSet("redis.db") {
		c.Redis.DB = v.GetInt("redis.db")
	}
	if v.IsSet("relay.port") {
		c.Relay.Port = v.GetInt("relay.port")
	}
	if v.IsSet("render.fps") {
		c.Render.FPS = v.GetInt("render.fps")
	}
	if v.IsSet("render.skipUnchanged") {
		c.Render.SkipUnchanged = v.GetBool("render.skipUnchanged")
	}
	if v.IsSet("canvas.width") {
		c.Canvas.Width = v.GetFloat64("canvas.width")
	}
	if v.IsSet("canvas.height") {
		c.Canvas.Height = v.GetFloat64("canvas.height")
	}
	if v.IsSet("chart.minPrice") {
		c.Chart.MinPrice = v.GetFloat64("chart.minPrice")
	}
	if v.IsSet("chart.maxPrice") {
		c.Chart.MaxPrice = v.GetFloat64("chart.maxPrice")
	}
	if v.IsSet("chart.period") {
		c.Chart.Period = v.GetString("chart.period")
	}
	if v.IsSet("chart.chartType") {
		c.Chart.ChartType = v.GetString("chart.chartType")
	}
	if v.IsSet("mdns.enabled") {
		c.MDNS.Enabled = v.GetBool("mdns.enabled")
	}
}

// Validate rejects configurations a session cannot start with.
func (c *Config) Validate() error {
	switch c.Transport.Kind {
	case TransportMemory, TransportRedis:
	case TransportWebsocket:
		if c.Transport.URL == "" {
			return errors.New("transport.url is required for the websocket transport")
		}
	default:
		return errors.Errorf("unknown transport kind %q", c.Transport.Kind)
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.Errorf("invalid canvas size %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Chart.MinPrice >= c.Chart.MaxPrice {
		return errors.Errorf("invalid price range [%g, %g]", c.Chart.MinPrice, c.Chart.MaxPrice)
	}
	if c.Render.FPS <= 0 {
		return errors.Errorf("invalid render fps %d", c.Render.FPS)
	}
	if c.Relay.Port <= 0 || c.Relay.Port > 65535 {
		return errors.Errorf("invalid relay port %d", c.Relay.Port)
	}
	return nil
}

// Viewport is the initial chart viewport.
func (c *Config) Viewport() geometry.Viewport {
	return geometry.NewViewport(c.Canvas.Width, c.Canvas.Height, c.Chart.MinPrice, c.Chart.MaxPrice)
}
