package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	defaultConfigFile = "values_local.yaml"
	defaultConfigDir  = "configs"
)

// Filling policies as the terminal expects them in type_filling.
const (
	FillingFOK    = "FOK"
	FillingIOC    = "IOC"
	FillingReturn = "RETURN"
)

// Config ...
type Config struct {
	Service struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	Webhook struct {
		Path      string  `yaml:"path"`
		RateLimit float64 `yaml:"rate_limit"` // запросов в секунду, 0 — без лимита
		RateBurst int     `yaml:"rate_burst"`
	} `yaml:"webhook"`

	Terminal struct {
		BridgeURL string `yaml:"bridge_url"`
		Path      string `yaml:"path"` // путь к terminal64.exe, пустой — терминал по умолчанию

		// Логин опционален: 0 — используем аккаунт, под которым уже запущен терминал.
		Login    int64  `yaml:"login"`
		Password string `yaml:"password"`
		Server   string `yaml:"server"`

		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		CallTimeout    time.Duration `yaml:"call_timeout"`
		LockTimeout    time.Duration `yaml:"lock_timeout"`
	} `yaml:"terminal"`

	Order struct {
		Volume        float64 `yaml:"volume"`
		Deviation     int     `yaml:"deviation"`
		Magic         int64   `yaml:"magic"`
		SLFloorPoints float64 `yaml:"sl_floor_points"`
		TPFloorPoints float64 `yaml:"tp_floor_points"`
		Filling       string  `yaml:"filling"`
		CommentPrefix string  `yaml:"comment_prefix"`
	} `yaml:"order"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Tracing struct {
		Enabled     bool   `yaml:"enabled"`
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns the configuration used when the file leaves a value out.
func Default() Config {
	var c Config
	c.Service.Host = "0.0.0.0"
	c.Service.Port = 8000

	c.Webhook.Path = "/webhook"
	c.Webhook.RateBurst = 1

	c.Terminal.BridgeURL = "ws://127.0.0.1:8765/mt5"
	c.Terminal.ConnectTimeout = 10 * time.Second
	c.Terminal.CallTimeout = 10 * time.Second
	c.Terminal.LockTimeout = 30 * time.Second

	c.Order.Volume = 0.01
	c.Order.Deviation = 20
	c.Order.Magic = 234000
	c.Order.SLFloorPoints = 400
	c.Order.TPFloorPoints = 1200
	c.Order.Filling = FillingIOC
	c.Order.CommentPrefix = "TradingView"

	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831
	c.Tracing.ServiceName = "mt5-bridge"

	c.Log.Level = "info"
	return c
}

// NewConfig читает configs/$CONFIG_FILE поверх дефолтов и накатывает переменные окружения.
func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	dir := os.Getenv(configDirENV)
	if dir == "" {
		dir = defaultConfigDir
	}
	return Load(filepath.Join(dir, configFileName))
}

// Load decodes the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	overrideWithEnv(&config, envReader())

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func envReader() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// Секреты терминала и телеграма лучше держать в окружении, а не в файле.
func overrideWithEnv(c *Config, env *viper.Viper) {
	if env.IsSet("MT5_BRIDGE_URL") {
		c.Terminal.BridgeURL = env.GetString("MT5_BRIDGE_URL")
	}
	if env.IsSet("MT5_LOGIN") {
		c.Terminal.Login = env.GetInt64("MT5_LOGIN")
	}
	if env.IsSet("MT5_PASSWORD") {
		c.Terminal.Password = env.GetString("MT5_PASSWORD")
	}
	if env.IsSet("MT5_SERVER") {
		c.Terminal.Server = env.GetString("MT5_SERVER")
	}
	if env.IsSet("TELEGRAM_TOKEN") {
		c.Telegram.Token = env.GetString("TELEGRAM_TOKEN")
	}
	if env.IsSet("TELEGRAM_CHAT_ID") {
		c.Telegram.ChatID = env.GetInt64("TELEGRAM_CHAT_ID")
	}
	if env.IsSet("LOG_LEVEL") {
		c.Log.Level = env.GetString("LOG_LEVEL")
	}
	if env.IsSet("HTTP_PORT") {
		c.Service.Port = env.GetInt("HTTP_PORT")
	}
}

// Validate checks values the order pipeline relies on.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("service.port out of range: %d", c.Service.Port)
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return fmt.Errorf("webhook.path must start with '/': %q", c.Webhook.Path)
	}
	if c.Webhook.RateLimit < 0 {
		return fmt.Errorf("webhook.rate_limit must not be negative")
	}
	if c.Webhook.RateLimit > 0 && c.Webhook.RateBurst < 1 {
		return fmt.Errorf("webhook.rate_burst must be at least 1 when rate_limit is set")
	}

	u := c.Terminal.BridgeURL
	if u == "" || (!strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://")) {
		return fmt.Errorf("invalid terminal.bridge_url: %q", u)
	}
	if c.Terminal.Login != 0 && c.Terminal.Password == "" {
		return fmt.Errorf("terminal.password is required when terminal.login is set")
	}
	if c.Terminal.ConnectTimeout <= 0 || c.Terminal.CallTimeout <= 0 || c.Terminal.LockTimeout <= 0 {
		return fmt.Errorf("terminal timeouts must be positive")
	}

	if c.Order.Volume <= 0 {
		return fmt.Errorf("order.volume must be positive")
	}
	if c.Order.Deviation <= 0 {
		return fmt.Errorf("order.deviation must be positive")
	}
	if c.Order.SLFloorPoints <= 0 || c.Order.TPFloorPoints <= 0 {
		return fmt.Errorf("order floors must be positive")
	}
	switch strings.ToUpper(c.Order.Filling) {
	case FillingFOK, FillingIOC, FillingReturn:
		c.Order.Filling = strings.ToUpper(c.Order.Filling)
	default:
		return fmt.Errorf("unknown order.filling %q", c.Order.Filling)
	}
	return nil
}

// Addr — адрес, который слушает HTTP сервер.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}
