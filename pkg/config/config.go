package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"groupcam/internal/core/domain"
)

// ServerConfig holds the connection parameters for one conferencing
// session. A gateway built from it never sees later edits.
type ServerConfig struct {
	Host            string `yaml:"host"`
	TCPPort         int    `yaml:"tcp_port"`
	UDPPort         int    `yaml:"udp_port"`
	Nickname        string `yaml:"nickname"`
	ServerPassword  string `yaml:"server_password"`
	Username        string `yaml:"user_name"`
	UserPassword    string `yaml:"user_password"`
	ChannelPath     string `yaml:"channel_path"`
	ChannelPassword string `yaml:"channel_password"`
}

type Config struct {
	HTTP struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"http"`

	Video struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
		FPS    int `yaml:"fps"`
	} `yaml:"video"`

	Camera struct {
		TitleHeightPct  float64       `yaml:"title_height_pct"`
		TitlePaddingPct float64       `yaml:"title_padding_pct"`
		UserPaddingPct  float64       `yaml:"user_padding_pct"`
		UserTimeout     time.Duration `yaml:"user_timeout"`
		NoUsersMessage  string        `yaml:"no_users_message"`
	} `yaml:"camera"`

	Devices struct {
		Template string `yaml:"template"` // for example /dev/video%d
		Ranges   string `yaml:"ranges"`   // for example "0-9,15,20-25"
		// NullSink discards frames instead of writing device nodes.
		NullSink bool `yaml:"null_sink"`
	} `yaml:"devices"`

	Servers struct {
		Mock              bool          `yaml:"mock"`
		ReconnectInterval time.Duration `yaml:"reconnect_interval"`
		Source            ServerConfig  `yaml:"source"`
		Destination       ServerConfig  `yaml:"destination"`
	} `yaml:"servers"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Auth struct {
		Username  string        `yaml:"username"`
		Password  string        `yaml:"password"`
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limiting"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return fmt.Errorf("http.address must not be empty")
	}
	if c.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("http.read_timeout must be > 0")
	}
	if c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http.write_timeout must be > 0")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("http.shutdown_timeout must be > 0")
	}

	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("video.width and video.height must be > 0")
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video.fps must be > 0")
	}

	if c.Camera.TitleHeightPct <= 0 || c.Camera.TitleHeightPct >= 100 {
		return fmt.Errorf("camera.title_height_pct must be in (0, 100)")
	}
	if c.Camera.TitlePaddingPct < 0 || c.Camera.TitlePaddingPct >= 50 {
		return fmt.Errorf("camera.title_padding_pct must be in [0, 50)")
	}
	if c.Camera.UserPaddingPct < 0 || c.Camera.UserPaddingPct >= 50 {
		return fmt.Errorf("camera.user_padding_pct must be in [0, 50)")
	}
	if c.Camera.UserTimeout <= 0 {
		return fmt.Errorf("camera.user_timeout must be > 0")
	}

	if c.Devices.Template == "" {
		return fmt.Errorf("devices.template must not be empty")
	}
	if c.Devices.Ranges == "" {
		return fmt.Errorf("devices.ranges must not be empty")
	}

	if c.Servers.ReconnectInterval <= 0 {
		return fmt.Errorf("servers.reconnect_interval must be > 0")
	}
	if !c.Servers.Mock {
		if c.Servers.Source.Host == "" {
			return fmt.Errorf("servers.source.host must not be empty when servers.mock=false")
		}
		if c.Servers.Destination.Host == "" {
			return fmt.Errorf("servers.destination.host must not be empty when servers.mock=false")
		}
	}
	if c.Servers.Source.ChannelPath == "" {
		return fmt.Errorf("servers.source.channel_path must not be empty")
	}
	if c.Servers.Destination.ChannelPath == "" {
		return fmt.Errorf("servers.destination.channel_path must not be empty")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0")
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.HTTP.Address = ":8000"
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Video.Width = 640
	cfg.Video.Height = 480
	cfg.Video.FPS = 10

	cfg.Camera.TitleHeightPct = 10
	cfg.Camera.TitlePaddingPct = 20
	cfg.Camera.UserPaddingPct = 1
	cfg.Camera.UserTimeout = 5 * time.Second
	cfg.Camera.NoUsersMessage = "No users with video"

	cfg.Devices.Template = "/dev/video%d"
	cfg.Devices.Ranges = "0-9"

	cfg.Servers.Mock = false
	cfg.Servers.ReconnectInterval = 5 * time.Second
	cfg.Servers.Source.TCPPort = 10333
	cfg.Servers.Source.UDPPort = 10333
	cfg.Servers.Source.Nickname = "groupcam"
	cfg.Servers.Source.ChannelPath = "/unity/scandinavian"
	cfg.Servers.Destination.TCPPort = 10333
	cfg.Servers.Destination.UDPPort = 10333
	cfg.Servers.Destination.Nickname = "groupcam"
	cfg.Servers.Destination.ChannelPath = "/broadcast"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Auth.Username = "admin"
	cfg.Auth.Password = "change-me-in-production"
	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.TokenTTL = 24 * time.Hour

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "groupcam"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("GROUPCAM_HTTP_ADDRESS"); addr != "" {
		c.HTTP.Address = addr
	}
	if addr := os.Getenv("GROUPCAM_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if level := os.Getenv("GROUPCAM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("GROUPCAM_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}

// Geometry derives the camera drawing constants from the video settings.
func (c *Config) Geometry() domain.Geometry {
	return domain.NewGeometry(
		c.Video.Width,
		c.Video.Height,
		c.Camera.TitleHeightPct,
		c.Camera.TitlePaddingPct,
		c.Camera.UserPaddingPct,
	)
}

// Server converts a yaml server block into the immutable domain form.
func (s ServerConfig) Server() domain.ServerConfig {
	return domain.ServerConfig{
		Host:            s.Host,
		TCPPort:         s.TCPPort,
		UDPPort:         s.UDPPort,
		Nickname:        s.Nickname,
		ServerPassword:  s.ServerPassword,
		Username:        s.Username,
		UserPassword:    s.UserPassword,
		ChannelPath:     s.ChannelPath,
		ChannelPassword: s.ChannelPassword,
	}
}
