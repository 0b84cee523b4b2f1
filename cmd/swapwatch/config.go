package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/eigenwallet/swapwatch/internal/socketrpc"
)

const (
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = 7401
	defaultDaemonURL      = "http://127.0.0.1:1234"
	defaultFeedRetries    = 25
	defaultReconnectDelay = time.Second
	defaultLogCapacity    = 1000
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	DaemonURL        string        `mapstructure:"daemon-url"`
	DaemonSocketPath string        `mapstructure:"daemon-socket-path"`
	FeedMaxRetries   int           `mapstructure:"feed-max-retries"`
	FeedRetryDelay   time.Duration `mapstructure:"feed-retry-delay"`
	LogCapacity      int           `mapstructure:"log-capacity"`
	APIEnabled       bool          `mapstructure:"api-enabled"`
	APIPort          int           `mapstructure:"api-port"`
	APIAddr          string        `mapstructure:"api-addr"`
	SocketPath       string        `mapstructure:"socket-path"`
	Verbose          bool          `mapstructure:"verbose"`
	ConfigPath       string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDaemonSocket := filepath.Join(home, ".local", "share", "eigenwallet", "daemon.sock")

	v := viper.New()
	v.SetEnvPrefix("SWAPWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("daemon-url", defaultDaemonURL)
	v.SetDefault("daemon-socket-path", defaultDaemonSocket)
	v.SetDefault("feed-max-retries", defaultFeedRetries)
	v.SetDefault("feed-retry-delay", defaultReconnectDelay)
	v.SetDefault("log-capacity", defaultLogCapacity)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("verbose", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "swapwatch", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.LogCapacity <= 0 {
		return cfg, fmt.Errorf("invalid log-capacity: %d", cfg.LogCapacity)
	}

	// Expand ~ in the daemon socket path
	if strings.HasPrefix(cfg.DaemonSocketPath, "~/") {
		cfg.DaemonSocketPath = filepath.Join(home, cfg.DaemonSocketPath[2:])
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
