package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/tba-chat-agent/internal/agent"
	"github.com/quantumauth-io/tba-chat-agent/internal/chains"
	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
)

type AgentSettings struct {
	Name            string `mapstructure:"name"`
	Hostname        string `mapstructure:"hostname"`
	Title           string `mapstructure:"title"`
	FaviconURL      string `mapstructure:"faviconUrl"`
	ChatURL         string `mapstructure:"chatUrl"`
	SponsorFees     bool   `mapstructure:"sponsorFees"`
	IncludeMetadata bool   `mapstructure:"includeMetadata"`
}

type PaymasterSettings struct {
	URL string `mapstructure:"url"`
}

type RelaySettings struct {
	URLs                 map[string]string `mapstructure:"urls"`
	SendRatePerSecond    float64           `mapstructure:"sendRatePerSecond"`
	InboxCacheTTLSeconds int               `mapstructure:"inboxCacheTTLSeconds"`

	// URL is selected by ApplyEnvironment.
	URL string `mapstructure:"-"`
}

func (r RelaySettings) InboxCacheTTL() time.Duration {
	return time.Duration(r.InboxCacheTTLSeconds) * time.Second
}

type ChainSettings struct {
	PreferredRPCName    string `mapstructure:"preferredRpcName"`
	HeaderRefreshMillis int    `mapstructure:"headerRefreshMillis"`
}

type StatusSettings struct {
	Enabled        bool     `mapstructure:"enabled"`
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type StateSettings struct {
	Dir string `mapstructure:"dir"`
}

type Config struct {
	Agent     AgentSettings                 `mapstructure:"Agent"`
	Paymaster PaymasterSettings             `mapstructure:"Paymaster"`
	Relay     RelaySettings                 `mapstructure:"Relay"`
	Networks  map[string]chains.NetworkRPCs `mapstructure:"Networks"`
	Chains    ChainSettings                 `mapstructure:"Chains"`
	Reconnect agent.ReconnectPolicy         `mapstructure:"Reconnect"`
	Status    StatusSettings                `mapstructure:"Status"`
	State     StateSettings                 `mapstructure:"State"`
}

// Env holds the secrets and selectors that must come from the environment.
type Env struct {
	WalletKey     string `envconfig:"WALLET_KEY" required:"true"`
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" required:"true"`
	MessagingEnv  string `envconfig:"XMTP_ENV" required:"true"`
	NetworkID     string `envconfig:"NETWORK_ID" required:"true"`
}

func searchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(home, "config"),
		".",
	}
}

// Load reads the embedded defaults and merges the first config.yaml found on the search paths.
func Load() (*Config, error) {
	return LoadFrom(searchPaths()...)
}

func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, errors.Wrap(err, "read embedded config")
	}

	for _, dir := range paths {
		p := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(p); err != nil {
			continue
		}
		v.SetConfigFile(p)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "merge config %s", p)
		}
		break
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

// LoadDotEnv copies KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return errors.Wrapf(err, "set %s", name)
		}
	}
	return nil
}

func LoadEnv() (*Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return nil, errors.Wrap(err, "missing required environment")
	}
	e.MessagingEnv = strings.ToLower(strings.TrimSpace(e.MessagingEnv))
	e.NetworkID = strings.ToLower(strings.TrimSpace(e.NetworkID))
	return &e, nil
}

// ApplyEnvironment selects the relay endpoint for the messaging environment.
func (c *Config) ApplyEnvironment(env string) error {
	raw := strings.TrimSpace(env)

	var key string
	switch strings.ToLower(raw) {
	case "local":
		key = "local"
	case "dev", "develop", "development":
		key = "dev"
	case "prod", "production":
		key = "production"
	default:
		return errors.Newf("invalid XMTP_ENV %q (allowed: local, dev, production)", raw)
	}

	url := strings.TrimSpace(c.Relay.URLs[key])
	if url == "" {
		return errors.Newf("no relay url configured for %q", key)
	}
	c.Relay.URL = url
	return nil
}

// ChainConfig adapts the RPC settings for the chain service.
func (c *Config) ChainConfig() chains.ChainConfig {
	return chains.ChainConfig{
		Networks:         c.Networks,
		PreferredRPCName: c.Chains.PreferredRPCName,
		DurationBetweenGetLatestHeaderRequestsMilliseconds: c.Chains.HeaderRefreshMillis,
	}
}
