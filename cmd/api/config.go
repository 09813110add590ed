package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HttpPort     int    `mapstructure:"http_port"`
	DbConnString string `mapstructure:"db_conn_string"`
	RedisAddr    string `mapstructure:"redis_addr"`
	LogLevel     string `mapstructure:"log_level"`

	AppSecret   string `mapstructure:"app_secret"`
	VerifyToken string `mapstructure:"verify_token"`

	InstagramToken        string `mapstructure:"instagram_token"`
	MessengerToken        string `mapstructure:"messenger_token"`
	WhatsAppToken         string `mapstructure:"whatsapp_token"`
	WhatsAppPhoneNumberID string `mapstructure:"whatsapp_phone_number_id"`
	OperatorNumber        string `mapstructure:"operator_whatsapp_number"`

	GraphBaseURL  string        `mapstructure:"graph_base_url"`
	GraphVersion  string        `mapstructure:"graph_version"`
	SendTimeout   time.Duration `mapstructure:"send_timeout"`
	SendMaxRetry  int           `mapstructure:"send_max_retry"`
	DedupTTL      time.Duration `mapstructure:"dedup_ttl"`
	KnowledgeFile string        `mapstructure:"knowledge_file"`
}

var configDefaults = map[string]any{
	"http_port":                8080,
	"db_conn_string":           "",
	"redis_addr":               "",
	"log_level":                "info",
	"app_secret":               "",
	"verify_token":             "",
	"instagram_token":          "",
	"messenger_token":          "",
	"whatsapp_token":           "",
	"whatsapp_phone_number_id": "",
	"operator_whatsapp_number": "",
	"graph_base_url":           "https://graph.facebook.com",
	"graph_version":            "v21.0",
	"send_timeout":             "10s",
	"send_max_retry":           3,
	"dedup_ttl":                "24h",
	"knowledge_file":           "knowledge.yaml",
}

// ReadConfig loads configuration from the given json file, a local .env file
// and APP_* environment variables, later sources winning.
// A missing config file is not an error.
func ReadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			v.SetConfigFile(configFile)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.HttpPort <= 0 || c.HttpPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.HttpPort)
	}
	if c.SendMaxRetry < 1 {
		return fmt.Errorf("send_max_retry must be at least 1, got %d", c.SendMaxRetry)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send_timeout must be positive, got %s", c.SendTimeout)
	}
	return nil
}
