package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type GeocodingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	SenderName  string        `mapstructure:"sender_name"`
	SenderEmail string        `mapstructure:"sender_email"`
	AlertURL    string        `mapstructure:"alert_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type PaymentConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	SecretKey string `mapstructure:"secret_key"`
	Currency  string `mapstructure:"currency"`
}

type RealtimeConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

type Config struct {
	DatabaseURL   string          `mapstructure:"database_url"`
	ServerPort    string          `mapstructure:"server_port"`
	AllowedOrigin string          `mapstructure:"allowed_origin"`
	Geocoding     GeocodingConfig `mapstructure:"geocoding"`
	Email         EmailConfig     `mapstructure:"email"`
	Payment       PaymentConfig   `mapstructure:"payment"`
	Realtime      RealtimeConfig  `mapstructure:"realtime"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.AllowedOrigin == "" {
		config.AllowedOrigin = "http://localhost:3000"
	}
	if config.DatabaseURL == "" {
		log.Fatal("database_url must be set in the config file")
	}

	if config.Geocoding.BaseURL == "" {
		config.Geocoding.BaseURL = "https://api.opencagedata.com"
	}
	if config.Geocoding.Timeout == 0 {
		config.Geocoding.Timeout = 5 * time.Second
	}

	if config.Email.BaseURL == "" {
		config.Email.BaseURL = "https://api.brevo.com"
	}
	if config.Email.SenderName == "" {
		config.Email.SenderName = "Disaster Alert System"
	}
	if config.Email.Timeout == 0 {
		config.Email.Timeout = 10 * time.Second
	}

	if config.Payment.BaseURL == "" {
		config.Payment.BaseURL = "https://api.stripe.com"
	}
	if config.Payment.Currency == "" {
		config.Payment.Currency = "usd"
	}

	if config.Realtime.SubscriberBuffer == 0 {
		config.Realtime.SubscriberBuffer = 16
	}

	return &config
}
