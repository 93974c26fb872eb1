package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

// Durations are configured in seconds; yaml.v2 has no native duration parsing.
type Public struct {
	JwtTTLSeconds              int      `yaml:"jwt_ttl_seconds"`
	DeliveryFee                int64    `yaml:"delivery_fee"`                  // flat fee added to every order total
	VerificationCodeTTLSeconds int      `yaml:"verification_code_ttl_seconds"` // how long an emailed code stays valid
	VerificationCodeLen        int      `yaml:"verification_code_len"`         // digits in the emailed code
	Storage                    string   `yaml:"storage"`                       // "pg" or "memory" for local development
	LogLevel                   string   `yaml:"log_level"`
	LogJSON                    bool     `yaml:"log_json"`
	SecureCookies              bool     `yaml:"secure_cookies"`
	AllowedOrigins             []string `yaml:"allowed_origins"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	From       string `yaml:"from"`
	Timeout    int    `yaml:"timeout"` // seconds
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	Email  Email  `yaml:"email"`
	JwtKey string `yaml:"jwt_key"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return time.Duration(c.Public.JwtTTLSeconds) * time.Second
}

func (c *Config) VerificationCodeTTL() time.Duration {
	return time.Duration(c.Public.VerificationCodeTTLSeconds) * time.Second
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err = yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.mustValidate()
	return cfg
}

func (c *Config) mustValidate() {
	if c.Public.JwtTTLSeconds <= 0 {
		panic("jwt_ttl_seconds must be positive")
	}
	if c.Public.VerificationCodeTTLSeconds <= 0 {
		panic("verification_code_ttl_seconds must be positive")
	}
	if c.Public.VerificationCodeLen <= 0 {
		panic("verification_code_len must be positive")
	}
	if c.Public.DeliveryFee < 0 {
		panic("delivery_fee must not be negative")
	}
}
