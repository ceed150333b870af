package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Gemini struct {
	APIKey     string `env:"GEMINI_API_KEY,required"`
	ChatModel  string `yaml:"chat_model" env:"GEMINI_CHAT_MODEL" env-default:"gemini-2.5-flash"`
	ProModel   string `yaml:"pro_model" env:"GEMINI_PRO_MODEL" env-default:"gemini-3-pro-preview"`
	ImageModel string `yaml:"image_model" env:"GEMINI_IMAGE_MODEL" env-default:"gemini-2.5-flash-image"`
}

type Redis struct {
	// Endpoint is optional; the in-memory storage is used when it is empty.
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT"`
}

type HTTP struct {
	Addr          string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	AllowedOrigin string        `yaml:"allowed_origin" env:"ALLOWED_ORIGIN" env-default:"http://localhost:3000"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"720h"`
}

type Account struct {
	SignupCredits   int `yaml:"signup_credits" env:"SIGNUP_CREDITS" env-default:"25"`
	CreditsPerImage int `yaml:"credits_per_image" env:"CREDITS_PER_IMAGE" env-default:"5"`
}

type Config struct {
	Gemini  Gemini  `yaml:"gemini"`
	Redis   Redis   `yaml:"redis"`
	HTTP    HTTP    `yaml:"http"`
	Account Account `yaml:"account"`
}

func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
