package config

import "os"

type Config struct {
	DatabaseURL    string
	Port           string
	JWTSecret      string
	FrontendOrigin string
	RedisURL       string
	MasterKey      string

	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string

	WhatsAppProvider    string
	WhatsAppVerifyToken string
	MetaAccessToken     string
	MetaPhoneNumberID   string
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string

	DSRSecret string
}

func Load() Config {
	cfg := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           os.Getenv("PORT"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		FrontendOrigin: os.Getenv("FRONTEND_ORIGIN"),
		RedisURL:       os.Getenv("REDIS_URL"),
		MasterKey:      os.Getenv("MASTER_KEY"),

		LLMProvider: os.Getenv("LLM_PROVIDER"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMModel:    os.Getenv("LLM_MODEL"),
		LLMBaseURL:  os.Getenv("LLM_BASE_URL"),

		WhatsAppProvider:    os.Getenv("WHATSAPP_PROVIDER"),
		WhatsAppVerifyToken: os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		MetaAccessToken:     os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		MetaPhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:    os.Getenv("TWILIO_WHATSAPP_NUMBER"),

		DSRSecret: os.Getenv("DSR_GENERATION_SECRET"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.FrontendOrigin == "" {
		cfg.FrontendOrigin = "http://localhost:3000"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "openai"
	}
	if cfg.WhatsAppProvider == "" {
		cfg.WhatsAppProvider = "meta"
	}
	return cfg
}
