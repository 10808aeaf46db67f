package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL      string
	REDIS_PASSWORD string
	REDIS_DB       string
	// Payment provider configuration
	PAYMENT_PROVIDER_URL     string
	PAYMENT_PROVIDER_KEY     string
	PAYMENT_WEBHOOK_SECRET   string
	DEFAULT_COMMISSION_RATE  float64
	SUBSCRIPTION_UPGRADE_URL string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	defaultRate, err := strconv.ParseFloat(os.Getenv("DEFAULT_COMMISSION_RATE"), 64)
	if err != nil {
		defaultRate = 15
	}

	upgradeURL := os.Getenv("SUBSCRIPTION_UPGRADE_URL")
	if upgradeURL == "" {
		upgradeURL = "/subscriptions/upgrade"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL:      os.Getenv("REDIS_URL"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       os.Getenv("REDIS_DB"),
		// Payment provider
		PAYMENT_PROVIDER_URL:     os.Getenv("PAYMENT_PROVIDER_URL"),
		PAYMENT_PROVIDER_KEY:     os.Getenv("PAYMENT_PROVIDER_KEY"),
		PAYMENT_WEBHOOK_SECRET:   os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		DEFAULT_COMMISSION_RATE:  defaultRate,
		SUBSCRIPTION_UPGRADE_URL: upgradeURL,
	}

	return envVariables, nil
}
