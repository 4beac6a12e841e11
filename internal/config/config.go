package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend   string        `env:"STORE_BACKEND" envDefault:"memory"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"false"`

	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"devthon.db"`

	PostgRESTURL   string `env:"POSTGREST_URL"`
	PostgRESTKey   string `env:"POSTGREST_KEY"`
	PostgRESTTable string `env:"POSTGREST_TABLE" envDefault:"teams"`

	SpreadsheetID            string `env:"GOOGLE_SHEETS_SPREADSHEET_ID"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	RedisURL    string        `env:"REDIS_URL"`
	NameLockTTL time.Duration `env:"NAME_LOCK_TTL" envDefault:"30s"`

	PaymentProvider string `env:"PAYMENT_PROVIDER" envDefault:"upi"`
	UPIVPA          string `env:"UPI_VPA"`
	UPIPayeeName    string `env:"UPI_PAYEE_NAME" envDefault:"DevUp Society"`
	UPINote         string `env:"UPI_NOTE" envDefault:"Devthon Registration"`

	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	AdminTGIDsRaw string `env:"ADMIN_TG_IDS"`
	AdminTGIDs    map[int64]bool
}

func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.PaymentProvider = strings.ToLower(strings.TrimSpace(c.PaymentProvider))
	c.PostgRESTURL = strings.TrimRight(strings.TrimSpace(c.PostgRESTURL), "/")
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	c.UPIVPA = strings.TrimSpace(c.UPIVPA)

	switch c.StoreBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return c, fmt.Errorf("DATABASE_URL is empty")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return c, fmt.Errorf("SQLITE_PATH is empty")
		}
	case "postgrest":
		if c.PostgRESTURL == "" {
			return c, fmt.Errorf("POSTGREST_URL is empty")
		}
		if c.PostgRESTKey == "" {
			return c, fmt.Errorf("POSTGREST_KEY is empty")
		}
	case "sheets":
		if c.SpreadsheetID == "" {
			return c, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is empty")
		}
		if c.GoogleServiceAccountJSON == "" {
			return c, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is empty")
		}
	default:
		return c, fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}

	if c.PaymentProvider == "upi" && c.UPIVPA == "" {
		return c, fmt.Errorf("UPI_VPA is empty")
	}
	if c.StoreTimeout <= 0 {
		return c, fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	c.AdminTGIDs = parseAdminIDs(c.AdminTGIDsRaw)

	return c, nil
}

func parseAdminIDs(raw string) map[int64]bool {
	m := map[int64]bool{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
