package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

const (
	CONFIG_FILE        = "CONFIG_FILE"
	APP_PORT           = "APP_PORT"
	APP_HOST           = "APP_HOST"
	LOG_LEVEL          = "LOG_LEVEL"
	LOG_FILE           = "LOG_FILE"
	STORE_BACKEND      = "STORE_BACKEND"
	XLSX_PATH          = "XLSX_PATH"
	SHEET_ID           = "SHEET_ID"
	SHEET_RANGE        = "SHEET_RANGE"
	GOOGLE_CREDENTIALS = "GOOGLE_CREDENTIALS"
	PROMO_VALIDITY     = "PROMO_VALIDITY"
	PROMO_TIMEZONE     = "PROMO_TIMEZONE"
	DB_HOST            = "DB_HOST"
	DB_NAME            = "DB_NAME"
	DB_USERNAME        = "DB_USERNAME"
	DB_PASS            = "DB_PASS"
	DB_PORT            = "DB_PORT"
	DB_MAX_OPEN_CONNS  = "DB_MAX_OPEN_CONNS"
	DB_MIN_CONNS       = "DB_MIN_CONNS"
	DB_TABLE           = "DB_TABLE"
	JAG_DSN            = "JAG_DSN"
	MAIL_HOST          = "MAIL_HOST"
	MAIL_PORT          = "MAIL_PORT"
	MAIL_USERNAME      = "MAIL_USERNAME"
	MAIL_PASSWORD      = "MAIL_PASSWORD"
	MAIL_NOTIFY_TO     = "MAIL_NOTIFY_TO"

	DefaultConfigFile = "./configs/.env"
)

// Row-store backends.
const (
	BackendSheets   = "sheets"
	BackendXlsx     = "xlsx"
	BackendPostgres = "postgres"
)

var ErrUnknownBackend = errors.New("unknown store backend")

type Entity struct {
	App   Application
	Store Store
	Sheet Sheet
	Promo Promo
	DB    Database
	Jag   Jaeger
	Mail  Mail

	// ConfigFile is the path of the .env file that was read, empty when
	// the configuration came from the environment only.
	ConfigFile string
}

// NewConfig reads an optional .env file and the process environment into Entity.
// Environment variables win over values from the file.
func NewConfig(v *viper.Viper) (*Entity, error) {
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()
	setDefaults(v)

	path := v.GetString(CONFIG_FILE)
	config := &Entity{}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("NewConfig failed: %w", err)
			}
			// File is absent, everything comes from the environment.
		} else {
			config.ConfigFile = path
		}
	}

	config.App = Application{
		Port:     v.GetString(APP_PORT),
		Host:     v.GetString(APP_HOST),
		LogLevel: v.GetString(LOG_LEVEL),
		LogFile:  v.GetString(LOG_FILE),
	}

	config.Store = Store{
		Backend:  strings.ToLower(strings.TrimSpace(v.GetString(STORE_BACKEND))),
		XlsxPath: v.GetString(XLSX_PATH),
	}

	config.Sheet = Sheet{
		ID:          v.GetString(SHEET_ID),
		Range:       v.GetString(SHEET_RANGE),
		Credentials: v.GetString(GOOGLE_CREDENTIALS),
	}

	config.Promo = Promo{
		Validity: v.GetString(PROMO_VALIDITY),
		Timezone: v.GetString(PROMO_TIMEZONE),
	}

	config.DB = Database{
		Hostname:     v.GetString(DB_HOST),
		Name:         v.GetString(DB_NAME),
		User:         v.GetString(DB_USERNAME),
		Pass:         v.GetString(DB_PASS),
		Port:         uint16(v.GetUint32(DB_PORT)),
		MaxOpenConns: v.GetInt32(DB_MAX_OPEN_CONNS),
		MinConns:     v.GetInt32(DB_MIN_CONNS),
		Table:        v.GetString(DB_TABLE),
	}

	config.Jag = Jaeger{Dsn: v.GetString(JAG_DSN)}

	config.Mail = Mail{
		Hostname: v.GetString(MAIL_HOST),
		Port:     v.GetString(MAIL_PORT),
		Username: v.GetString(MAIL_USERNAME),
		Password: v.GetString(MAIL_PASSWORD),
		NotifyTo: splitList(v.GetString(MAIL_NOTIFY_TO)),
	}

	switch config.Store.Backend {
	case BackendSheets, BackendXlsx, BackendPostgres:
	default:
		return nil, fmt.Errorf("NewConfig failed: %w: %q", ErrUnknownBackend, config.Store.Backend)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(CONFIG_FILE, DefaultConfigFile)
	v.SetDefault(APP_HOST, "0.0.0.0")
	v.SetDefault(APP_PORT, "8080")
	v.SetDefault(LOG_LEVEL, "info")
	v.SetDefault(LOG_FILE, "./logs/logs.txt")
	v.SetDefault(STORE_BACKEND, BackendSheets)
	v.SetDefault(XLSX_PATH, "./data/descuentos.xlsx")
	v.SetDefault(SHEET_RANGE, "descuentos!A:F")
	v.SetDefault(PROMO_VALIDITY, "Válido del 21 al 25 de octubre 2024")
	v.SetDefault(PROMO_TIMEZONE, "UTC")
	v.SetDefault(DB_PORT, 5432)
	v.SetDefault(DB_MAX_OPEN_CONNS, 20)
	v.SetDefault(DB_MIN_CONNS, 2)
	v.SetDefault(DB_TABLE, "promo_rows")
	v.SetDefault(MAIL_PORT, "587")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Application struct {
	Port     string
	Host     string
	LogLevel string
	LogFile  string
}

type Store struct {
	Backend  string
	XlsxPath string
}

// Sheet addresses the Google spreadsheet holding the registrations.
type Sheet struct {
	ID          string
	Range       string
	Credentials string
}

// SheetName returns the tab part of the A1 range ("descuentos!A:F" -> "descuentos").
func (s Sheet) SheetName() string {
	if i := strings.Index(s.Range, "!"); i > 0 {
		return strings.Trim(s.Range[:i], "'")
	}
	return s.Range
}

type Promo struct {
	Validity string
	Timezone string
}

type Database struct {
	Hostname     string
	Name         string
	User         string
	Pass         string
	Port         uint16
	MaxOpenConns int32
	MinConns     int32
	Table        string
}

type Jaeger struct {
	Dsn string
}

type Mail struct {
	Hostname string
	Port     string
	Username string
	Password string
	NotifyTo []string
}

// Enabled reports whether operator notifications can be sent.
func (m Mail) Enabled() bool {
	return m.Hostname != "" && len(m.NotifyTo) > 0
}
