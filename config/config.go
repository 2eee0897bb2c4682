package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	DataDir       string
	TokenSecret   string
	TokenTTL      time.Duration
	QueryTimeout  time.Duration
	CountryDriver string
	CountryDSN    string
	Debug         bool
}

// ParseFlags reads command line flags, with secrets and connection
// settings defaulted from the environment (a .env file is honored
// when present).
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 8080, "listen port number (default 8080)")
	flag.StringVar(&cfg.DBUrl, "db-url", "formlink.sqlite", "path to SQLite3 DB file (default formlink.sqlite)")
	flag.StringVar(&cfg.DataDir, "data-dir", "data", "directory for JSON document stores (default data)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("FORMLINK_TOKEN_SECRET"),
		"secret key for token encryption and decryption (env FORMLINK_TOKEN_SECRET)")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 9*60*60, "token TTL in seconds (default 9 hours)")
	var queryTimeout uint
	flag.UintVar(&queryTimeout, "query-timeout", 30, "per-query timeout in seconds (default 30)")
	flag.StringVar(&cfg.CountryDriver, "country-driver", envOr("FORMLINK_COUNTRY_DRIVER", "sqlite3"),
		"database/sql driver for per-country databases (env FORMLINK_COUNTRY_DRIVER)")
	flag.StringVar(&cfg.CountryDSN, "country-dsn", os.Getenv("FORMLINK_COUNTRY_DSN"),
		"DSN template for per-country databases, %s is replaced by the database name (env FORMLINK_COUNTRY_DSN)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.QueryTimeout = time.Duration(queryTimeout) * time.Second

	if cfg.CountryDSN == "" {
		cfg.CountryDSN = filepath.Join(cfg.DataDir, "%s.sqlite")
	}

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret (or env FORMLINK_TOKEN_SECRET)")
	}

	return
}

func (cfg Config) LinksPath() string {
	return filepath.Join(cfg.DataDir, "shortLinks.json")
}

func (cfg Config) QuestionsPath() string {
	return filepath.Join(cfg.DataDir, "questions.json")
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
