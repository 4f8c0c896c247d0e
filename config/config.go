package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	AdminUser     string
	AdminPassword string
	Location      *time.Location
	Debug         bool
}

// Load reads an optional .env file into the environment, then parses the
// command line.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.dotenv: %w", err)
	}
	return Parse(os.Args[1:])
}

// Parse parses args. Every flag defaults to its FORMS_* environment variable
// when set.
func Parse(args []string) (cfg Config, err error) {
	fset := flag.NewFlagSet("forms", flag.ContinueOnError)

	var host string
	fset.StringVar(&host, "host", env("FORMS_HOST", "0.0.0.0"), "listen host name")
	var port uint
	fset.UintVar(&port, "port", envUint("FORMS_PORT", 80), "listen port number")
	fset.StringVar(&cfg.DBUrl, "db-url", env("FORMS_DB_URL", "forms.sqlite"), "path to SQLite3 DB file")
	fset.StringVar(&cfg.TokenSecret, "token-secret", env("FORMS_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	fset.UintVar(&ttl, "token-ttl", envUint("FORMS_TOKEN_TTL", 120), "token TTL in seconds")
	fset.StringVar(&cfg.AdminUser, "admin-user", env("FORMS_ADMIN_USER", ""), "admin account created or updated at start-up")
	fset.StringVar(&cfg.AdminPassword, "admin-password", env("FORMS_ADMIN_PASSWORD", ""), "password for -admin-user")
	var zone string
	fset.StringVar(&zone, "time-zone", env("FORMS_TIME_ZONE", "UTC"), "time zone used for submission times in exports")
	fset.BoolVar(&cfg.Debug, "debug", env("FORMS_DEBUG", "") == "true", "log at DEBUG level")

	if err = fset.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	var errs *multierror.Error
	if cfg.TokenSecret == "" {
		errs = multierror.Append(errs, errors.New("missing parameter -token-secret"))
	}
	if (cfg.AdminUser == "") != (cfg.AdminPassword == "") {
		errs = multierror.Append(errs, errors.New("-admin-user and -admin-password must be given together"))
	}
	cfg.Location, err = time.LoadLocation(zone)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("invalid -time-zone %q: %w", zone, err))
	}
	err = errs.ErrorOrNil()

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fallback
	}
	return uint(n)
}
