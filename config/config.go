package config

import (
	"errors"
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DBUrl         string
	UploadDir     string
	TokenSecret   string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	ResetSecret   string
	Debug         bool
}

func ParseFlags(args []string) (cfg Config, err error) {
	flags := flag.NewFlagSet("formsmith", flag.ContinueOnError)

	var host string
	flags.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flags.UintVar(&port, "port", 80, "listen port number (default 80)")
	flags.StringVar(&cfg.DBUrl, "db-url", "formsmith.sqlite", "path to SQLite3 DB file (default formsmith.sqlite)")
	flags.StringVar(&cfg.UploadDir, "upload-dir", "uploads", "directory for uploaded files (default uploads)")
	flags.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	flags.UintVar(&ttl, "token-ttl", 3600, "token TTL in seconds (default 3600)")
	flags.StringVar(&cfg.AdminEmail, "admin-email", "admin@example.com", "email of the seeded admin user")
	flags.StringVar(&cfg.AdminPassword, "admin-password", "admin123", "initial password of the seeded admin user")
	flags.StringVar(&cfg.ResetSecret, "reset-secret", "", "recovery code required by password reset")
	flags.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	err = flags.Parse(args)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
		return
	}
	if cfg.ResetSecret == "" {
		err = errors.New("missing parameter -reset-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
