package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// PostgresConnectionString builds the key=value DSN handed to pgxpool. The
// password is the one field users put arbitrary characters in, so it is
// single-quoted with backslash escaping per the libpq quoting rules.
func (c *Config) PostgresConnectionString() string {
	pw := strings.ReplaceAll(c.PostgresPassword, `\`, `\\`)
	pw = strings.ReplaceAll(pw, `'`, `\'`)
	return fmt.Sprintf("host=%s port=%d user=%s password='%s' dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, pw, c.PostgresDBName, c.PostgresSSLMode)
}

// PostgresURL builds the postgres:// URL form that golang-migrate expects.
// url.URL takes care of percent-encoding credentials.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDBName,
		RawQuery: "sslmode=" + c.PostgresSSLMode,
	}
	return u.String()
}

// parseDatabaseURL applies DATABASE_URL over the individual postgres_*
// settings. Hosting platforms hand out a single connection URL, so it wins
// over the granular fields. Components absent from the URL keep their
// configured values.
func (c *Config) parseDatabaseURL() error {
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres or postgresql, got %q", u.Scheme)
	}

	if h := u.Hostname(); h != "" {
		c.PostgresHost = h
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("DATABASE_URL port %q: %w", p, err)
		}
		c.PostgresPort = n
	}
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			c.PostgresUser = name
		}
		if pw, ok := u.User.Password(); ok {
			c.PostgresPassword = pw
		}
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		c.PostgresDBName = db
	}
	if ssl := u.Query().Get("sslmode"); ssl != "" {
		c.PostgresSSLMode = ssl
	}
	return nil
}
