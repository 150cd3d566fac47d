package fritz

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default connection values.
const (
	DefaultBaseURL = "http://fritz.box"
	DefaultTimeout = 10 * time.Second
)

// Config holds the FRITZ!Box connection settings.
type Config struct {
	// BaseURL is the box address, e.g. "http://fritz.box" or "http://192.168.178.1".
	BaseURL string

	// Username may be empty for boxes configured for password-only login.
	Username string

	// Password is the FRITZ!Box user password.
	Password string

	// Timeout bounds every HTTP request. Default: 10 seconds.
	Timeout time.Duration
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("base URL %q must be an absolute http(s) URL", c.BaseURL))
	}

	if c.Password == "" {
		errs = append(errs, "password is required")
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	if len(errs) > 0 {
		return errors.New("fritz config: " + strings.Join(errs, "; "))
	}
	return nil
}
