package fritz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/nerrad567/switchsched/internal/device"
)

// AHA-HTTP endpoints and commands.
const (
	loginPath   = "/login_sid.lua"
	commandPath = "/webservices/homeautoswitch.lua"

	cmdSwitchOn       = "setswitchon"
	cmdSwitchOff      = "setswitchoff"
	cmdSwitchToggle   = "setswitchtoggle"
	cmdSwitchState    = "getswitchstate"
	cmdSwitchName     = "getswitchname"
	cmdSwitchList     = "getswitchlist"
	cmdDeviceListInfo = "getdevicelistinfos"

	// maxBodySize bounds responses read from the box.
	maxBodySize = 1 << 20
)

// Logger defines the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client talks to one FRITZ!Box. It implements device.Controller,
// device.Lister and device.Toggler.
//
// Thread Safety: All methods are safe for concurrent use; requests that need
// a session share one SID.
type Client struct {
	cfg    Config
	http   *http.Client
	logger Logger

	mu  sync.Mutex
	sid string
}

// Compile-time interface checks.
var (
	_ device.Controller = (*Client)(nil)
	_ device.Lister     = (*Client)(nil)
	_ device.Toggler    = (*Client)(nil)
)

// New creates a client. No request is made until the first call.
//
// Parameters:
//   - cfg: connection settings; defaults are applied to zero fields
//
// Returns:
//   - *Client: ready to use
//   - error: if the configuration is invalid
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Authenticate logs in and stores the session ID.
// A rejected login returns an error wrapping device.ErrAuth.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.loginLocked(ctx)
	return err
}

// State returns the switch state of the plug with the given AIN.
func (c *Client) State(ctx context.Context, ain string) (device.State, error) {
	body, err := c.command(ctx, cmdSwitchState, ain)
	if err != nil {
		return device.StateUnknown, err
	}
	return parseSwitchState(ain, body)
}

// SetState switches the plug and checks the state the box reports back.
func (c *Client) SetState(ctx context.Context, ain string, desired device.State) error {
	var cmd string
	switch desired {
	case device.StateOn:
		cmd = cmdSwitchOn
	case device.StateOff:
		cmd = cmdSwitchOff
	default:
		return fmt.Errorf("setting %q to %s: %w", ain, desired, device.ErrStateUnknown)
	}

	body, err := c.command(ctx, cmd, ain)
	if err != nil {
		return err
	}

	got, err := parseSwitchState(ain, body)
	if err != nil {
		return err
	}
	if got != desired {
		return fmt.Errorf("%w: %s reported %s after %s", ErrUnexpectedResponse, ain, got, cmd)
	}

	c.logger.Info("switched device", "ain", ain, "state", desired.String())
	return nil
}

// Toggle flips the plug's state.
func (c *Client) Toggle(ctx context.Context, ain string) error {
	body, err := c.command(ctx, cmdSwitchToggle, ain)
	if err != nil {
		return err
	}
	got, err := parseSwitchState(ain, body)
	if err != nil {
		return err
	}
	c.logger.Info("toggled device", "ain", ain, "state", got.String())
	return nil
}

// Name returns the display name configured for the plug.
func (c *Client) Name(ctx context.Context, ain string) (string, error) {
	return c.command(ctx, cmdSwitchName, ain)
}

// SwitchAINs returns the AINs of every switchable device.
func (c *Client) SwitchAINs(ctx context.Context) ([]string, error) {
	body, err := c.command(ctx, cmdSwitchList, "")
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, nil
	}
	return strings.Split(body, ","), nil
}

// List returns every smart home device known to the box. Firmware without
// getdevicelistinfos gets a switch-only listing built from per-plug queries.
func (c *Client) List(ctx context.Context) ([]device.Info, error) {
	body, err := c.command(ctx, cmdDeviceListInfo, "")
	if err == nil {
		var infos []device.Info
		if infos, err = parseDeviceList([]byte(body)); err == nil {
			return infos, nil
		}
	}
	if !errors.Is(err, ErrUnexpectedResponse) {
		return nil, err
	}
	c.logger.Info("device list unavailable, querying switches one by one", "error", err)
	return c.listSwitches(ctx)
}

func (c *Client) listSwitches(ctx context.Context) ([]device.Info, error) {
	ains, err := c.SwitchAINs(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]device.Info, 0, len(ains))
	for _, ain := range ains {
		name, err := c.Name(ctx, ain)
		if err != nil {
			return nil, err
		}
		state, err := c.State(ctx, ain)
		if err != nil && !errors.Is(err, device.ErrStateUnknown) {
			return nil, err
		}
		infos = append(infos, device.Info{
			ID:      ain,
			Name:    name,
			Present: state != device.StateUnknown,
			State:   state,
		})
	}
	return infos, nil
}

// command sends one homeautoswitch command, logging in first if needed and
// once more if the box answers 403.
func (c *Client) command(ctx context.Context, cmd, ain string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 0; ; attempt++ {
		sid := c.sid
		if sid == "" {
			var err error
			if sid, err = c.loginLocked(ctx); err != nil {
				return "", err
			}
		}

		q := url.Values{}
		q.Set("switchcmd", cmd)
		q.Set("sid", sid)
		if ain != "" {
			q.Set("ain", ain)
		}

		status, body, err := c.get(ctx, commandPath, q)
		if err != nil {
			return "", fmt.Errorf("%s: %w", cmd, err)
		}

		switch {
		case status == http.StatusOK:
			c.logger.Debug("fritz command", "cmd", cmd, "ain", ain)
			return strings.TrimSpace(string(body)), nil
		case status == http.StatusForbidden && attempt == 0:
			c.logger.Info("fritz session expired, logging in again", "cmd", cmd)
			c.sid = ""
		case status == http.StatusForbidden:
			return "", fmt.Errorf("%s: %w", cmd, ErrForbidden)
		case status == http.StatusBadRequest && ain != "":
			return "", fmt.Errorf("%s %q: %w", cmd, ain, device.ErrDeviceNotFound)
		default:
			return "", fmt.Errorf("%w: %s returned HTTP %d", ErrUnexpectedResponse, cmd, status)
		}
	}
}

// loginLocked performs the challenge/response login. c.mu must be held.
func (c *Client) loginLocked(ctx context.Context) (string, error) {
	status, body, err := c.get(ctx, loginPath, url.Values{"version": {"2"}})
	if err != nil {
		return "", fmt.Errorf("requesting login challenge: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: login challenge returned HTTP %d", ErrUnexpectedResponse, status)
	}

	info, err := parseSessionInfo(body)
	if err != nil {
		return "", err
	}
	if info.loggedIn() {
		c.sid = info.SID
		return c.sid, nil
	}
	if info.BlockTime > 0 {
		return "", fmt.Errorf("%w: %w: retry in %ds", device.ErrAuth, ErrLoginBlocked, info.BlockTime)
	}

	response, err := challengeResponse(info.Challenge, c.cfg.Password)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("username", c.cfg.Username)
	q.Set("response", response)
	status, body, err = c.get(ctx, loginPath, q)
	if err != nil {
		return "", fmt.Errorf("sending login response: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: login returned HTTP %d", ErrUnexpectedResponse, status)
	}

	info, err = parseSessionInfo(body)
	if err != nil {
		return "", err
	}
	if !info.loggedIn() {
		return "", fmt.Errorf("%w: fritz box rejected credentials for user %q", device.ErrAuth, c.cfg.Username)
	}

	c.sid = info.SID
	c.logger.Info("fritz login succeeded", "user", c.cfg.Username)
	return c.sid, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (int, []byte, error) {
	u := c.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// parseSwitchState maps a getswitchstate/setswitch* body to a State.
func parseSwitchState(ain, body string) (device.State, error) {
	switch strings.TrimSpace(body) {
	case "1":
		return device.StateOn, nil
	case "0":
		return device.StateOff, nil
	case "inval":
		return device.StateUnknown, fmt.Errorf("%q: %w", ain, device.ErrStateUnknown)
	default:
		return device.StateUnknown, fmt.Errorf("%w: switch state %q for %q", ErrUnexpectedResponse, body, ain)
	}
}
