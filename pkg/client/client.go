package client

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/supasaas/pkg/config"
)

// Client holds the default handle and, when a service-role key is
// configured, the elevated-privilege handle.
type Client struct {
	login      config.Login
	cfg        *ClientConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu            sync.RWMutex
	defaultHandle *Handle
	serviceHandle *Handle
	session       *Session
}

// NewClient validates the login and builds the handles.
func NewClient(login config.Login, opts ...Option) (*Client, error) {
	if errs := login.Validate(); len(errs) > 0 {
		return nil, NewClientError("new client", joinErrors(errs), ErrInvalidConfig)
	}

	c := &Client{
		login: config.Login{
			URL:         strings.TrimSuffix(strings.TrimSpace(login.URL), "/"),
			Key:         strings.TrimSpace(login.Key),
			ServiceRole: strings.TrimSpace(login.ServiceRole),
		},
		cfg: DefaultClientConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		logger, err := newClientLogger(c.cfg.QuietMode)
		if err != nil {
			return nil, NewClientError("new client", "failed to create logger", err)
		}
		c.logger = logger
	}

	c.buildHandles()
	return c, nil
}

func (c *Client) buildHandles() {
	c.defaultHandle = newHandle(c.login.URL, c.login.Key, c.defaultBearer, false, c.httpClient, *c.cfg, c.logger)
	c.logger.Info("Default client initialized")
	c.serviceHandle = nil
	if c.login.HasServiceRole() {
		c.serviceHandle = newHandle(c.login.URL, c.login.ServiceRole, nil, true, c.httpClient, *c.cfg, c.logger)
		c.logger.Info("Service role client initialized")
	}
}

// defaultBearer sends the signed-in user's token so row level security
// applies, and the anon key otherwise.
func (c *Client) defaultBearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil && c.session.AccessToken != "" {
		return c.session.AccessToken
	}
	return c.login.Key
}

// SelectClient returns the service handle when useServiceRole is set and the
// default handle otherwise.
func (c *Client) SelectClient(useServiceRole bool) (*Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if useServiceRole {
		if c.serviceHandle == nil {
			return nil, ErrServiceRoleNotSet
		}
		return c.serviceHandle, nil
	}
	return c.defaultHandle, nil
}

// RefreshClients closes both handles and builds new ones. The session is kept.
func (c *Client) RefreshClients() {
	c.logger.Info("Calling for new clients")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeHandles()
	c.buildHandles()
}

// Close closes both handles.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeHandles()
}

func (c *Client) closeHandles() {
	if c.defaultHandle != nil {
		c.defaultHandle.Close()
	}
	if c.serviceHandle != nil {
		c.serviceHandle.Close()
	}
}

// Login returns the credentials the client was built from.
func (c *Client) Login() config.Login { return c.login }

// Config returns a copy of the transport settings.
func (c *Client) Config() ClientConfig { return *c.cfg }

// Logger returns the client logger.
func (c *Client) Logger() *zap.Logger { return c.logger }

// Session returns the stored session, or nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession stores s as the active session. A nil session signs out locally.
func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func joinErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("invalid login: %s", strings.Join(parts, ", "))
}
