package ldap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

var errClientClosed = errors.New("client is closed")

// Client owns one connection and one authenticated session.
type Client struct {
	conn   Conn
	config Config
	baseDN string
	closed bool
}

// Option customises client construction.
type Option func(*clientOptions)

type clientOptions struct {
	dialer Dialer
}

// WithDialer replaces the function used to open the connection.
func WithDialer(dialer Dialer) Option {
	return func(o *clientOptions) {
		if dialer != nil {
			o.dialer = dialer
		}
	}
}

// New connects to the configured server, derives the base DN from the domain
// and performs a simple bind as CN=<username>,CN=Users,<base DN>.
//
// Construction is atomic: on any failure the connection is closed and no
// client is returned. Nothing is retried.
func New(ctx context.Context, config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, newErrorf(KindConnection, "configuration cannot be nil")
	}

	// Work on a copy so the caller's configuration is never modified.
	cfg := *config
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, newError(KindConnection, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindConnection, err)
	}

	o := clientOptions{dialer: dialURL}
	for _, opt := range opts {
		opt(&o)
	}

	tflog.SubsystemDebug(ctx, Subsystem, "Creating new LDAP client", map[string]any{
		"url":       cfg.URL(),
		"domain":    cfg.Domain,
		"username":  cfg.Username,
		"start_tls": cfg.StartTLS,
		"timeout":   cfg.Timeout.String(),
	})

	start := time.Now()

	var conn Conn
	err := LogOperation(ctx, "connect", map[string]any{"url": cfg.URL()}, func() error {
		var connErr error
		conn, connErr = connect(ctx, &cfg, o.dialer)
		return connErr
	})
	if err != nil {
		LogConnectionEvent(ctx, "connection_failed", map[string]any{"url": cfg.URL()})
		return nil, err
	}
	LogConnectionEvent(ctx, "connection_established", map[string]any{"url": cfg.URL()})

	baseDN, err := ConstructBaseDN(cfg.Domain)
	if err != nil {
		LogLDAPError(ctx, "construct_base_dn", err, map[string]any{"domain": cfg.Domain})
		closeQuietly(ctx, conn)
		return nil, err
	}

	bindDN := UserDN(cfg.Username, cfg.UsersContainer, baseDN)
	if !cfg.Encrypted() {
		LogConnectionEvent(ctx, "plaintext_credentials", map[string]any{
			"url":     cfg.URL(),
			"bind_dn": bindDN,
		})
	}

	err = LogOperation(ctx, "bind", map[string]any{"bind_dn": bindDN}, func() error {
		if err := ctx.Err(); err != nil {
			return newError(KindBind, err)
		}
		if err := conn.Bind(bindDN, cfg.Password); err != nil {
			return newError(KindBind, err)
		}
		return nil
	})
	if err != nil {
		LogConnectionEvent(ctx, "authentication_failed", map[string]any{"bind_dn": bindDN})
		closeQuietly(ctx, conn)
		return nil, err
	}

	LogConnectionEvent(ctx, "authentication_success", map[string]any{
		"bind_dn":     bindDN,
		"base_dn":     baseDN,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &Client{
		conn:   conn,
		config: cfg,
		baseDN: baseDN,
	}, nil
}

// connect dials the server and, when requested, upgrades the connection with StartTLS.
func connect(ctx context.Context, cfg *Config, dial Dialer) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindConnection, err)
	}

	dialOpts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout})}
	if cfg.UseTLS {
		dialOpts = append(dialOpts, ldap.DialWithTLSConfig(cfg.TLSConfig()))
	}

	conn, err := dial(cfg.URL(), dialOpts...)
	if err != nil {
		return nil, newError(KindConnection, err)
	}

	if cfg.Timeout > 0 {
		conn.SetTimeout(cfg.Timeout)
	}

	if cfg.StartTLS {
		tflog.SubsystemDebug(ctx, Subsystem, "Upgrading connection with StartTLS")
		if err := conn.StartTLS(cfg.TLSConfig()); err != nil {
			closeQuietly(ctx, conn)
			return nil, newError(KindConnection, err)
		}
	}

	return conn, nil
}

// BaseDN returns the search root derived from the domain name.
func (c *Client) BaseDN() string {
	return c.baseDN
}

// SearchUsers runs a subtree search below the base DN with the given filter,
// requesting only cn and description. The filter is passed to the server
// unchanged; an empty filter selects Config.Filter. A search without matches
// returns an empty slice.
func (c *Client) SearchUsers(ctx context.Context, filter string) ([]Entry, error) {
	if c.closed {
		return nil, newError(KindSearch, errClientClosed)
	}
	if filter == "" {
		filter = c.config.Filter
	}

	req := ldap.NewSearchRequest(
		c.baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		UserAttributes,
		nil,
	)

	fields := map[string]any{
		"base_dn":    c.baseDN,
		"scope":      "subtree",
		"filter":     filter,
		"attributes": UserAttributes,
		"page_size":  c.config.PageSize,
	}

	var entries []Entry
	err := LogOperation(ctx, "search", fields, func() error {
		if err := ctx.Err(); err != nil {
			return newError(KindSearch, err)
		}

		var (
			result *ldap.SearchResult
			err    error
		)
		if c.config.PageSize > 0 {
			result, err = c.conn.SearchWithPaging(req, c.config.PageSize)
		} else {
			result, err = c.conn.Search(req)
		}
		if err != nil {
			return newError(KindSearch, err)
		}
		if result == nil {
			result = &ldap.SearchResult{}
		}

		entries, err = convertEntries(result.Entries)
		if err != nil {
			return err
		}

		fields["entries_found"] = len(entries)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Close closes the connection. Calling it more than once is a no-op.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// convertEntries copies go-ldap entries into Entry values, keyed by the
// requested attribute names.
func convertEntries(raw []*ldap.Entry) ([]Entry, error) {
	entries := make([]Entry, 0, len(raw))

	for i, e := range raw {
		if e == nil {
			return nil, newError(KindEntryParsing, fmt.Errorf("search returned an empty entry at position %d", i+1))
		}
		if _, err := ldap.ParseDN(e.DN); err != nil {
			return nil, newError(KindEntryParsing, fmt.Errorf("invalid DN %q: %w", e.DN, err))
		}

		entry := Entry{
			DN:         e.DN,
			Attributes: make(map[string][]string, len(e.Attributes)),
		}
		for _, attr := range e.Attributes {
			if attr == nil {
				continue
			}
			entry.Attributes[canonicalAttribute(attr.Name)] = append([]string(nil), attr.Values...)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// canonicalAttribute maps a returned attribute name onto the requested
// spelling; servers may answer with a different case.
func canonicalAttribute(name string) string {
	for _, requested := range UserAttributes {
		if strings.EqualFold(name, requested) {
			return requested
		}
	}
	return name
}

func closeQuietly(ctx context.Context, conn Conn) {
	if err := conn.Close(); err != nil {
		tflog.SubsystemDebug(ctx, Subsystem, "Error closing connection", map[string]any{
			"error": err.Error(),
		})
	}
}
