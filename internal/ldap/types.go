package ldap

import (
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
)

// Attributes requested for every user entry.
const (
	AttributeCN          = "cn"
	AttributeDescription = "description"
)

// UserAttributes is the attribute list sent with every user search.
var UserAttributes = []string{AttributeCN, AttributeDescription}

// Defaults mirrored by the Config struct tags.
const (
	DefaultFilter         = "(objectClass=user)"
	DefaultUsersContainer = "CN=Users"
	DefaultTimeout        = 60 * time.Second
)

// Config holds everything needed to connect, bind and search.
// It is built once by the caller and treated as immutable afterwards.
type Config struct {
	// Required settings
	Server   string // Host or host:port of the domain controller, no scheme
	Username string // Account name, becomes the CN of the bind DN
	Password string // Password for simple bind
	Domain   string // Dotted DNS domain name, e.g. example.com

	// Search settings
	Filter         string `default:"(objectClass=user)"` // Used by SearchUsers when called with ""
	UsersContainer string `default:"CN=Users"`           // RDN of the container holding the bind account
	PageSize       uint32 // Simple paged results page size, 0 disables paging

	// Transport settings
	Timeout            time.Duration `default:"60s"` // Dial and request timeout, 0 selects the default
	UseTLS             bool          // Connect with ldaps:// instead of ldap://
	StartTLS           bool          // Upgrade a plaintext connection with StartTLS
	InsecureSkipVerify bool          // Skip certificate verification for TLS and StartTLS
}

// ApplyDefaults fills every zero-valued setting that has a default.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to set default values: %w", err)
	}
	return nil
}

// Validate checks the required settings. It performs no network I/O.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"server", c.Server},
		{"username", c.Username},
		{"password", c.Password},
		{"domain", c.Domain},
	}

	var errs []error
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("missing required setting %q", r.name))
		}
	}

	if c.UseTLS && c.StartTLS {
		errs = append(errs, errors.New("TLS and StartTLS are mutually exclusive"))
	}

	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}

	return errors.Join(errs...)
}

// URL returns the connection target for the configured server.
func (c *Config) URL() string {
	scheme := "ldap"
	if c.UseTLS {
		scheme = "ldaps"
	}
	return scheme + "://" + c.Server
}

// Encrypted reports whether credentials will travel over TLS.
func (c *Config) Encrypted() bool {
	return c.UseTLS || c.StartTLS
}

// TLSConfig returns the TLS settings used for ldaps:// and StartTLS.
func (c *Config) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify, //nolint:gosec // opt-in via --insecure-skip-verify
	}
}

// Entry is a single search result: its DN and the requested attributes.
type Entry struct {
	DN         string              `json:"dn"`
	Attributes map[string][]string `json:"attributes"`
}

// Conn is the subset of *ldap.Conn the client relies on.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
	StartTLS(config *tls.Config) error
	SetTimeout(timeout time.Duration)
	Close() error
}

// Dialer opens a connection to an LDAP URL.
type Dialer func(url string, opts ...ldap.DialOpt) (Conn, error)

// dialURL adapts ldap.DialURL to the Dialer signature.
func dialURL(url string, opts ...ldap.DialOpt) (Conn, error) {
	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
