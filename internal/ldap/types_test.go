package ldap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "(objectClass=user)", cfg.Filter)
	assert.Equal(t, "CN=Users", cfg.UsersContainer)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.PageSize)
	assert.False(t, cfg.UseTLS)

	assert.Equal(t, DefaultFilter, cfg.Filter)
	assert.Equal(t, DefaultUsersContainer, cfg.UsersContainer)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.False(t, cfg.StartTLS)
}

func TestConfig_ApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Filter:         "(cn=a*)",
		UsersContainer: "OU=Staff",
		Timeout:        5 * time.Second,
		PageSize:       100,
	}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "(cn=a*)", cfg.Filter)
	assert.Equal(t, "OU=Staff", cfg.UsersContainer)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(100), cfg.PageSize)
}

func TestConfig_ApplyDefaultsZeroTimeout(t *testing.T) {
	cfg := Config{Timeout: 0}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, DefaultTimeout, cfg.Timeout, "zero timeout is replaced, never disables the timeout")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Server: "dc1", Username: "admin", Password: "pw", Domain: "example.com"}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr []string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "missing server",
			modify:  func(c *Config) { c.Server = "" },
			wantErr: []string{`missing required setting "server"`},
		},
		{
			name: "missing everything",
			modify: func(c *Config) {
				*c = Config{}
			},
			wantErr: []string{
				`missing required setting "server"`,
				`missing required setting "username"`,
				`missing required setting "password"`,
				`missing required setting "domain"`,
			},
		},
		{
			name: "tls and starttls",
			modify: func(c *Config) {
				c.UseTLS = true
				c.StartTLS = true
			},
			wantErr: []string{"mutually exclusive"},
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: []string{"timeout cannot be negative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			for _, msg := range tt.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestConfig_URL(t *testing.T) {
	cfg := Config{Server: "192.168.1.10"}
	assert.Equal(t, "ldap://192.168.1.10", cfg.URL())
	assert.False(t, cfg.Encrypted())

	cfg.StartTLS = true
	assert.Equal(t, "ldap://192.168.1.10", cfg.URL())
	assert.True(t, cfg.Encrypted())

	cfg = Config{Server: "dc1.example.com:3269", UseTLS: true}
	assert.Equal(t, "ldaps://dc1.example.com:3269", cfg.URL())
	assert.True(t, cfg.Encrypted())
}

func TestConfig_TLSConfig(t *testing.T) {
	cfg := Config{InsecureSkipVerify: true}
	tlsCfg := cfg.TLSConfig()

	assert.True(t, tlsCfg.InsecureSkipVerify)
	assert.NotZero(t, tlsCfg.MinVersion)
}
