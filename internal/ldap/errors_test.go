package ldap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "connection",
			err:  &Error{Kind: KindConnection, Message: "dial tcp: connection refused"},
			want: "LDAP connection error: dial tcp: connection refused",
		},
		{
			name: "base dn construction",
			err:  &Error{Kind: KindBaseDNConstruction, Message: "domain name cannot be empty"},
			want: "Invalid base DN construction: domain name cannot be empty",
		},
		{
			name: "bind",
			err:  &Error{Kind: KindBind, Message: "invalid credentials"},
			want: "LDAP bind failed: invalid credentials",
		},
		{
			name: "search",
			err:  &Error{Kind: KindSearch, Message: "bad filter"},
			want: "LDAP search failed: bad filter",
		},
		{
			name: "entry parsing",
			err:  &Error{Kind: KindEntryParsing, Message: "invalid DN"},
			want: "LDAP entry parsing error: invalid DN",
		},
		{
			name: "no message",
			err:  &Error{Kind: KindBind},
			want: "LDAP bind failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Is(t *testing.T) {
	sentinels := map[ErrorKind]error{
		KindConnection:         ErrConnection,
		KindBaseDNConstruction: ErrBaseDNConstruction,
		KindBind:               ErrBind,
		KindSearch:             ErrSearch,
		KindEntryParsing:       ErrEntryParsing,
	}

	for kind, sentinel := range sentinels {
		t.Run(kind.String(), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", newErrorf(kind, "failure"))

			assert.ErrorIs(t, err, sentinel)
			for other, otherSentinel := range sentinels {
				if other != kind {
					assert.NotErrorIs(t, err, otherSentinel)
				}
			}
		})
	}
}

func TestNewError(t *testing.T) {
	t.Run("ldap result", func(t *testing.T) {
		cause := &ldap.Error{
			ResultCode: ldap.LDAPResultNoSuchObject,
			MatchedDN:  "DC=EXAMPLE,DC=COM",
			Err:        errors.New("no such object"),
		}

		err := newError(KindSearch, cause)

		assert.Equal(t, KindSearch, err.Kind)
		assert.Equal(t, uint16(ldap.LDAPResultNoSuchObject), err.LDAPCode)
		assert.Equal(t, "DC=EXAMPLE,DC=COM", err.MatchedDN)
		assert.Equal(t, ErrorCategoryNotFound, err.Category)
		assert.Equal(t, cause.Error(), err.Message)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("generic error", func(t *testing.T) {
		cause := errors.New("read tcp: connection reset by peer")

		err := newError(KindSearch, cause)

		assert.Zero(t, err.LDAPCode)
		assert.Equal(t, ErrorCategoryConnection, err.Category)
		assert.Equal(t, "LDAP search failed: read tcp: connection reset by peer", err.Error())
	})

	t.Run("nil cause", func(t *testing.T) {
		err := newError(KindBind, nil)

		require.NotNil(t, err)
		assert.Equal(t, "LDAP bind failed", err.Error())
		assert.NoError(t, err.Unwrap())
	})
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrorCategoryUnknown},
		{"invalid credentials", ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password")), ErrorCategoryAuthentication},
		{"strong auth required", ldap.NewError(ldap.LDAPResultStrongAuthRequired, errors.New("sign")), ErrorCategoryAuthentication},
		{"insufficient access", ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("denied")), ErrorCategoryPermission},
		{"no such object", ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("missing")), ErrorCategoryNotFound},
		{"filter error", ldap.NewError(ldap.LDAPResultFilterError, errors.New("bad filter")), ErrorCategoryValidation},
		{"busy", ldap.NewError(ldap.LDAPResultBusy, errors.New("busy")), ErrorCategoryServer},
		{"network", ldap.NewError(ldap.ErrorNetwork, errors.New("dial failed")), ErrorCategoryConnection},
		{"timeout text", errors.New("i/o timeout"), ErrorCategoryConnection},
		{"unrelated", errors.New("something odd"), ErrorCategoryUnknown},
		{"wrapped", newError(KindBind, ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("x"))), ErrorCategoryAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.err))
		})
	}
}

func TestIsAuthenticationError(t *testing.T) {
	assert.True(t, IsAuthenticationError(ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password"))))
	assert.False(t, IsAuthenticationError(ldap.NewError(ldap.LDAPResultBusy, errors.New("busy"))))
	assert.False(t, IsAuthenticationError(nil))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "connection", KindConnection.String())
	assert.Equal(t, "base_dn_construction", KindBaseDNConstruction.String())
	assert.Equal(t, "bind", KindBind.String())
	assert.Equal(t, "search", KindSearch.String())
	assert.Equal(t, "entry_parsing", KindEntryParsing.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}
