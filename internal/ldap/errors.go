package ldap

import (
	"errors"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorKind identifies the step of the connect, bind, search sequence that failed.
type ErrorKind int

const (
	KindConnection ErrorKind = iota + 1
	KindBaseDNConstruction
	KindBind
	KindSearch
	KindEntryParsing
)

// String returns the kind name used in log fields.
func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindBaseDNConstruction:
		return "base_dn_construction"
	case KindBind:
		return "bind"
	case KindSearch:
		return "search"
	case KindEntryParsing:
		return "entry_parsing"
	default:
		return "unknown"
	}
}

func (k ErrorKind) prefix() string {
	switch k {
	case KindConnection:
		return "LDAP connection error"
	case KindBaseDNConstruction:
		return "Invalid base DN construction"
	case KindBind:
		return "LDAP bind failed"
	case KindSearch:
		return "LDAP search failed"
	case KindEntryParsing:
		return "LDAP entry parsing error"
	default:
		return "LDAP error"
	}
}

// ErrorCategory represents different categories of LDAP errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// Error is returned by every operation of this package.
type Error struct {
	Kind      ErrorKind     // Failed step
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code, 0 when the cause is not an LDAP result
	Message   string        // Detail appended to the kind prefix
	MatchedDN string        // Matched DN returned by the server, if any
	Cause     error         // Underlying error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConnection         = &Error{Kind: KindConnection}
	ErrBaseDNConstruction = &Error{Kind: KindBaseDNConstruction}
	ErrBind               = &Error{Kind: KindBind}
	ErrSearch             = &Error{Kind: KindSearch}
	ErrEntryParsing       = &Error{Kind: KindEntryParsing}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.prefix()
	}
	return e.Kind.prefix() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind so callers can test errors.Is(err, ErrBind).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// newError wraps cause as an error of the given kind.
func newError(kind ErrorKind, cause error) *Error {
	e := &Error{
		Kind:     kind,
		Category: ErrorCategoryUnknown,
		Cause:    cause,
	}
	if cause == nil {
		return e
	}
	e.Message = cause.Error()

	var resultErr *ldap.Error
	if errors.As(cause, &resultErr) {
		e.LDAPCode = resultErr.ResultCode
		e.MatchedDN = resultErr.MatchedDN
		e.Category = categorizeError(resultErr.ResultCode)
		return e
	}

	e.Category = categorizeGenericError(cause)
	return e
}

// newErrorf creates an error of the given kind with a plain message.
func newErrorf(kind ErrorKind, message string) *Error {
	return newError(kind, errors.New(message))
}

// categorizeError categorizes an error based on LDAP result code.
func categorizeError(code uint16) ErrorCategory {
	switch code {
	case ldap.LDAPResultInvalidCredentials,
		ldap.LDAPResultInappropriateAuthentication,
		ldap.LDAPResultStrongAuthRequired,
		ldap.LDAPResultConfidentialityRequired:
		return ErrorCategoryAuthentication

	case ldap.LDAPResultInsufficientAccessRights,
		ldap.LDAPResultUnwillingToPerform:
		return ErrorCategoryPermission

	case ldap.LDAPResultNoSuchObject,
		ldap.LDAPResultNoSuchAttribute,
		ldap.LDAPResultUndefinedAttributeType:
		return ErrorCategoryNotFound

	case ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultFilterError,
		ldap.LDAPResultInvalidAttributeSyntax:
		return ErrorCategoryValidation

	case ldap.LDAPResultServerDown,
		ldap.LDAPResultUnavailable,
		ldap.LDAPResultBusy,
		ldap.LDAPResultTimeLimitExceeded,
		ldap.LDAPResultSizeLimitExceeded,
		ldap.LDAPResultAdminLimitExceeded:
		return ErrorCategoryServer

	case ldap.ErrorNetwork,
		ldap.LDAPResultConnectError,
		ldap.LDAPResultProtocolError:
		return ErrorCategoryConnection

	default:
		return ErrorCategoryUnknown
	}
}

// categorizeGenericError categorizes non-LDAP errors.
func categorizeGenericError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	for _, pattern := range []string{"connection", "network", "timeout", "broken pipe", "no such host"} {
		if strings.Contains(errStr, pattern) {
			return ErrorCategoryConnection
		}
	}

	return ErrorCategoryUnknown
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		return categorizeError(resultErr.ResultCode)
	}

	return categorizeGenericError(err)
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}
