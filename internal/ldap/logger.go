package ldap

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Subsystem is the tflog subsystem all LDAP operations log under.
const Subsystem = "ldap"

// SensitiveFieldKeys are masked in every log line of the subsystem.
var SensitiveFieldKeys = []string{"password", "passwd", "secret", "credentials"}

// InitLogging registers the ldap subsystem on ctx. The level can be raised or
// lowered independently of the root logger through <envPrefix>_LDAP, looked
// up with getenv (os.Getenv when nil); unset or invalid values inherit the
// root level. Fields already set on the root logger are carried over.
func InitLogging(ctx context.Context, envPrefix string, getenv func(string) string) context.Context {
	if getenv == nil {
		getenv = os.Getenv
	}
	level := hclog.LevelFromString(getenv(SubsystemLevelEnv(envPrefix)))

	ctx = tflog.NewSubsystem(ctx, Subsystem,
		tflog.WithLevel(level),
		tflog.WithRootFields(),
	)
	return tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, Subsystem, SensitiveFieldKeys...)
}

// SubsystemLevelEnv returns the variable controlling the subsystem level,
// e.g. ADUSERS_LOG_LDAP for the prefix ADUSERS_LOG.
func SubsystemLevelEnv(envPrefix string) string {
	return envPrefix + "_" + strings.ToUpper(Subsystem)
}

// LogOperation is a helper function to log an operation with timing.
func LogOperation(ctx context.Context, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	if fields == nil {
		fields = make(map[string]any)
	}
	fields["operation"] = operation

	tflog.SubsystemDebug(ctx, Subsystem, "Starting operation", fields)

	err := fn()

	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		LogLDAPError(ctx, operation, err, fields)
	} else {
		tflog.SubsystemDebug(ctx, Subsystem, "Operation completed successfully", fields)
	}

	return err
}

// LogLDAPError logs LDAP-specific error information.
func LogLDAPError(ctx context.Context, operation string, err error, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any)
	}

	fields["operation"] = operation
	fields["error"] = err.Error()

	var e *Error
	if errors.As(err, &e) {
		fields["error_kind"] = e.Kind.String()
		fields["error_category"] = string(e.Category)
		if e.LDAPCode > 0 {
			fields["ldap_result_code"] = e.LDAPCode
		}
		if e.MatchedDN != "" {
			fields["ldap_matched_dn"] = e.MatchedDN
		}
	}

	tflog.SubsystemError(ctx, Subsystem, "LDAP operation failed", fields)
}

// LogConnectionEvent logs connection-related events.
func LogConnectionEvent(ctx context.Context, event string, fields map[string]any) {
	if fields == nil {
		fields = make(map[string]any)
	}

	fields["event"] = event

	switch event {
	case "connection_established", "authentication_success":
		tflog.SubsystemInfo(ctx, Subsystem, "Connection event", fields)
	case "plaintext_credentials":
		tflog.SubsystemWarn(ctx, Subsystem, "Connection event", fields)
	case "connection_failed", "authentication_failed":
		tflog.SubsystemError(ctx, Subsystem, "Connection event", fields)
	default:
		tflog.SubsystemDebug(ctx, Subsystem, "Connection event", fields)
	}
}
