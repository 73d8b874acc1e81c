// Package cli implements the adusers command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/spf13/cobra"

	"github.com/isometry/adusers/internal/ldap"
	"github.com/isometry/adusers/internal/report"
	"github.com/isometry/adusers/internal/style"
)

// EnvLogLevel sets the root log level; EnvLogLevel+"_LDAP" overrides it for LDAP operations.
// Both are read through App.Getenv.
const EnvLogLevel = "ADUSERS_LOG"

// autoServer as the domain controller argument selects DNS SRV discovery.
const autoServer = "auto"

// App holds the streams and the replaceable dependencies of one invocation.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ClientOptions are passed through to ldap.New.
	ClientOptions []ldap.Option
	// Resolver is used for "auto" discovery; nil selects the system resolver.
	Resolver ldap.SRVResolver
	// RootLogger installs the root logger; nil writes JSON lines to stderr.
	RootLogger func(ctx context.Context, level hclog.Level) context.Context
	// Getenv looks up the log level variables; defaults to os.Getenv.
	Getenv func(string) string
}

type options struct {
	filter             string
	output             string
	usersContainer     string
	useTLS             bool
	startTLS           bool
	insecureSkipVerify bool
	timeout            time.Duration
	pageSize           uint32
	verbose            bool
}

// exitError carries the message printed before exiting with status 1, and an
// optional hint printed on the following line.
type exitError struct {
	message string
	err     error
	hint    string
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.message
	}
	return e.message + ": " + e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fail(message string, err error) error {
	return &exitError{message: message, err: err}
}

// authHint follows a bind rejected for the supplied credentials.
const authHint = "Check the username and password, and --users-container if the account is not in CN=Users"

// Execute runs adusers against the process streams and returns the exit code.
func Execute(ctx context.Context, args []string) int {
	app := &App{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	return app.Run(ctx, args)
}

// Run executes the command with args (without the program name) and returns
// the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}

	cmd := a.NewRootCommand()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.Stderr, style.Render(a.Stderr, style.ErrorTextStyle, err.Error()))
		var exitErr *exitError
		if errors.As(err, &exitErr) && exitErr.hint != "" {
			fmt.Fprintln(a.Stderr, style.Render(a.Stderr, style.HintTextStyle, exitErr.hint))
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the adusers command.
func (a *App) NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "adusers [flags] <username> <password> <domain_controller_ip> <domain_name>",
		Short: "List Active Directory users",
		Long: `adusers binds to an Active Directory domain controller as
CN=<username>,CN=Users,<base DN> and lists the cn and description of every
entry matching the search filter.

The base DN is derived from the domain name: example.com becomes
DC=EXAMPLE,DC=COM.

Pass "-" as the password to read it from the terminal (or the first line of
standard input), and "auto" as the domain controller to locate one through
DNS SRV records.`,
		Example: `  adusers administrator 'P@ssw0rd' 10.0.0.1 example.com
  adusers -f '(&(objectClass=user)(cn=svc-*))' -o json svc-reader - auto corp.local`,
		Args:          usageArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), opts, args)
		},
	}

	cmd.SetIn(a.Stdin)
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)

	flags := cmd.Flags()
	// Flags must precede the positionals so a password may start with "-".
	flags.SetInterspersed(false)
	flags.StringVarP(&opts.filter, "filter", "f", ldap.DefaultFilter, "LDAP search filter")
	flags.StringVarP(&opts.output, "output", "o", string(report.FormatTable), "Output format: table or json")
	flags.StringVar(&opts.usersContainer, "users-container", ldap.DefaultUsersContainer, "RDN of the container holding the bind account")
	flags.BoolVar(&opts.useTLS, "tls", false, "Connect with ldaps://")
	flags.BoolVar(&opts.startTLS, "start-tls", false, "Upgrade the plaintext connection with StartTLS")
	flags.BoolVar(&opts.insecureSkipVerify, "insecure-skip-verify", false, "Skip TLS certificate verification")
	flags.DurationVar(&opts.timeout, "timeout", ldap.DefaultTimeout, "Dial and request timeout (0 selects the 60s default)")
	flags.Uint32Var(&opts.pageSize, "page-size", 0, "Page size for the paged results control (0 disables paging)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Write debug logs to stderr")

	cmd.MarkFlagsMutuallyExclusive("tls", "start-tls")

	return cmd
}

// usageArgs requires the four positional arguments; extra arguments are ignored.
func usageArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 4 {
		return fail("Usage: "+cmd.UseLine(), nil)
	}
	return nil
}

func (a *App) run(ctx context.Context, opts *options, args []string) error {
	username, password, server, domain := args[0], args[1], args[2], args[3]

	format, err := report.ParseFormat(opts.output)
	if err != nil {
		return fail("Error parsing flags", err)
	}

	ctx = a.initLogging(ctx, opts.verbose)

	if password == "-" {
		password, err = readPassword(a.Stdin, a.Stderr)
		if err != nil {
			return fail("Error reading password", err)
		}
	}

	if server == autoServer {
		servers, err := ldap.NewSRVDiscovery(a.Resolver).DiscoverServers(ctx, domain, opts.useTLS)
		if err != nil {
			return fail("Error discovering domain controller", err)
		}
		server = servers[0].Address()
		tflog.Info(ctx, "Discovered domain controller", map[string]any{
			"server":     server,
			"candidates": len(servers),
		})
	}

	cfg := &ldap.Config{
		Server:             server,
		Username:           username,
		Password:           password,
		Domain:             domain,
		Filter:             opts.filter,
		UsersContainer:     opts.usersContainer,
		PageSize:           opts.pageSize,
		Timeout:            opts.timeout,
		UseTLS:             opts.useTLS,
		StartTLS:           opts.startTLS,
		InsecureSkipVerify: opts.insecureSkipVerify,
	}

	client, err := ldap.New(ctx, cfg, a.ClientOptions...)
	if err != nil {
		if ldap.IsAuthenticationError(err) {
			return &exitError{message: "Error connecting to LDAP server", err: err, hint: authHint}
		}
		return fail("Error connecting to LDAP server", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			tflog.Debug(ctx, "Error closing LDAP client", map[string]any{"error": err.Error()})
		}
	}()

	// Keep stdout pure JSON when it is requested.
	status := a.Stdout
	if format == report.FormatJSON {
		status = a.Stderr
	}
	fmt.Fprintln(status, style.Render(status, style.SuccessTextStyle, "Connected to LDAP server: "+server))

	entries, err := client.SearchUsers(ctx, opts.filter)
	if err != nil {
		return fail("Error searching users", err)
	}

	tflog.Debug(ctx, "Search completed", map[string]any{"entries_found": len(entries)})

	if format == report.FormatTable {
		fmt.Fprintln(a.Stdout, style.Render(a.Stdout, style.TitleStyle, "Users found:"))
	}
	if err := report.Write(a.Stdout, format, entries); err != nil {
		return fail("Error writing results", err)
	}

	return nil
}

// initLogging installs the root logger and the ldap subsystem. --verbose
// selects DEBUG, otherwise ADUSERS_LOG decides and logging is off when unset.
func (a *App) initLogging(ctx context.Context, verbose bool) context.Context {
	getenv := a.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	level := hclog.Off
	if verbose {
		level = hclog.Debug
	} else if l := hclog.LevelFromString(getenv(EnvLogLevel)); l != hclog.NoLevel {
		level = l
	}

	if a.RootLogger != nil {
		ctx = a.RootLogger(ctx, level)
	} else {
		ctx = tfsdklog.NewRootProviderLogger(ctx,
			tfsdklog.WithLogName("adusers"),
			tfsdklog.WithLevel(level),
			tfsdklog.WithoutLocation(),
		)
	}

	ctx = tflog.SetField(ctx, "run_id", uuid.NewString())
	return ldap.InitLogging(ctx, EnvLogLevel, getenv)
}
