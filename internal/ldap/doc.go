/*
Package ldap connects to an Active Directory domain controller, binds with a
user's credentials and lists directory entries.

# Connection Sequence

New performs a fixed sequence and stops at the first failure:

  - Dial ldap://<server> (or ldaps:// with UseTLS, optionally StartTLS)
  - Derive the base DN from the domain name: example.com becomes DC=EXAMPLE,DC=COM
  - Simple bind as CN=<username>,CN=Users,<base DN>

Nothing is retried and a failed construction never leaves a connection open.

# Searching

SearchUsers runs one subtree search below the base DN, requesting only cn and
description. The filter is sent verbatim; escaping user input is the
caller's job. Results are returned in server order.

# Error Handling

Every failure is an *Error whose Kind names the failed step. Use errors.Is
with ErrConnection, ErrBaseDNConstruction, ErrBind, ErrSearch or
ErrEntryParsing to branch on it. Errors carrying an LDAP result code are
also categorized (authentication, permission, connection, ...).

# Logging

All operations log under the "ldap" tflog subsystem. InitLogging registers the
subsystem and masks password fields.

# Example Usage

	client, err := ldap.New(ctx, &ldap.Config{
		Server:   "10.0.0.1",
		Username: "administrator",
		Password: "password",
		Domain:   "example.com",
	})
	if err != nil {
		return err
	}
	defer client.Close()

	entries, err := client.SearchUsers(ctx, "(objectClass=user)")
*/
package ldap
