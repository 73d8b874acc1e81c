package ldap

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ConstructBaseDN derives the directory root from a dotted domain name:
// each label is upper-cased and prefixed with DC=, e.g.
// "example.com" becomes "DC=EXAMPLE,DC=COM".
//
// Empty labels and labels that would need RFC 4514 escaping are rejected
// with an error of kind KindBaseDNConstruction.
func ConstructBaseDN(domain string) (string, error) {
	if domain == "" {
		return "", newErrorf(KindBaseDNConstruction, "domain name cannot be empty")
	}

	upper := cases.Upper(language.Und)
	labels := strings.Split(domain, ".")
	components := make([]string, 0, len(labels))

	for i, label := range labels {
		if label == "" {
			return "", newErrorf(KindBaseDNConstruction,
				fmt.Sprintf("domain %q has an empty label at position %d", domain, i+1))
		}
		if NeedsDNEscaping(label) {
			return "", newErrorf(KindBaseDNConstruction,
				fmt.Sprintf("domain label %q contains characters that are not valid in a DN component", label))
		}
		components = append(components, "DC="+upper.String(label))
	}

	return strings.Join(components, ","), nil
}

// UserDN returns the bind identity CN=<username>,<container>,<baseDN>.
// An empty container defaults to CN=Users.
func UserDN(username, container, baseDN string) string {
	if container == "" {
		container = DefaultUsersContainer
	}
	return "CN=" + username + "," + container + "," + baseDN
}

// NeedsDNEscaping reports whether value contains characters that RFC 4514
// requires to be escaped inside an attribute value.
func NeedsDNEscaping(value string) bool {
	if value == "" {
		return false
	}

	if value[0] == ' ' || value[len(value)-1] == ' ' || value[0] == '#' {
		return true
	}

	return strings.ContainsAny(value, ",+\"\\<>;\x00")
}
