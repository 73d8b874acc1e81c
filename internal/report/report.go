// Package report turns search results into the output shown to the user.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/isometry/adusers/internal/ldap"
	"github.com/isometry/adusers/internal/style"
)

// Placeholders printed when an entry lacks an attribute.
const (
	MissingCN          = "CN not found in entry"
	MissingDescription = "Description not found in entry"
)

// ValueSeparator joins the values of a multi-valued attribute.
const ValueSeparator = ", "

// Format selects how results are rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: %s, %s)", s, FormatTable, FormatJSON)
	}
}

// Row is one line of the user table.
type Row struct {
	User        string
	Description string

	missingUser        bool
	missingDescription bool
}

// NewRow builds the table row for an entry, substituting placeholders for
// absent attributes.
func NewRow(entry ldap.Entry) Row {
	row := Row{}
	row.User, row.missingUser = column(entry, ldap.AttributeCN, MissingCN)
	row.Description, row.missingDescription = column(entry, ldap.AttributeDescription, MissingDescription)
	return row
}

func column(entry ldap.Entry, attribute, placeholder string) (string, bool) {
	values, ok := entry.Attributes[attribute]
	if !ok {
		return placeholder, true
	}
	return strings.Join(values, ValueSeparator), false
}

// Rows converts entries to table rows, preserving order.
func Rows(entries []ldap.Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, NewRow(entry))
	}
	return rows
}

// Table renders the two-column User/Description table for the default
// renderer.
func Table(entries []ldap.Entry) string {
	return renderTable(lipgloss.DefaultRenderer(), entries)
}

func renderTable(renderer *lipgloss.Renderer, entries []ldap.Entry) string {
	rows := Rows(entries)

	header := style.HeaderStyle.Renderer(renderer)
	cell := style.CellStyle.Renderer(renderer)
	placeholder := style.PlaceholderStyle.Renderer(renderer)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(style.BorderStyle.Renderer(renderer)).
		Headers("User", "Description").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if row >= 0 && row < len(rows) {
				r := rows[row]
				if (col == 0 && r.missingUser) || (col == 1 && r.missingDescription) {
					return placeholder
				}
			}
			return cell
		})

	for _, r := range rows {
		t.Row(r.User, r.Description)
	}

	return t.String()
}

type jsonEntry struct {
	DN          string   `json:"dn"`
	CN          []string `json:"cn"`
	Description []string `json:"description"`
}

// WriteJSON writes the entries as an indented JSON array. Absent attributes
// are encoded as null.
func WriteJSON(w io.Writer, entries []ldap.Entry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{
			DN:          e.DN,
			CN:          e.Attributes[ldap.AttributeCN],
			Description: e.Attributes[ldap.AttributeDescription],
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// Write renders entries to w in the requested format.
func Write(w io.Writer, format Format, entries []ldap.Entry) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, entries)
	case FormatTable, "":
		_, err := fmt.Fprintln(w, renderTable(lipgloss.NewRenderer(w), entries))
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
