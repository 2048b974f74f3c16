// Package identifier classifies caller-supplied user identifiers and maps
// them to allow-listed lookup columns, so storage code never derives a column
// name from raw input.
package identifier

import "strings"

// Kind tags the shape of a caller-supplied identifier.
type Kind int

const (
	// KindUsername is the fallback classification, including the empty string.
	KindUsername Kind = iota
	// KindEmail matches any input containing "@".
	KindEmail
	// KindNumericID matches inputs whose first byte is a decimal digit.
	KindNumericID
)

// Column names the users table columns an identifier may resolve against.
// Only these three values ever reach SQL text.
type Column string

const (
	ColumnID       Column = "id"
	ColumnEmail    Column = "email"
	ColumnUsername Column = "display_name"
)

// Identifier is a classified lookup key: the column to match and the raw
// value to bind as a parameter.
type Identifier struct {
	Kind  Kind
	Value string
}

// Classify tags the input. Total and deterministic: "@" anywhere means email,
// otherwise a leading decimal digit means numeric id, anything else (the
// empty string included) is a username.
func Classify(input string) Identifier {
	kind := KindUsername
	if strings.Contains(input, "@") {
		kind = KindEmail
	} else if len(input) > 0 && input[0] >= '0' && input[0] <= '9' {
		kind = KindNumericID
	}
	return Identifier{Kind: kind, Value: input}
}

// Column returns the allow-listed lookup column for the identifier.
func (id Identifier) Column() Column {
	switch id.Kind {
	case KindEmail:
		return ColumnEmail
	case KindNumericID:
		return ColumnID
	default:
		return ColumnUsername
	}
}
