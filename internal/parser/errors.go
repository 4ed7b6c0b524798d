package parser

import "fmt"

// FormatError reports content that could not be parsed at all: malformed
// JSON/YAML/XML or an unsupported dialect version.
type FormatError struct {
	Flavor Flavor
	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	msg := "cannot parse API description"
	if e.Flavor != "" {
		msg = fmt.Sprintf("cannot parse %s description", e.Flavor)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ValidationError reports a well-formed description missing a required
// anchor. Anchor names the missing element; Hint shows the expected shape so
// the message is actionable without reading the dialect's documentation.
type ValidationError struct {
	Flavor Flavor
	Anchor string
	Hint   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s description: missing %q", e.Flavor, e.Anchor)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}
