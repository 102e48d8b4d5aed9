package syncoptions

import (
	"fmt"
	"strings"

	"dirsync/core/bean"
)

// Status is the reconciliation strategy of an attribute.
type Status int

const (
	// Keep never touches the destination attribute.
	Keep Status = iota
	// Force makes the destination attribute equal to the source attribute.
	Force
	// Merge adds source values missing from the destination, never removing any.
	Merge
)

// String returns the policy keyword of the status.
func (s Status) String() string {
	switch s {
	case Force:
		return "FORCE"
	case Merge:
		return "MERGE"
	default:
		return "KEEP"
	}
}

// ParseStatus parses FORCE, MERGE or KEEP, ignoring case.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FORCE":
		return Force, nil
	case "MERGE":
		return Merge, nil
	case "KEEP":
		return Keep, nil
	default:
		return Keep, fmt.Errorf("unknown policy %q (expected FORCE, MERGE or KEEP)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Options is the read-only policy view consumed by the reconcile engine.
// Attribute names are matched ignoring case. Value lookups return nil when
// nothing is configured for the attribute.
type Options interface {
	// TaskName returns the name of the synchronization task.
	TaskName() string
	// DN returns the DN template expression, or "" when none is configured.
	DN() string
	// Status returns the policy of an attribute, Keep when unspecified.
	Status(dn, attr string) Status
	// ForceValues returns the force value expressions of an attribute.
	ForceValues(dn, attr string) []string
	// DefaultValues returns the default value expressions of an attribute.
	DefaultValues(dn, attr string) []string
	// CreateValues returns the create value expressions of an attribute.
	CreateValues(dn, attr string) []string
	// ForceValuedAttributeNames returns the attributes having force values.
	ForceValuedAttributeNames() []string
	// DefaultValuedAttributeNames returns the attributes having default values.
	DefaultValuedAttributeNames() []string
	// CreateAttributeNames returns the attributes having create values.
	CreateAttributeNames() []string
	// WriteAttributes returns the writable attribute allowlist; nil means every
	// attribute is writable.
	WriteAttributes() []string
}

// CanWrite reports whether attr passes the write allowlist of opts.
func CanWrite(opts Options, attr string) bool {
	allowed := opts.WriteAttributes()
	if allowed == nil {
		return true
	}
	for _, name := range allowed {
		if bean.SameName(name, attr) {
			return true
		}
	}
	return false
}
