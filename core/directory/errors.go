package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Error reports a failed directory operation.
type Error struct {
	Operation string // The operation that failed
	LDAPCode  uint16 // LDAP result code, 0 for non-LDAP failures
	DN        string // DN involved in the operation (if applicable)
	Cause     error
}

func (e *Error) Error() string {
	var parts []string
	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("LDAP %s failed (code %d: %s)", e.Operation, e.LDAPCode, ldap.LDAPResultCodeMap[e.LDAPCode]))
	} else {
		parts = append(parts, fmt.Sprintf("LDAP %s failed", e.Operation))
	}
	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " - ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// wrapError wraps err with the operation and DN. It returns nil for a nil err.
func wrapError(operation, dn string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := &Error{Operation: operation, DN: dn, Cause: err}
	var lerr *ldap.Error
	if errors.As(err, &lerr) {
		wrapped.LDAPCode = lerr.ResultCode
	}
	return wrapped
}

// IsCode reports whether err carries the given LDAP result code.
func IsCode(err error, code uint16) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.LDAPCode == code
}
