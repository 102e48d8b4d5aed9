package utils

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// GeneralizedTime is the LDAP GeneralizedTime layout used for time values.
const GeneralizedTime = "20060102150405Z"

// ToInt converts column values and query parameters to int.
// Floats are truncated. Anything unparsable yields 0.
func ToInt(val any) int {
	switch v := val.(type) {
	case nil:
		return 0
	case int:
		return v
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(v))
		return i
	case []byte:
		return ToInt(string(v))
	}
	rv := reflect.ValueOf(val)
	switch {
	case rv.CanInt():
		return int(rv.Int())
	case rv.CanUint():
		return int(rv.Uint())
	case rv.CanFloat():
		return int(rv.Float())
	}
	return ToInt(fmt.Sprint(val))
}

// ToString converts column values to their directory text form.
// Times are rendered in UTC as LDAP GeneralizedTime.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(GeneralizedTime)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(GeneralizedTime)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool accepts bools, the integer 1 and the strings understood by
// strconv.ParseBool.
func ToBool(val any) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case []byte:
		return ToBool(string(v))
	}
	rv := reflect.ValueOf(val)
	if rv.CanInt() || rv.CanUint() {
		return ToInt(val) == 1
	}
	return false
}
