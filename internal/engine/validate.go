package engine

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("validation failed")

// HasURL is a feed that exposes its topic URL.
type HasURL interface {
	FeedURL() string
}

// HasID is a feed that exposes its identifier.
type HasID interface {
	FeedID() string
}

// HasSecret is a feed that exposes its HMAC secret.
type HasSecret interface {
	FeedSecret() string
}

// ValidationError reports a missing or malformed feed attribute. It is
// returned before any network call is made.
type ValidationError struct {
	Instance  string
	Attribute string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Instance == "" {
		return e.Message
	}
	return e.Instance + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidateURL checks that inst carries an absolute http(s) URL.
func ValidateURL(inst HasURL) error {
	if isNil(inst) {
		return missing("url")
	}
	if !validHTTPURL(inst.FeedURL()) {
		return invalid(inst, "url", "url must be a URL")
	}
	return nil
}

// ValidateID checks that inst carries a non-blank identifier.
func ValidateID(inst HasID) error {
	if isNil(inst) {
		return missing("id")
	}
	if strings.TrimSpace(inst.FeedID()) == "" {
		return invalid(inst, "id", "id cannot be empty")
	}
	return nil
}

// ValidateSecret checks that inst carries a non-blank secret.
func ValidateSecret(inst HasSecret) error {
	if isNil(inst) {
		return missing("secret")
	}
	if strings.TrimSpace(inst.FeedSecret()) == "" {
		return invalid(inst, "secret", "secret cannot be empty")
	}
	return nil
}

// validHTTPURL accepts raw exactly as it will be sent; surrounding
// whitespace is not trimmed away.
func validHTTPURL(raw string) bool {
	if raw != strings.TrimSpace(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func missing(attr string) *ValidationError {
	return &ValidationError{
		Attribute: attr,
		Message:   fmt.Sprintf("missing :%s property", attr),
	}
}

func invalid(inst any, attr, msg string) *ValidationError {
	return &ValidationError{
		Instance:  describe(inst),
		Attribute: attr,
		Message:   msg,
	}
}

func describe(inst any) string {
	if s, ok := inst.(fmt.Stringer); ok {
		return s.String()
	}
	if f, ok := inst.(HasID); ok && f.FeedID() != "" {
		return "feed#" + f.FeedID()
	}
	return fmt.Sprintf("%T", inst)
}

// isNil catches typed nil pointers hidden inside an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
