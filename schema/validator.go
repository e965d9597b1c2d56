package schema

import (
	"fmt"
	"math"
	"net"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/burugo/modelkit/internal/utils"
)

// FormatFunc checks a string against a named format.
type FormatFunc func(string) bool

// Validator validates attribute sets against a schema.
// It is safe for concurrent use.
type Validator struct {
	mu       sync.RWMutex
	formats  map[string]FormatFunc
	patterns sync.Map // pattern string -> *regexp.Regexp
}

// DefaultValidator is used by models that were not given another interpreter.
var DefaultValidator = NewValidator()

// NewValidator creates a validator with the built-in formats registered.
func NewValidator() *Validator {
	return &Validator{
		formats: map[string]FormatFunc{
			"email":     isEmail,
			"url":       isURL,
			"uri":       isURL,
			"uuid":      isUUID,
			"date-time": isDateTime,
			"date":      isDate,
			"ipv4":      isIPv4,
			"ipv6":      isIPv6,
		},
	}
}

// RegisterFormat adds or replaces a named format.
func (v *Validator) RegisterFormat(name string, fn FormatFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.formats[name] = fn
}

// Validate checks attrs against s and returns the result. Nested fields report dotted names.
func (v *Validator) Validate(s Schema, attrs map[string]any) *Result {
	result := &Result{Valid: true}
	v.validateObject(result, "", s, attrs)
	sortErrors(result.Errors)
	return result
}

func (v *Validator) validateObject(result *Result, prefix string, s Schema, attrs map[string]any) {
	for _, name := range s.Keys() {
		field := s[name]
		if field == nil {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		value, present := attrs[name]
		if !present || value == nil {
			if field.Required {
				result.AddError(path, "required", nil, "is required")
			}
			continue
		}
		v.validateField(result, path, field, value)
	}
}

func (v *Validator) validateField(result *Result, path string, field *Field, value any) {
	if !checkType(field.EffectiveType(), value) {
		result.AddError(path, "type", value, fmt.Sprintf("must be of type %s", field.EffectiveType()))
		return
	}

	if field.IsComposite() {
		if nested, ok := value.(map[string]any); ok {
			v.validateObject(result, path, field.Properties, nested)
		}
	}

	if len(field.Enum) > 0 && !inEnum(field.Enum, value) {
		result.AddError(path, "enum", value, fmt.Sprintf("must be one of %v", field.Enum))
	}

	if s, ok := value.(string); ok {
		v.validateString(result, path, field, s)
	}

	if n, ok := utils.ToFloat(value); ok {
		if field.Minimum != nil && n < *field.Minimum {
			result.AddError(path, "minimum", value, fmt.Sprintf("must be >= %v", *field.Minimum))
		}
		if field.Maximum != nil && n > *field.Maximum {
			result.AddError(path, "maximum", value, fmt.Sprintf("must be <= %v", *field.Maximum))
		}
	}
}

func (v *Validator) validateString(result *Result, path string, field *Field, s string) {
	length := utf8.RuneCountInString(s)
	if field.MinLength != nil && length < *field.MinLength {
		result.AddError(path, "minLength", s, fmt.Sprintf("must be at least %d characters", *field.MinLength))
	}
	if field.MaxLength != nil && length > *field.MaxLength {
		result.AddError(path, "maxLength", s, fmt.Sprintf("must be at most %d characters", *field.MaxLength))
	}

	if field.Pattern != "" {
		re, err := v.pattern(field.Pattern)
		if err != nil {
			result.AddError(path, "pattern", s, fmt.Sprintf("invalid pattern %q: %v", field.Pattern, err))
		} else if !re.MatchString(s) {
			result.AddError(path, "pattern", s, fmt.Sprintf("must match %s", field.Pattern))
		}
	}

	if field.Format != "" {
		v.mu.RLock()
		check, ok := v.formats[field.Format]
		v.mu.RUnlock()
		if !ok {
			result.AddError(path, "format", s, fmt.Sprintf("unknown format %q", field.Format))
		} else if !check(s) {
			result.AddError(path, "format", s, fmt.Sprintf("is not a valid %s", field.Format))
		}
	}
}

func (v *Validator) pattern(p string) (*regexp.Regexp, error) {
	if re, ok := v.patterns.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	v.patterns.Store(p, re)
	return re, nil
}

func checkType(typ string, value any) bool {
	switch typ {
	case TypeAny, "":
		return true
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		_, ok := utils.ToFloat(value)
		return ok
	case TypeInteger:
		n, ok := utils.ToFloat(value)
		return ok && n == math.Trunc(n)
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	case TypeArray:
		kind := reflect.ValueOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	}
	// unknown type tags are not enforced
	return true
}

func inEnum(enum []any, value any) bool {
	for _, candidate := range enum {
		if utils.Equal(candidate, value) {
			return true
		}
	}
	return false
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// reject display-name forms such as "Jane <jane@example.com>"
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func isURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func isIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && strings.Contains(s, ".")
}

func isIPv6(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && strings.Contains(s, ":")
}
