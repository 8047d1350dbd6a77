package rules

import (
	"regexp"
	"strings"

	"github.com/Gobd/mvel"
	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const creditCardNumberLength = 16

var (
	nonAlphabetic = regexp.MustCompile(`[^[:alpha:]]`)
	nonDigit      = regexp.MustCompile(`\D`)
)

func stringRules() []*mvel.Rule {
	return []*mvel.Rule{
		{
			Name: "length",
			Arguments: []mvel.Argument{
				{Name: "min", Type: mvel.Int},
				{Name: "max", Type: mvel.Int, Optional: true, Default: 0},
			},
			Callback: func(params ...any) (any, error) {
				s, ok := params[0].(string)
				if !ok {
					return false, nil
				}
				lo, hi := int(number(params[1])), int(number(params[2]))
				if s == "" {
					return lo <= 0, nil
				}
				return validation.RuneLength(lo, hi).Validate(s) == nil, nil
			},
			Parameters:  inputAndArgs(2),
			Message:     "${@label} must be between ${@arguments.0} and ${@arguments.1} characters long.",
			Description: "String has at least min and, when max is not 0, at most max characters.",
			Example:     "length:1,255",
		},
		{
			Name:      "regex",
			Arguments: []mvel.Argument{{Name: "pattern", Type: mvel.String}},
			Callback: func(params ...any) (any, error) {
				pattern, _ := params[1].(string)
				re, err := regexp.Compile(pattern)
				if err != nil {
					return nil, err
				}
				s, ok := params[0].(string)
				return ok && validation.Match(re).Validate(s) == nil && (s != "" || re.MatchString("")), nil
			},
			Parameters:  inputAndArgs(1),
			Message:     "${@label} must match the pattern ${@arguments.0}.",
			Description: "String matches the regular expression.",
			Example:     `regex:"^[a-z]+$"`,
		},
		stringRule("email", is.EmailFormat, "${@label} must be a valid email address.", "String is an email address."),
		stringRule("url", is.URL, "${@label} must be a valid URL.", "String is a URL."),
		stringRule("ip", is.IP, "${@label} must be a valid IP address.", "String is an IPv4 or IPv6 address."),
		stringRule("uuid", is.UUID, "${@label} must be a valid UUID.", "String is a UUID."),
		stringRule("alpha", is.Alpha, "${@label} must contain letters only.", "String contains only letters."),
		stringRule("alnum", is.Alphanumeric, "${@label} must contain letters and digits only.", "String contains only letters and digits."),
		{
			Name:      "date",
			Arguments: []mvel.Argument{{Name: "layout", Type: mvel.String, Optional: true, Default: "2006-01-02"}},
			Callback: func(params ...any) (any, error) {
				s, ok := params[0].(string)
				layout, _ := params[1].(string)
				return ok && s != "" && validation.Date(layout).Validate(s) == nil, nil
			},
			Parameters:  inputAndArgs(1),
			Message:     "${@label} must be a date in the format ${@arguments.0}.",
			Description: "String is a date in the given Go time layout.",
			Example:     `date:"2006-01-02"`,
		},
		{
			Name: "credit-card",
			Callback: check(func(v any) bool {
				s, ok := v.(string)
				return ok && govalidator.IsCreditCard(s)
			}),
			Message:     "${@label} must be a valid credit card number.",
			Description: "String is a credit card number passing the Luhn check.",
		},
		{
			Name:        "has-alpha",
			Callback:    check(hasAlpha),
			Message:     "${@label} must contain at least one alphabetic character.",
			Description: "String contains at least one letter.",
		},
		{
			Name:        "card-like",
			Callback:    check(cardLike),
			Message:     "${@label} must not be a credit card number.",
			Description: "String is made of digits and separators only and has 16 digits.",
			Example:     "~card-like",
		},
	}
}

func stringRule(name string, r validation.Rule, message, description string) *mvel.Rule {
	return &mvel.Rule{
		Name: name,
		Callback: check(func(v any) bool {
			s, ok := v.(string)
			return ok && s != "" && r.Validate(s) == nil
		}),
		Message:     message,
		Description: description,
	}
}

func hasAlpha(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return nonAlphabetic.ReplaceAllString(strings.TrimSpace(s), "") != ""
}

func cardLike(v any) bool {
	s, ok := v.(string)
	if !ok || hasAlpha(s) {
		return false
	}
	return len(nonDigit.ReplaceAllString(s, "")) == creditCardNumberLength
}
