package constraint

import (
	"fmt"
	"regexp"
	"strings"
)

var typeExpression = regexp.MustCompile(`^(!=|!~|=|~)\s+(\S.*)$`)

// Type matches the declared MIME type of a file against a list of values.
//
//	=   the MIME type equals every value
//	!=  the MIME type equals none of the values
//	~   the MIME type contains every value
//	!~  the MIME type contains none of the values
//
// "=" with more than one distinct value can never hold; it is kept as literal
// equality against each value.
type Type struct {
	mode       Operator
	values     []string
	configured bool
	messages   messages
}

// NewType returns an unconfigured type constraint.
func NewType() Constraint { return &Type{} }

// NewTypeConstraint returns a type constraint configured with mode and values.
func NewTypeConstraint(mode Operator, values ...string) (*Type, error) {
	c := &Type{}
	if err := c.set(mode, values); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Type) Kind() string { return KindType }

func (c *Type) Mode() Operator { return c.mode }

func (c *Type) Values() []string {
	return append([]string(nil), c.values...)
}

// Configure accepts "<op> <value> [<value> ...]" where op is one of = != ~ !~.
func (c *Type) Configure(expression string) error {
	*c = Type{messages: c.messages}

	m := typeExpression.FindStringSubmatch(strings.TrimSpace(expression))
	if m == nil {
		return fmt.Errorf("%w: type %q, want \"<op> <value> [<value> ...]\"", ErrMalformedExpression, expression)
	}
	return c.set(Operator(m[1]), strings.Fields(m[2]))
}

func (c *Type) set(mode Operator, values []string) error {
	switch mode {
	case Equal, NotEqual, Contains, NotContains:
	default:
		return fmt.Errorf("%w: %q is not a type mode", ErrInvalidMode, mode)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: type constraint needs at least one value", ErrMalformedExpression)
	}
	c.mode = mode
	c.values = append([]string(nil), values...)
	c.configured = true
	return nil
}

func (c *Type) Evaluate(s Subject) (bool, []string) {
	if !c.configured {
		return false, notConfigured(KindType)
	}

	mime := s.MimeType()
	for _, v := range c.values {
		switch c.mode {
		case Equal:
			if mime != v {
				return false, []string{c.messages.render(MsgTypeMustEqual, "{type}", mime, "{value}", v)}
			}
		case NotEqual:
			if mime == v {
				return false, []string{c.messages.render(MsgTypeNotAllowed, "{type}", mime, "{value}", v)}
			}
		case Contains:
			if !strings.Contains(mime, v) {
				return false, []string{c.messages.render(MsgTypeMustContain, "{type}", mime, "{value}", v)}
			}
		case NotContains:
			if strings.Contains(mime, v) {
				return false, []string{c.messages.render(MsgTypeMustNotContain, "{type}", mime, "{value}", v)}
			}
		}
	}
	return true, nil
}

func (c *Type) SetMessage(key, text string) error {
	return c.messages.set(KindType, key, text)
}

func (c *Type) String() string {
	if !c.configured {
		return KindType + ": <unconfigured>"
	}
	return fmt.Sprintf("%s: %s %s", KindType, c.mode, strings.Join(c.values, " "))
}
