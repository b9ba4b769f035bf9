package constraint

import (
	"fmt"
	"strings"
)

// MimeType holds when the declared MIME type is one of a fixed list.
// Expression: "<mime> [<mime> ...]".
type MimeType struct {
	types      []string
	configured bool
	messages   messages
}

// NewMimeType returns an unconfigured MIME list constraint.
func NewMimeType() Constraint { return &MimeType{} }

func (c *MimeType) Kind() string { return KindMimeType }

func (c *MimeType) Types() []string {
	return append([]string(nil), c.types...)
}

func (c *MimeType) Configure(expression string) error {
	*c = MimeType{messages: c.messages}

	types := strings.Fields(expression)
	if len(types) == 0 {
		return fmt.Errorf("%w: mimetype needs at least one type", ErrMalformedExpression)
	}
	for _, t := range types {
		if !strings.Contains(t, "/") {
			return fmt.Errorf("%w: mimetype %q is not a MIME type", ErrMalformedExpression, t)
		}
	}
	c.types = types
	c.configured = true
	return nil
}

func (c *MimeType) Evaluate(s Subject) (bool, []string) {
	if !c.configured {
		return false, notConfigured(KindMimeType)
	}
	mime := s.MimeType()
	for _, t := range c.types {
		if strings.EqualFold(t, mime) {
			return true, nil
		}
	}
	return false, []string{c.messages.render(MsgInvalidFileType, "{type}", mime)}
}

func (c *MimeType) SetMessage(key, text string) error {
	return c.messages.set(KindMimeType, key, text)
}

func (c *MimeType) String() string {
	if !c.configured {
		return KindMimeType + ": <unconfigured>"
	}
	return fmt.Sprintf("%s: %s", KindMimeType, strings.Join(c.types, " "))
}
