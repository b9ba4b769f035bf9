package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fileupload/internal/pkg/bytesize"
)

var sizeExpression = regexp.MustCompile(`^(<=|>=|<|=|>)\s+(\S.*)$`)

var sizeModes = map[Operator]string{
	Less:         "less than",
	Equal:        "exactly",
	Greater:      "greater than",
	LessEqual:    "at most",
	GreaterEqual: "at least",
}

// Size compares the declared size of a file with a byte threshold.
type Size struct {
	mode       Operator
	threshold  int64
	configured bool
	messages   messages
}

// NewSize returns an unconfigured size constraint.
func NewSize() Constraint { return &Size{} }

// NewSizeConstraint returns a size constraint configured with mode and threshold.
func NewSizeConstraint(mode Operator, threshold int64) (*Size, error) {
	c := &Size{}
	if err := c.set(mode, threshold); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Size) Kind() string { return KindSize }

func (c *Size) Mode() Operator   { return c.mode }
func (c *Size) Threshold() int64 { return c.threshold }

// Configure accepts "<op> <bytes>" where op is one of < = > <= >=.
// The threshold may carry a unit ("2M", "512 KiB").
func (c *Size) Configure(expression string) error {
	*c = Size{messages: c.messages}

	m := sizeExpression.FindStringSubmatch(strings.TrimSpace(expression))
	if m == nil {
		return fmt.Errorf("%w: size %q, want \"<op> <bytes>\"", ErrMalformedExpression, expression)
	}
	threshold, err := bytesize.Parse(m[2])
	if err != nil {
		return fmt.Errorf("%w: size %q: %v", ErrMalformedExpression, expression, err)
	}
	return c.set(Operator(m[1]), threshold)
}

func (c *Size) set(mode Operator, threshold int64) error {
	if _, ok := sizeModes[mode]; !ok {
		return fmt.Errorf("%w: %q is not a size mode", ErrInvalidMode, mode)
	}
	if threshold < 0 {
		return fmt.Errorf("%w: size threshold %d is negative", ErrMalformedExpression, threshold)
	}
	c.mode = mode
	c.threshold = threshold
	c.configured = true
	return nil
}

func (c *Size) Evaluate(s Subject) (bool, []string) {
	if !c.configured {
		return false, notConfigured(KindSize)
	}

	size := s.Size()
	var holds bool
	switch c.mode {
	case Less:
		holds = size < c.threshold
	case Equal:
		holds = size == c.threshold
	case Greater:
		holds = size > c.threshold
	case LessEqual:
		holds = size <= c.threshold
	case GreaterEqual:
		holds = size >= c.threshold
	}
	if holds {
		return true, nil
	}
	return false, []string{c.messages.render(MsgSizeViolated,
		"{size}", bytesize.Format(size),
		"{size_bytes}", strconv.FormatInt(size, 10),
		"{mode}", sizeModes[c.mode],
		"{threshold}", bytesize.Format(c.threshold),
		"{threshold_bytes}", strconv.FormatInt(c.threshold, 10),
	)}
}

// SetMessage replaces the violation template; see MsgSizeViolated.
func (c *Size) SetMessage(key, text string) error {
	return c.messages.set(KindSize, key, text)
}

func (c *Size) String() string {
	if !c.configured {
		return KindSize + ": <unconfigured>"
	}
	return fmt.Sprintf("%s: %s %d", KindSize, c.mode, c.threshold)
}
