// Package constraint holds the declarative rules an uploaded file must satisfy
// before it is persisted.
//
// A rule is configured from a compact expression such as "< 2048" or
// "~ image" and evaluated against a Subject. Evaluation returns its violation
// messages instead of keeping them on the rule, so one configured rule can be
// shared by every file of a batch (and across goroutines).
package constraint

// Subject is the read-only view of an uploaded file that rules evaluate.
type Subject interface {
	OriginalName() string
	MimeType() string
	DetectedMimeType() string
	Size() int64
}

// Constraint is a configured predicate over a Subject.
type Constraint interface {
	Kind() string
	// Configure parses expression. On error the constraint is left unconfigured
	// and every later Evaluate denies.
	Configure(expression string) error
	// Evaluate reports whether s satisfies the rule and, if not, why.
	Evaluate(s Subject) (bool, []string)
}

// Operator is the comparison mode of an expression.
type Operator string

const (
	Less         Operator = "<"
	Equal        Operator = "="
	Greater      Operator = ">"
	LessEqual    Operator = "<="
	GreaterEqual Operator = ">="
	NotEqual     Operator = "!="
	Contains     Operator = "~"
	NotContains  Operator = "!~"
)

const (
	KindSize     = "size"
	KindType     = "type"
	KindImage    = "image"
	KindMimeType = "mimetype"
)

func notConfigured(kind string) []string {
	return []string{"The " + kind + " constraint is not configured"}
}
