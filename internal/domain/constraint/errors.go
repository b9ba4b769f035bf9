package constraint

import "errors"

var (
	ErrMalformedExpression   = errors.New("malformed constraint expression")
	ErrInvalidConstraintType = errors.New("invalid constraint type")
	ErrInvalidMode           = errors.New("invalid constraint mode")
	ErrUnknownMessage        = errors.New("unknown constraint message")
)
