package constraint

import (
	"fmt"
	"sort"
	"strings"
)

// Message keys understood by SetMessage. Templates may use the {placeholders}
// listed next to each key.
const (
	MsgSizeViolated       = "sizeViolated"       // {size} {size_bytes} {mode} {threshold} {threshold_bytes}
	MsgTypeMustEqual      = "typeMustEqual"      // {type} {value}
	MsgTypeNotAllowed     = "typeNotAllowed"     // {type} {value}
	MsgTypeMustContain    = "typeMustContain"    // {type} {value}
	MsgTypeMustNotContain = "typeMustNotContain" // {type} {value}
	MsgFileIsNotImage     = "fileIsNotImage"     // {name}
	MsgFileIsImage        = "fileIsImage"        // {name}
	MsgInvalidFileType    = "invalidFileType"    // {type}
)

var defaultMessages = map[string]string{
	MsgSizeViolated:       "The file size {size} ({size_bytes} bytes) must be {mode} {threshold} ({threshold_bytes} bytes)",
	MsgTypeMustEqual:      `The file type "{type}" must be "{value}"`,
	MsgTypeNotAllowed:     `The file type "{type}" is not allowed`,
	MsgTypeMustContain:    `The file type "{type}" must contain "{value}"`,
	MsgTypeMustNotContain: `The file type "{type}" must not contain "{value}"`,
	MsgFileIsNotImage:     "The uploaded file is not a valid image",
	MsgFileIsImage:        "The uploaded file is an image",
	MsgInvalidFileType:    `Invalid file type "{type}"`,
}

var messageKeys = map[string][]string{
	KindSize:     {MsgSizeViolated},
	KindType:     {MsgTypeMustEqual, MsgTypeNotAllowed, MsgTypeMustContain, MsgTypeMustNotContain},
	KindImage:    {MsgFileIsNotImage, MsgFileIsImage},
	KindMimeType: {MsgInvalidFileType},
}

// MessageSetter is implemented by constraints whose violation messages can be
// replaced.
type MessageSetter interface {
	SetMessage(key, text string) error
}

// MessageKeys lists the keys SetMessage accepts for kind.
func MessageKeys(kind string) []string {
	return append([]string(nil), messageKeys[kind]...)
}

// ApplyMessages sets every template of msgs on c. Keys are applied in lexical
// order and the first unknown key aborts.
func ApplyMessages(c Constraint, msgs map[string]string) error {
	if len(msgs) == 0 {
		return nil
	}
	setter, ok := c.(MessageSetter)
	if !ok {
		return fmt.Errorf("%w: %s messages cannot be customized", ErrUnknownMessage, c.Kind())
	}
	keys := make([]string, 0, len(msgs))
	for k := range msgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := setter.SetMessage(k, msgs[k]); err != nil {
			return err
		}
	}
	return nil
}

// messages holds the overridden templates of one constraint. It survives
// Configure.
type messages map[string]string

func (m *messages) set(kind, key, text string) error {
	known := false
	for _, k := range messageKeys[kind] {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q for %s (known: %s)", ErrUnknownMessage, key, kind, strings.Join(messageKeys[kind], ", "))
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty text for %q", ErrUnknownMessage, key)
	}
	if *m == nil {
		*m = make(messages)
	}
	(*m)[key] = text
	return nil
}

// render fills the template for key. args are placeholder/value pairs.
func (m messages) render(key string, args ...string) string {
	tpl, ok := m[key]
	if !ok {
		tpl = defaultMessages[key]
	}
	return strings.NewReplacer(args...).Replace(tpl)
}
