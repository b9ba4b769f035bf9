package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"fileupload/internal/domain/constraint"
)

// TransportError is the status the multipart transport reported for one file.
// The numeric values follow the platform convention (there is no 5).
type TransportError int

const (
	TransportOK        TransportError = 0
	TransportIniSize   TransportError = 1
	TransportFormSize  TransportError = 2
	TransportPartial   TransportError = 3
	TransportNoFile    TransportError = 4
	TransportNoTmpDir  TransportError = 6
	TransportCantWrite TransportError = 7
	TransportExtension TransportError = 8
)

var transportErrors = map[TransportError]struct{ name, message string }{
	TransportOK:        {"OK", "The file was successfully uploaded"},
	TransportIniSize:   {"SIZE_EXCEEDED_SERVER", "The size exceeds the server upload limit"},
	TransportFormSize:  {"SIZE_EXCEEDED_FORM", "The size exceeds MAX_FILE_SIZE set in the HTML form"},
	TransportPartial:   {"PARTIAL", "The file was only partially uploaded"},
	TransportNoFile:    {"NO_FILE", "No file was uploaded"},
	TransportNoTmpDir:  {"NO_TEMP_DIR", "No temporary directory was set"},
	TransportCantWrite: {"CANT_WRITE", "Could not write to disk"},
	TransportExtension: {"EXTENSION_BLOCKED", "File upload stopped due to extension"},
}

// ParseTransportError validates a platform error code.
func ParseTransportError(code int) (TransportError, error) {
	e := TransportError(code)
	if _, ok := transportErrors[e]; !ok {
		return 0, fmt.Errorf("%w: the error code %d is not valid", ErrInvalidValue, code)
	}
	return e, nil
}

func (e TransportError) String() string {
	if t, ok := transportErrors[e]; ok {
		return t.name
	}
	return fmt.Sprintf("TransportError(%d)", int(e))
}

// Message is the human readable description of the code.
func (e TransportError) Message() string {
	return transportErrors[e].message
}

// File is one uploaded item and its lifecycle state. It is owned by the
// Coordinator that parsed it.
type File struct {
	fieldName        string
	originalName     string
	storageHandle    string
	mimeType         string
	detectedMimeType string
	size             int64
	transportErr     TransportError

	name          string
	persistedPath string
	state         State
	violated      []constraint.Constraint
	err           *Error
}

var _ constraint.Subject = (*File)(nil)

// NewFile builds a File in StateReceived from a transport record.
func NewFile(fieldName string, rec Record) (*File, error) {
	f := &File{
		fieldName:        fieldName,
		originalName:     rec.OriginalName,
		storageHandle:    rec.TempPath,
		mimeType:         rec.MimeType,
		detectedMimeType: rec.DetectedMimeType,
		state:            StateReceived,
	}
	if err := f.SetDeclaredSize(rec.Size); err != nil {
		return nil, err
	}
	if err := f.SetTransportError(rec.ErrorCode); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) FieldName() string              { return f.fieldName }
func (f *File) OriginalName() string           { return f.originalName }
func (f *File) StorageHandle() string          { return f.storageHandle }
func (f *File) MimeType() string               { return f.mimeType }
func (f *File) DetectedMimeType() string       { return f.detectedMimeType }
func (f *File) Size() int64                    { return f.size }
func (f *File) TransportError() TransportError { return f.transportErr }
func (f *File) Name() string                   { return f.name }
func (f *File) PersistedPath() string          { return f.persistedPath }
func (f *File) IsPersisted() bool              { return f.state == StatePersisted }
func (f *File) State() State                   { return f.state }
func (f *File) Err() *Error                    { return f.err }
func (f *File) TransportMessage() string       { return f.transportErr.Message() }
func (f *File) ViolatedConstraints() []constraint.Constraint {
	return append([]constraint.Constraint(nil), f.violated...)
}

// SetName assigns the name the file is stored under. Path separators are not
// allowed; the target directory is chosen separately.
func (f *File) SetName(name string) error {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: file name %q must not contain a path", ErrInvalidValue, name)
	}
	f.name = name
	return nil
}

// SetDeclaredSize fails with ErrInvalidValue for negative sizes.
func (f *File) SetDeclaredSize(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: the size %d is not valid", ErrInvalidValue, n)
	}
	f.size = n
	return nil
}

// SetTransportError fails with ErrInvalidValue unless code is one of the eight platform codes.
func (f *File) SetTransportError(code int) error {
	e, err := ParseTransportError(code)
	if err != nil {
		return err
	}
	f.transportErr = e
	return nil
}

// Extension returns the extension of the assigned name without the dot.
func (f *File) Extension() string {
	return strings.TrimPrefix(filepath.Ext(f.name), ".")
}

func (f *File) moveTo(to State) error {
	if !f.state.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, to)
	}
	f.state = to
	return nil
}
