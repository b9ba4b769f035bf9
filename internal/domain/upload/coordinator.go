package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"fileupload/internal/domain/constraint"
	"fileupload/internal/metrics"
	"fileupload/internal/pkg/bytesize"
	"fileupload/internal/pkg/logging"
)

// ConstraintEntry is one item of a coordinator's constraint configuration:
// either an alias with an expression resolved through the registry, or a
// ready Constraint.
type ConstraintEntry struct {
	Alias      string
	Expression string
	// Messages overrides violation templates of a registry-built rule, keyed
	// by the constraint.Msg* constants.
	Messages   map[string]string
	Constraint constraint.Constraint
}

// Rule is an entry resolved through the registry, e.g. Rule("size", "< 2M").
func Rule(alias, expression string) ConstraintEntry {
	return ConstraintEntry{Alias: alias, Expression: expression}
}

// WithMessages returns a copy of e whose built rule uses msgs as violation
// templates.
func (e ConstraintEntry) WithMessages(msgs map[string]string) ConstraintEntry {
	e.Messages = msgs
	return e
}

// Use wraps an already configured constraint.
func Use(c constraint.Constraint) ConstraintEntry {
	return ConstraintEntry{Constraint: c}
}

// NamingFunc is called for every file by SaveAll before it is saved. It may
// call SetName on the file and may return a directory override ("" for the
// default directory).
type NamingFunc func(f *File) string

// ErrorHandler receives one report per failed file.
type ErrorHandler func(e *Error)

// SavedHandler is called after a file is persisted.
type SavedHandler func(f *File)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRegistry replaces the default registry (size and type) used for Rule entries.
func WithRegistry(r *constraint.Registry) Option {
	return func(c *Coordinator) { c.registry = r }
}

// WithAllowedFields drops every form field not listed.
func WithAllowedFields(fields ...string) Option {
	return func(c *Coordinator) {
		c.allowed = make(map[string]bool, len(fields))
		for _, f := range fields {
			c.allowed[f] = true
		}
	}
}

// WithJournal records every persisted file.
func WithJournal(repo Repository) Option {
	return func(c *Coordinator) { c.journal = repo }
}

// WithUploadedBy sets the user id written to journal entries.
func WithUploadedBy(userID int64) Option {
	return func(c *Coordinator) { c.uploadedBy = userID }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// Coordinator validates and persists the files of one upload request. It is
// not safe for concurrent use.
type Coordinator struct {
	fs          Filesystem
	dir         string
	registry    *constraint.Registry
	constraints []constraint.Constraint
	files       []*File
	multi       bool

	allowed    map[string]bool
	journal    Repository
	uploadedBy int64
	logger     *log.Logger

	onError []ErrorHandler
	onSaved []SavedHandler
}

// NewCoordinator builds the file collection from fields and resolves the
// constraint entries. Bad records fail with ErrInvalidValue, bad entries with
// constraint.ErrMalformedExpression or constraint.ErrInvalidConstraintType.
// The default directory is checked when files are saved, not here.
func NewCoordinator(fs Filesystem, dir string, fields []Field, entries []ConstraintEntry, opts ...Option) (*Coordinator, error) {
	if fs == nil {
		return nil, fmt.Errorf("%w: filesystem is required", ErrInvalidValue)
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: upload directory is required", ErrInvalidValue)
	}

	c := &Coordinator{fs: fs, dir: dir}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = constraint.NewRegistry()
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}

	for _, field := range fields {
		if c.allowed != nil && !c.allowed[field.Name] {
			c.logger.Debug("ignoring field", "field", field.Name)
			continue
		}
		if field.Multi || len(field.Records) > 1 {
			c.multi = true
		}
		for _, rec := range field.Records {
			f, err := NewFile(field.Name, rec)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field.Name, err)
			}
			c.files = append(c.files, f)
		}
	}

	if err := c.AddConstraints(entries...); err != nil {
		return nil, err
	}

	if err := c.checkDirectory(dir); err != nil {
		c.logger.Warn("upload directory not usable yet", "dir", dir, "error", err)
	}
	return c, nil
}

func (c *Coordinator) Registry() *constraint.Registry { return c.registry }

func (c *Coordinator) IsMultiFileUpload() bool { return c.multi }

// Files returns every file in transport order.
func (c *Coordinator) Files() []*File {
	return append([]*File(nil), c.files...)
}

func (c *Coordinator) HasFiles() bool { return len(c.files) > 0 }

// File returns the single file of a field. It fails with
// ErrAmbiguousFieldAccess on multi-file uploads.
func (c *Coordinator) File(field string) (*File, error) {
	if c.multi {
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousFieldAccess, field)
	}
	for _, f := range c.files {
		if f.fieldName == field {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrFileNotFound, field)
}

// FilesOf returns every file submitted under field, in transport order.
func (c *Coordinator) FilesOf(field string) []*File {
	var out []*File
	for _, f := range c.files {
		if f.fieldName == field {
			out = append(out, f)
		}
	}
	return out
}

func (c *Coordinator) UploadedFiles() []*File {
	var out []*File
	for _, f := range c.files {
		if f.IsPersisted() {
			out = append(out, f)
		}
	}
	return out
}

// NotUploadedFiles returns the files that are not persisted, including
// files not saved yet.
func (c *Coordinator) NotUploadedFiles() []*File {
	var out []*File
	for _, f := range c.files {
		if !f.IsPersisted() {
			out = append(out, f)
		}
	}
	return out
}

// AggregatedSize sums the declared sizes of all files.
func (c *Coordinator) AggregatedSize() int64 {
	var total int64
	for _, f := range c.files {
		total += f.size
	}
	return total
}

func (c *Coordinator) ReadableAggregatedSize() string {
	return bytesize.Format(c.AggregatedSize())
}

func (c *Coordinator) Constraints() []constraint.Constraint {
	return append([]constraint.Constraint(nil), c.constraints...)
}

func (c *Coordinator) HasConstraints() bool { return len(c.constraints) > 0 }

// AddConstraint appends a configured constraint. Constraints are evaluated in
// the order they were added.
func (c *Coordinator) AddConstraint(con constraint.Constraint) error {
	if con == nil {
		return fmt.Errorf("%w: nil constraint", constraint.ErrInvalidConstraintType)
	}
	c.constraints = append(c.constraints, con)
	return nil
}

// AddConstraints resolves and appends entries. Nothing is added when any
// entry fails.
func (c *Coordinator) AddConstraints(entries ...ConstraintEntry) error {
	resolved := make([]constraint.Constraint, 0, len(entries))
	for _, e := range entries {
		if e.Constraint != nil {
			resolved = append(resolved, e.Constraint)
			continue
		}
		con, err := c.registry.Build(e.Alias, e.Expression)
		if err != nil {
			return err
		}
		if err := constraint.ApplyMessages(con, e.Messages); err != nil {
			return err
		}
		resolved = append(resolved, con)
	}
	c.constraints = append(c.constraints, resolved...)
	return nil
}

func (c *Coordinator) RemoveAllConstraints() {
	c.constraints = nil
}

func (c *Coordinator) UploadDirectory() string { return c.dir }

// SetUploadDirectory changes the default directory after validating it.
func (c *Coordinator) SetUploadDirectory(dir string) error {
	if err := c.checkDirectory(dir); err != nil {
		return err
	}
	c.dir = dir
	return nil
}

func (c *Coordinator) OnError(h ErrorHandler) {
	if h != nil {
		c.onError = append(c.onError, h)
	}
}

func (c *Coordinator) OnSaved(h SavedHandler) {
	if h != nil {
		c.onSaved = append(c.onSaved, h)
	}
}

// SaveAll saves every file in transport order and reports whether all of them
// were persisted. A failed file does not stop the batch.
func (c *Coordinator) SaveAll(ctx context.Context, namer NamingFunc) bool {
	ok := true
	for _, f := range c.files {
		dir := ""
		if namer != nil {
			dir = namer(f)
		}
		if err := c.SaveFile(ctx, f, dir); err != nil {
			ok = false
		}
	}
	return ok
}

// SaveFile runs the save workflow for one file: transport status, target
// directory, constraints, then the move. dir overrides the default directory
// for this file only. Failures are returned as *Error and passed to the error
// handlers. Saving a persisted file again is a no-op; saving a failed file
// returns its recorded error without notifying the handlers again.
func (c *Coordinator) SaveFile(ctx context.Context, f *File, dir string) error {
	switch {
	case f == nil:
		return fmt.Errorf("%w: nil file", ErrInvalidValue)
	case f.state == StatePersisted:
		return nil
	case f.state.Failed():
		return f.err
	}

	if f.transportErr != TransportOK {
		return c.fail(f, StateTransportFailed, &Error{
			Kind:     ErrorTransport,
			Messages: []string{f.TransportMessage()},
		})
	}

	target := c.dir
	if dir != "" {
		target = dir
	}
	if err := c.checkDirectory(target); err != nil {
		return c.fail(f, StateDirectoryInvalid, &Error{
			Kind:     ErrorFilesystem,
			Messages: []string{directoryMessage(err)},
			Err:      err,
		})
	}

	for _, con := range c.constraints {
		ok, messages := con.Evaluate(f)
		if ok {
			continue
		}
		f.violated = []constraint.Constraint{con}
		return c.fail(f, StateConstraintRejected, &Error{
			Kind:       ErrorConstraint,
			Messages:   messages,
			Constraint: con,
		})
	}

	if f.name == "" {
		f.name = filepath.Base(f.storageHandle)
	}
	dst := filepath.Join(target, f.name)
	if err := c.fs.Move(f.storageHandle, dst); err != nil {
		return c.fail(f, StatePersistFailed, &Error{
			Kind:     ErrorFilesystem,
			Messages: []string{fmt.Sprintf("Could not move file %q to new location", f.originalName)},
			Err:      fmt.Errorf("%w: %w", ErrMoveFailed, err),
		})
	}

	f.persistedPath = dst
	if err := f.moveTo(StatePersisted); err != nil {
		return err
	}
	metrics.FilesTotal.WithLabelValues(metrics.OutcomePersisted).Inc()
	metrics.BytesPersisted.Add(float64(f.size))
	c.logger.Info("file persisted", "field", f.fieldName, "path", dst, "size", bytesize.Format(f.size))

	c.record(ctx, f)
	for _, h := range c.onSaved {
		h(f)
	}
	return nil
}

func (c *Coordinator) fail(f *File, to State, e *Error) error {
	if err := f.moveTo(to); err != nil {
		return err
	}
	e.File = f
	f.err = e

	switch to {
	case StateTransportFailed:
		metrics.FilesTotal.WithLabelValues(metrics.OutcomeTransport).Inc()
	case StateDirectoryInvalid:
		metrics.FilesTotal.WithLabelValues(metrics.OutcomeDirectory).Inc()
	case StateConstraintRejected:
		metrics.FilesTotal.WithLabelValues(metrics.OutcomeConstraint).Inc()
		metrics.ConstraintViolationsTotal.WithLabelValues(e.Constraint.Kind()).Inc()
	case StatePersistFailed:
		metrics.FilesTotal.WithLabelValues(metrics.OutcomePersistFail).Inc()
	}
	c.logger.Warn("file not persisted", "field", f.fieldName, "state", to, "error", e)

	for _, h := range c.onError {
		h(e)
	}
	return e
}

func (c *Coordinator) checkDirectory(dir string) error {
	switch {
	case !c.fs.Exists(dir):
		return fmt.Errorf("%w: %s", ErrDirectoryNotExist, dir)
	case !c.fs.IsDirectory(dir):
		return fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	case !c.fs.IsWritable(dir):
		return fmt.Errorf("%w: %s", ErrDirectoryNotWritable, dir)
	}
	return nil
}

// record writes the journal entry for a persisted file. Journal failures are
// logged; the file stays persisted.
func (c *Coordinator) record(ctx context.Context, f *File) {
	if c.journal == nil {
		return
	}
	checksum := ""
	if cs, ok := c.fs.(Checksummer); ok {
		sum, err := cs.Checksum(f.persistedPath)
		if err != nil {
			c.logger.Warn("checksum failed", "path", f.persistedPath, "error", err)
		}
		checksum = sum
	}
	if err := c.journal.Create(ctx, NewUploadEntry(f, c.uploadedBy, checksum)); err != nil {
		c.logger.Error("journal write failed", "path", f.persistedPath, "error", err)
	}
}

func directoryMessage(err error) string {
	switch {
	case errors.Is(err, ErrDirectoryNotExist):
		return "The given upload directory does not exist"
	case errors.Is(err, ErrNotADirectory):
		return "The given upload directory is not a directory"
	default:
		return "The given upload directory is not writable"
	}
}
