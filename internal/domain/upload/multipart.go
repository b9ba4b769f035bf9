package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// MaxFileSizeField is the form value browsers send to cap the size of every
// file in the form.
const MaxFileSizeField = "MAX_FILE_SIZE"

// SpoolOptions controls how multipart parts are spooled to temporary storage.
type SpoolOptions struct {
	TmpDir      string
	MaxFileSize int64 // 0 means unlimited
}

// FieldsFromMultipart spools every file part of form into opts.TmpDir and
// returns one Field per form field in name order. "name[]" fields are reported
// as multi-file fields named "name". Parts that cannot be spooled are returned
// with the matching transport error instead of failing the whole form; empty
// parts count as "no file".
func FieldsFromMultipart(fs afero.Fs, form *multipart.Form, opts SpoolOptions) ([]Field, error) {
	if form == nil {
		return nil, ErrNoFiles
	}

	formLimit, err := formMaxFileSize(form)
	if err != nil {
		return nil, err
	}
	tmpOK, _ := afero.IsDir(fs, opts.TmpDir)

	keys := make([]string, 0, len(form.File))
	for k := range form.File {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byName := make(map[string]*Field, len(keys))
	var fields []*Field
	for _, key := range keys {
		name, multi := strings.TrimSuffix(key, "[]"), strings.HasSuffix(key, "[]")
		field, ok := byName[name]
		if !ok {
			field = &Field{Name: name}
			byName[name] = field
			fields = append(fields, field)
		}
		field.Multi = field.Multi || multi

		for _, header := range form.File[key] {
			field.Records = append(field.Records, spool(fs, header, tmpOK, formLimit, opts))
		}
	}

	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, *f)
	}
	return out, nil
}

func spool(fs afero.Fs, header *multipart.FileHeader, tmpOK bool, formLimit int64, opts SpoolOptions) Record {
	rec := Record{
		OriginalName: filepath.Base(header.Filename),
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	}
	switch {
	case header.Size == 0:
		rec.ErrorCode = int(TransportNoFile)
		return rec
	case opts.MaxFileSize > 0 && header.Size > opts.MaxFileSize:
		rec.ErrorCode = int(TransportIniSize)
		return rec
	case formLimit > 0 && header.Size > formLimit:
		rec.ErrorCode = int(TransportFormSize)
		return rec
	case !tmpOK:
		rec.ErrorCode = int(TransportNoTmpDir)
		return rec
	}

	src, err := header.Open()
	if err != nil {
		rec.ErrorCode = int(TransportCantWrite)
		return rec
	}
	defer src.Close()

	if mt, err := mimetype.DetectReader(src); err == nil {
		rec.DetectedMimeType = strings.Split(mt.String(), ";")[0]
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		rec.ErrorCode = int(TransportCantWrite)
		return rec
	}

	path := filepath.Join(opts.TmpDir, uuid.New().String())
	n, err := writeFile(fs, path, src)
	switch {
	case err != nil:
		_ = fs.Remove(path)
		rec.ErrorCode = int(TransportCantWrite)
	case n < header.Size:
		_ = fs.Remove(path)
		rec.ErrorCode = int(TransportPartial)
	default:
		rec.TempPath = path
	}
	return rec
}

func writeFile(fs afero.Fs, path string, r io.Reader) (int64, error) {
	dst, err := fs.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func formMaxFileSize(form *multipart.Form) (int64, error) {
	values := form.Value[MaxFileSizeField]
	if len(values) == 0 || values[0] == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidValue, MaxFileSizeField)
	}
	return n, nil
}

// CleanupSpooled removes the temporary files of every file that was not
// persisted.
func CleanupSpooled(fs afero.Fs, files []*File) error {
	var errs []error
	for _, f := range files {
		if f.IsPersisted() || f.StorageHandle() == "" {
			continue
		}
		if err := fs.Remove(f.StorageHandle()); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
