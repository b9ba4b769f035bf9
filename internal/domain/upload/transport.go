package upload

// Record is what the multipart transport reports for one uploaded part.
type Record struct {
	OriginalName     string
	TempPath         string
	MimeType         string
	DetectedMimeType string
	Size             int64
	ErrorCode        int
}

// Field groups the records that arrived under one form field name. Multi is
// set for array fields ("name[]").
type Field struct {
	Name    string
	Multi   bool
	Records []Record
}

// Filesystem is the storage the coordinator validates directories on and
// moves files with.
type Filesystem interface {
	Exists(path string) bool
	IsDirectory(path string) bool
	IsWritable(path string) bool
	Move(src, dst string) error
}

// Checksummer is implemented by filesystems that can hash persisted files for the journal.
type Checksummer interface {
	Checksum(path string) (string, error)
}
