package constraint

type subject struct {
	name     string
	mime     string
	detected string
	size     int64
}

func (s subject) OriginalName() string     { return s.name }
func (s subject) MimeType() string         { return s.mime }
func (s subject) DetectedMimeType() string { return s.detected }
func (s subject) Size() int64              { return s.size }
