package constraint

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ImageLevel selects how Image decides whether a file is an image.
type ImageLevel string

const (
	// LevelSimple looks at the extension of the original file name.
	LevelSimple ImageLevel = "simple"
	// LevelAdvanced looks at the sniffed MIME type, falling back to the declared one.
	LevelAdvanced ImageLevel = "advanced"
)

var defaultImageExtensions = []string{"jpeg", "jpg", "png", "gif"}

var imageMimeTypes = map[string]bool{
	"application/cdf":                             true,
	"application/dicom":                           true,
	"application/fractals":                        true,
	"application/postscript":                      true,
	"application/vnd.hp-hpgl":                     true,
	"application/vnd.oasis.opendocument.graphics": true,
	"application/x-cdf":                           true,
	"application/x-cmu-raster":                    true,
	"application/x-ima":                           true,
	"application/x-inventor":                      true,
	"application/x-koan":                          true,
	"application/x-portable-anymap":               true,
	"application/x-world-x-3dmf":                  true,
	"image/avif":                                  true,
	"image/bmp":                                   true,
	"image/c":                                     true,
	"image/cgm":                                   true,
	"image/fif":                                   true,
	"image/gif":                                   true,
	"image/heic":                                  true,
	"image/jpeg":                                  true,
	"image/jpm":                                   true,
	"image/jpx":                                   true,
	"image/jp2":                                   true,
	"image/naplps":                                true,
	"image/pjpeg":                                 true,
	"image/png":                                   true,
	"image/svg":                                   true,
	"image/svg+xml":                               true,
	"image/tiff":                                  true,
	"image/vnd.adobe.photoshop":                   true,
	"image/vnd.djvu":                              true,
	"image/vnd.fpx":                               true,
	"image/vnd.net-fpx":                           true,
	"image/webp":                                  true,
	"image/x-cmu-raster":                          true,
	"image/x-cmx":                                 true,
	"image/x-coreldraw":                           true,
	"image/x-cpi":                                 true,
	"image/x-emf":                                 true,
	"image/x-ico":                                 true,
	"image/x-icon":                                true,
	"image/x-jg":                                  true,
	"image/x-ms-bmp":                              true,
	"image/x-niff":                                true,
	"image/x-pict":                                true,
	"image/x-pcx":                                 true,
	"image/x-png":                                 true,
	"image/x-portable-anymap":                     true,
	"image/x-portable-bitmap":                     true,
	"image/x-portable-greymap":                    true,
	"image/x-portable-pixmap":                     true,
	"image/x-quicktime":                           true,
	"image/x-rgb":                                 true,
	"image/x-tiff":                                true,
	"image/x-unknown":                             true,
	"image/x-windows-bmp":                         true,
	"image/x-xpmi":                                true,
}

// Image requires a file to be (or not to be) an image.
//
// Expression grammar: "is [simple|advanced]" or "is not [simple|advanced]".
// The level defaults to simple.
type Image struct {
	wantImage  bool
	level      ImageLevel
	extra      []string
	configured bool
	messages   messages
}

// NewImage returns an unconfigured image constraint.
func NewImage() Constraint { return &Image{} }

func (c *Image) Kind() string { return KindImage }

func (c *Image) Level() ImageLevel { return c.level }

// AddExtensions extends the list used by the simple level.
func (c *Image) AddExtensions(exts ...string) {
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			c.extra = append(c.extra, ext)
		}
	}
}

func (c *Image) Configure(expression string) error {
	*c = Image{extra: c.extra, messages: c.messages}

	fields := strings.Fields(strings.ToLower(expression))
	if len(fields) == 0 || fields[0] != "is" {
		return fmt.Errorf("%w: image %q, want \"is [not] [simple|advanced]\"", ErrMalformedExpression, expression)
	}
	fields = fields[1:]

	want := true
	if len(fields) > 0 && fields[0] == "not" {
		want = false
		fields = fields[1:]
	}

	level := LevelSimple
	switch {
	case len(fields) == 0:
	case len(fields) == 1 && ImageLevel(fields[0]) == LevelSimple:
	case len(fields) == 1 && ImageLevel(fields[0]) == LevelAdvanced:
		level = LevelAdvanced
	default:
		return fmt.Errorf("%w: image %q, want \"is [not] [simple|advanced]\"", ErrMalformedExpression, expression)
	}

	c.wantImage = want
	c.level = level
	c.configured = true
	return nil
}

func (c *Image) Evaluate(s Subject) (bool, []string) {
	if !c.configured {
		return false, notConfigured(KindImage)
	}

	isImage := c.isImage(s)
	switch {
	case c.wantImage && !isImage:
		return false, []string{c.messages.render(MsgFileIsNotImage, "{name}", s.OriginalName())}
	case !c.wantImage && isImage:
		return false, []string{c.messages.render(MsgFileIsImage, "{name}", s.OriginalName())}
	}
	return true, nil
}

// SetMessage replaces the MsgFileIsNotImage or MsgFileIsImage template.
func (c *Image) SetMessage(key, text string) error {
	return c.messages.set(KindImage, key, text)
}

func (c *Image) isImage(s Subject) bool {
	if c.level == LevelAdvanced {
		mime := s.DetectedMimeType()
		if mime == "" {
			mime = s.MimeType()
		}
		return imageMimeTypes[strings.ToLower(mime)]
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(s.OriginalName()), "."))
	for _, e := range defaultImageExtensions {
		if e == ext {
			return true
		}
	}
	for _, e := range c.extra {
		if e == ext {
			return true
		}
	}
	return false
}

func (c *Image) String() string {
	if !c.configured {
		return KindImage + ": <unconfigured>"
	}
	if c.wantImage {
		return fmt.Sprintf("%s: is %s", KindImage, c.level)
	}
	return fmt.Sprintf("%s: is not %s", KindImage, c.level)
}
