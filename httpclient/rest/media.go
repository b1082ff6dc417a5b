package rest

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// MediaKind is the semantic kind of an uploaded file. It decides the MIME
// type of the part.
type MediaKind int

const (
	MediaImage MediaKind = iota
	MediaVideo
	MediaDocument
)

// String returns the kind name.
func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "Image"
	case MediaVideo:
		return "Video"
	case MediaDocument:
		return "Document"
	default:
		return fmt.Sprintf("MediaKind(%d)", int(k))
	}
}

// MediaField is a binary attachment of a multipart upload.
type MediaField struct {
	Data     []byte
	Kind     MediaKind
	Filename string
}

// NewMediaField creates a media field. An empty filename is replaced by a
// generated one whose extension is sniffed from data.
func NewMediaField(data []byte, kind MediaKind, filename string) MediaField {
	if filename == "" {
		_, ext := DetectMedia(data)
		filename = GenerateFileName(ext)
	}
	return MediaField{Data: data, Kind: kind, Filename: filename}
}

// MIMEType returns the content type sent for the part.
func (m MediaField) MIMEType() string {
	switch m.Kind {
	case MediaImage:
		return "image/jpg"
	case MediaVideo:
		return "video/mp4"
	default:
		if strings.EqualFold(fileExt(m.Filename), "pdf") {
			return "application/pdf"
		}
		return "application/msword"
	}
}

var (
	imageExts = []string{"jpg", "jpeg", "png", "gif"}
	videoExts = []string{"mp4", "m4a", "m4v", "f4v", "f4a", "m4b", "m4r", "f4b", "mov", "wmv", "wma", "avi"}
)

// IsImageFile reports whether name has an image extension.
func IsImageFile(name string) bool {
	return slices.Contains(imageExts, strings.ToLower(fileExt(name)))
}

// IsVideoFile reports whether name has a video extension.
func IsVideoFile(name string) bool {
	return slices.Contains(videoExts, strings.ToLower(fileExt(name)))
}

// KindFromFilename guesses the media kind from the file extension.
// Anything that is neither an image nor a video is a document.
func KindFromFilename(name string) MediaKind {
	switch {
	case IsImageFile(name):
		return MediaImage
	case IsVideoFile(name):
		return MediaVideo
	default:
		return MediaDocument
	}
}

// DetectMedia sniffs data and returns its kind and extension without the
// leading dot. Unrecognized content is a document with a "bin" extension.
func DetectMedia(data []byte) (MediaKind, string) {
	mt := mimetype.Detect(data)
	ext := strings.TrimPrefix(mt.Extension(), ".")
	if ext == "" {
		ext = "bin"
	}

	switch {
	case strings.HasPrefix(mt.String(), "image/"):
		return MediaImage, ext
	case strings.HasPrefix(mt.String(), "video/"):
		return MediaVideo, ext
	default:
		return MediaDocument, ext
	}
}

// now is swapped in tests.
var now = time.Now

// GenerateFileName returns "media_<unix seconds>.<ext>".
func GenerateFileName(ext string) string {
	return fmt.Sprintf("media_%d.%s", now().Unix(), ext)
}

func fileExt(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}
