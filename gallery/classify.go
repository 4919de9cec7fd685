package gallery

import (
	"path"
	"strings"

	"fotomu/models"
)

var videoExtensions = map[string]bool{
	"mp4": true, "webm": true, "ogg": true, "ogv": true, "mov": true,
	"avi": true, "mkv": true, "flv": true, "wmv": true, "m4v": true,
	"mpeg": true, "mpg": true, "3gp": true,
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
	"svg": true, "bmp": true, "tiff": true, "tif": true, "avif": true,
	"heic": true,
}

// Classify returns the semantic type of a file. Extension evidence wins over
// the provider's reported type, which is only used when the extension is
// unknown.
func Classify(filename, reportedType string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	switch {
	case videoExtensions[ext]:
		return models.TypeVideo
	case imageExtensions[ext]:
		return models.TypeImage
	case reportedType == "":
		return models.TypeOther
	default:
		return reportedType
	}
}

// TypeFromContentType maps an upload's MIME type to image, video or other.
func TypeFromContentType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.TypeImage
	case strings.HasPrefix(contentType, "video/"):
		return models.TypeVideo
	default:
		return models.TypeOther
	}
}
