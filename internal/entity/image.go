package entity

// Supported image media types and the file extensions stored for them.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageExtension returns the extension for an allowed media type.
func ImageExtension(mediaType string) (string, bool) {
	ext, ok := imageExtensions[mediaType]
	return ext, ok
}
