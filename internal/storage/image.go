package storage

import "github.com/gabriel-vasile/mimetype"

// Accepted cover formats, matched on content rather than the client's
// filename or declared content type.
var imageMIMEs = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/webp",
}

// DetectImage sniffs data and returns the file extension of an accepted
// image format.
func DetectImage(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	mt := mimetype.Detect(data)
	for _, m := range imageMIMEs {
		if mt.Is(m) {
			return mt.Extension(), true
		}
	}
	return "", false
}
