package embedding

import (
	"os"

	exiflib "github.com/rwcarlsen/goexif/exif"
)

// orientationUpright is the EXIF Orientation value meaning no rotation is
// needed; it is also the default when EXIF is absent or unreadable.
const orientationUpright = 1

// readOrientation returns the image's EXIF Orientation tag (1-8), or
// orientationUpright if the file has no EXIF data, no Orientation tag, or
// isn't decodable as EXIF at all (most formats, including png/webp/gif/bmp).
func readOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return orientationUpright
	}
	defer f.Close()

	x, err := exiflib.Decode(f)
	if err != nil {
		return orientationUpright
	}
	tag, err := x.Get(exiflib.Orientation)
	if err != nil {
		return orientationUpright
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return orientationUpright
	}
	return v
}
