package embedding

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imagenetMean and imagenetStd are the standard per-channel normalization
// constants for models pretrained on ImageNet-style preprocessing.
var imagenetMean = [3]float32{0.485, 0.456, 0.406}
var imagenetStd = [3]float32{0.229, 0.224, 0.225}

// preprocessImage decodes, EXIF-corrects, resizes to size x size, and
// normalizes an image file into a channel-first (C,H,W) float32 tensor ready
// to batch for the vision encoder.
func preprocessImage(path string, size int) ([]float32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("embedding: open %s: %w", path, err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("embedding: decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	upright := rotateToUpright(img, readOrientation(path))
	resized := imaging.Resize(upright, size, size, imaging.Lanczos)

	return toCHWTensor(resized), width, height, nil
}

// rotateToUpright applies the transform implied by an EXIF Orientation tag
// so that downstream encoding is invariant to camera rotation. Orientation
// values and their meaning follow the EXIF 2.3 specification.
func rotateToUpright(img image.Image, orientation int) *image.NRGBA {
	base := imaging.Clone(img)
	switch orientation {
	case 2:
		return imaging.FlipH(base)
	case 3:
		return imaging.Rotate180(base)
	case 4:
		return imaging.FlipV(base)
	case 5:
		return imaging.Transpose(base)
	case 6:
		return imaging.Rotate270(base)
	case 7:
		return imaging.Transverse(base)
	case 8:
		return imaging.Rotate90(base)
	default:
		return base
	}
}

// toCHWTensor rescales to [0,1], applies ImageNet mean/std normalization per
// channel, and transposes from the decoded HWC layout to CHW.
func toCHWTensor(img *image.NRGBA) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]float32, 3*w*h)
	plane := w * h

	pix := img.Pix
	stride := img.Stride
	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r := float32(pix[i]) / 255.0
			g := float32(pix[i+1]) / 255.0
			b := float32(pix[i+2]) / 255.0

			idx := y*w + x
			out[0*plane+idx] = (r - imagenetMean[0]) / imagenetStd[0]
			out[1*plane+idx] = (g - imagenetMean[1]) / imagenetStd[1]
			out[2*plane+idx] = (b - imagenetMean[2]) / imagenetStd[2]
		}
	}
	return out
}
