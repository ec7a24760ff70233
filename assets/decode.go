package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Image is decoded RGBA8 pixel data, top row first, not premultiplied
type Image struct {
	Width, Height int
	Pixels        []byte
	Format        string
}

// Decode reads a PNG, JPEG, BMP or WebP image. Images larger than maxSize
// on either side are scaled down to fit, keeping the aspect ratio; a
// maxSize <= 0 disables scaling.
func Decode(r io.Reader, maxSize int) (Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := fit(src.Bounds().Size(), maxSize)
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.X, bounds.Y))
	if bounds == src.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	return Image{
		Width:  bounds.X,
		Height: bounds.Y,
		Pixels: dst.Pix,
		Format: format,
	}, nil
}

func fit(size image.Point, maxSize int) image.Point {
	if maxSize <= 0 || (size.X <= maxSize && size.Y <= maxSize) {
		return size
	}
	if size.X >= size.Y {
		return image.Pt(maxSize, max(1, size.Y*maxSize/size.X))
	}
	return image.Pt(max(1, size.X*maxSize/size.Y), maxSize)
}
