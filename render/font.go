package render

import (
	"image"
	"image/color"
	"unicode"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"
)

// Glyph places one character relative to the pen, in line-height units.
// Bounds is left, top, right, bottom measured down from the top of the line.
type Glyph struct {
	Advance   float32
	Bounds    [4]float32
	TexCoords [4]mgl32.Vec2 // bottom-left, bottom-right, top-right, top-left
	Visible   bool
}

// Font supplies glyph metrics and the atlas texture they sample
type Font interface {
	Atlas() *Texture2D
	Glyph(r rune) (Glyph, bool)
	LineHeight() float32
}

// BasicFont is a fixed-size bitmap font built from an x/image basicfont face
type BasicFont struct {
	atlas  *Texture2D
	glyphs map[rune]Glyph
}

// NewBasicFont uploads basicfont.Face7x13 as a single-texture atlas
func NewBasicFont(s Surface, log *zap.Logger) (*BasicFont, error) {
	return NewBasicFontFace(s, basicfont.Face7x13, log)
}

// NewBasicFontFace uploads face's glyph mask as an atlas
func NewBasicFontFace(s Surface, face *basicfont.Face, log *zap.Logger) (*BasicFont, error) {
	bounds := face.Mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	atlas, err := NewTexture2D(s, width, height, maskPixels(face.Mask), log)
	if err != nil {
		return nil, err
	}

	f := &BasicFont{atlas: atlas, glyphs: make(map[rune]Glyph)}

	h := float32(face.Height)
	u1 := float32(face.Width) / float32(width)
	left := float32(face.Left) / h
	right := float32(face.Left+face.Width) / h

	for _, rr := range face.Ranges {
		for r := rr.Low; r < rr.High; r++ {
			row := (int(r-rr.Low) + rr.Offset) * face.Height
			vTop := 1 - float32(row)/float32(height)
			vBottom := 1 - float32(row+face.Height)/float32(height)
			f.glyphs[r] = Glyph{
				Advance: float32(face.Advance) / h,
				Bounds:  [4]float32{left, 0, right, 1},
				TexCoords: [4]mgl32.Vec2{
					{0, vBottom},
					{u1, vBottom},
					{u1, vTop},
					{0, vTop},
				},
				Visible: !unicode.IsSpace(r),
			}
		}
	}
	return f, nil
}

func (f *BasicFont) Atlas() *Texture2D {
	return f.atlas
}

func (f *BasicFont) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

func (f *BasicFont) LineHeight() float32 {
	return 1
}

// Measure returns the width and height of text in line-height units
func (f *BasicFont) Measure(text string) (width, height float32) {
	var x float32
	height = f.LineHeight()
	for _, ch := range text {
		if ch == '\n' {
			width = max(width, x)
			x = 0
			height += f.LineHeight()
			continue
		}
		if g, ok := f.glyphs[ch]; ok {
			x += g.Advance
		}
	}
	return max(width, x), height
}

func (f *BasicFont) Release() {
	f.atlas.Release()
}

// maskPixels converts an alpha mask to white RGBA8 pixels, top row first
func maskPixels(mask image.Image) []byte {
	b := mask.Bounds()
	pixels := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := color.AlphaModel.Convert(mask.At(x, y)).(color.Alpha).A
			pixels = append(pixels, 0xff, 0xff, 0xff, a)
		}
	}
	return pixels
}
