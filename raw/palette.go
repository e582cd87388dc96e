package raw

import (
	"errors"
	"image/color"
)

var errPaletteSize = errors.New("raw: palette must be exactly 768 bytes")

// Palette is a table of 256 RGB triplets stored exactly as they appear in
// the file. It implements the encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler interfaces so it can be written to and read from
// a standalone palette file.
type Palette [PaletteSize]byte

// Color returns the i'th palette entry as an opaque color.
func (p *Palette) Color(i uint8) color.RGBA {
	o := int(i) * bytesPerRGB
	return color.RGBA{p[o], p[o+1], p[o+2], 0xff}
}

// ColorPalette returns the palette as a color.Palette suitable for an
// image.Paletted.
func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, PaletteColors)
	for i := range cp {
		cp[i] = p.Color(uint8(i))
	}
	return cp
}

// MarshalBinary returns the 768 byte palette
func (p *Palette) MarshalBinary() ([]byte, error) {
	b := make([]byte, PaletteSize)
	copy(b, p[:])
	return b, nil
}

// UnmarshalBinary replaces the palette with the contents of b which must be
// exactly 768 bytes
func (p *Palette) UnmarshalBinary(b []byte) error {
	if len(b) != PaletteSize {
		return errPaletteSize
	}
	copy(p[:], b)
	return nil
}

// PaletteFromColors builds a palette from an arbitrary color.Palette. Any
// entries beyond 256 are ignored and missing entries are left black.
func PaletteFromColors(cp color.Palette) *Palette {
	p := new(Palette)
	for i, c := range cp {
		if i == PaletteColors {
			break
		}
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		o := i * bytesPerRGB
		p[o], p[o+1], p[o+2] = rgba.R, rgba.G, rgba.B
	}
	return p
}
