package raw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"io/ioutil"
)

var (
	// ErrInvalidSignature is returned when the input does not start with
	// the "mhwanh" signature
	ErrInvalidSignature = errors.New("raw: invalid signature")
	// ErrTruncatedHeader is returned when the width, height and palette
	// color count cannot be read
	ErrTruncatedHeader = errors.New("raw: truncated header")
	// ErrTruncatedPalette is returned when an image declares a palette but
	// fewer than 768 bytes follow the header
	ErrTruncatedPalette = errors.New("raw: truncated palette")
	// ErrTruncatedPixelData is returned when fewer pixel bytes are present
	// than the dimensions require
	ErrTruncatedPixelData = errors.New("raw: truncated pixel data")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Replace a short read with the given error, leaving any other error alone
func truncated(err, with error) error {
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return with
	}
	return err
}

// Header holds the fixed fields of an HSI Raw file following the signature.
type Header struct {
	Width         uint16
	Height        uint16
	PaletteColors uint16
}

// Indexed reports whether the image carries a palette
func (h Header) Indexed() bool {
	return h.PaletteColors != 0
}

func (h Header) pixelBytes() int64 {
	n := int64(h.Width) * int64(h.Height)
	if h.Indexed() {
		return n * bytesPerIndex
	}
	return n * bytesPerRGB
}

// Plane is the pixel data of a decoded image. It is either *Indexed or *RGB.
type Plane interface {
	// Bytes returns the raw pixel bytes in row-major order
	Bytes() []byte

	plane()
}

// Indexed is a plane of one byte per pixel, each selecting an entry from
// Palette. Index values are not validated against the palette.
type Indexed struct {
	Pix     []byte
	Palette *Palette
}

// Bytes returns the pixel indices
func (p *Indexed) Bytes() []byte { return p.Pix }

func (*Indexed) plane() {}

// RGB is a plane of three bytes per pixel holding red, green and blue.
type RGB struct {
	Pix []byte
}

// Bytes returns the pixel components
func (p *RGB) Bytes() []byte { return p.Pix }

func (*RGB) plane() {}

// Image is a decoded HSI Raw image.
type Image struct {
	Width  int
	Height int
	Plane  Plane

	// Trailing is the number of bytes left in the source after the pixel
	// data. They are not part of the image.
	Trailing int64
}

// Palette returns the image palette and true if the image is indexed.
func (m *Image) Palette() (*Palette, bool) {
	if p, ok := m.Plane.(*Indexed); ok {
		return p.Palette, true
	}
	return nil, false
}

// Image returns the decoded image as an image.Image. Indexed images are
// returned as an *image.Paletted and direct color images as an *image.RGBA.
func (m *Image) Image() image.Image {
	r := image.Rect(0, 0, m.Width, m.Height)
	switch p := m.Plane.(type) {
	case *Indexed:
		pm := image.NewPaletted(r, p.Palette.ColorPalette())
		copy(pm.Pix, p.Pix)
		return pm
	case *RGB:
		rgba := image.NewRGBA(r)
		for i, j := 0, 0; i < len(p.Pix); i, j = i+bytesPerRGB, j+4 {
			rgba.Pix[j+0] = p.Pix[i+0]
			rgba.Pix[j+1] = p.Pix[i+1]
			rgba.Pix[j+2] = p.Pix[i+2]
			rgba.Pix[j+3] = 0xff
		}
		return rgba
	}
	return nil
}

// Bytes left between the current position and the end of the source. The
// position is restored afterwards.
func remaining(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	if end < cur {
		return 0, nil
	}
	return end - cur, nil
}

type decoder struct {
	r io.ReadSeeker

	header Header
}

func (d *decoder) readHeader() error {
	var sig [len(Signature)]byte
	if err := readFull(d.r, sig[:]); err != nil {
		return truncated(err, ErrInvalidSignature)
	}
	if string(sig[:]) != Signature {
		return ErrInvalidSignature
	}

	if _, err := d.r.Seek(headerOffset, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Read(d.r, binary.BigEndian, &d.header); err != nil {
		return truncated(err, ErrTruncatedHeader)
	}

	// The rest of the header is reserved
	_, err := d.r.Seek(payloadOffset, io.SeekStart)
	return err
}

func (d *decoder) readPalette() (*Palette, error) {
	p := new(Palette)
	if err := readFull(d.r, p[:]); err != nil {
		return nil, truncated(err, ErrTruncatedPalette)
	}
	return p, nil
}

func (d *decoder) readPixels() ([]byte, int64, error) {
	n := d.header.pixelBytes()

	left, err := remaining(d.r)
	if err != nil {
		return nil, 0, err
	}
	if left < n {
		return nil, 0, ErrTruncatedPixelData
	}

	pix := make([]byte, n)
	if err := readFull(d.r, pix); err != nil {
		return nil, 0, truncated(err, ErrTruncatedPixelData)
	}
	return pix, left - n, nil
}

func (d *decoder) decode(r io.ReadSeeker, configOnly bool) (*Image, error) {
	d.r = r

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	m := &Image{
		Width:  int(d.header.Width),
		Height: int(d.header.Height),
	}

	var palette *Palette
	if d.header.Indexed() {
		var err error
		if palette, err = d.readPalette(); err != nil {
			return nil, err
		}
	}

	if configOnly {
		if palette != nil {
			m.Plane = &Indexed{Palette: palette}
		} else {
			m.Plane = &RGB{}
		}
		return m, nil
	}

	pix, trailing, err := d.readPixels()
	if err != nil {
		return nil, err
	}
	m.Trailing = trailing

	if palette != nil {
		m.Plane = &Indexed{Pix: pix, Palette: palette}
	} else {
		m.Plane = &RGB{Pix: pix}
	}

	return m, nil
}

// Read decodes an HSI Raw image from r. The source is read from its start
// regardless of the current position. Any error other than those defined by
// this package is returned unchanged from r.
func Read(r io.ReadSeeker) (*Image, error) {
	var d decoder
	return d.decode(r, false)
}

func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// Decode reads an HSI Raw image from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, err
	}
	m, err := Read(rs)
	if err != nil {
		return nil, err
	}
	return m.Image(), nil
}

// DecodeConfig returns the color model and dimensions of an HSI Raw image
// without decoding the pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return image.Config{}, err
	}
	var d decoder
	m, err := d.decode(rs, true)
	if err != nil {
		return image.Config{}, err
	}
	var model color.Model = color.RGBAModel
	if p, ok := m.Palette(); ok {
		model = p.ColorPalette()
	}
	return image.Config{
		ColorModel: model,
		Width:      m.Width,
		Height:     m.Height,
	}, nil
}

func init() {
	image.RegisterFormat("hsiraw", Signature, Decode, DecodeConfig)
}
