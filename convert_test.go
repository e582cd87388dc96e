package hsiraw

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/bodgit/hsiraw/raw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFile(width, height uint16, palette *raw.Palette, pix []byte) []byte {
	b := make([]byte, 0x20)
	copy(b, raw.Signature)
	binary.BigEndian.PutUint16(b[0x08:], width)
	binary.BigEndian.PutUint16(b[0x0a:], height)
	if palette != nil {
		binary.BigEndian.PutUint16(b[0x0c:], raw.PaletteColors)
		b = append(b, palette[:]...)
	}
	return append(b, pix...)
}

func writeFile(t *testing.T, file string, b []byte) {
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0777))
	require.NoError(t, ioutil.WriteFile(file, b, 0666))
}

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "hsiraw")
	require.NoError(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func discard() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

func TestOutputFilename(t *testing.T) {
	tables := []struct {
		file, dir, ext string
		want           string
	}{
		{"a/b/title.raw", "out", "png", filepath.Join("out", "title.png")},
		{"title.raw", ".", "pal", "title.pal"},
		{"noext", "x", "png", filepath.Join("x", "noext.png")},
		{"dots.in.name.hsi", "", "png", "dots.in.name.png"},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, outputFilename(table.file, table.dir, table.ext))
	}
}

func TestConvertRGB(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	in := filepath.Join(dir, "in", "car.raw")
	writeFile(t, in, rawFile(2, 1, nil, []byte{0xff, 0, 0, 0, 0, 0xff}))

	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0777))

	c := New(nil, discard(), Options{Output: out})
	require.NoError(t, c.Convert(in))

	m, err := imgio.Open(filepath.Join(out, "car.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), m.Bounds())
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{0xff, 0, 0, 0xff}), color.RGBAModel.Convert(m.At(0, 0)))
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{0, 0, 0xff, 0xff}), color.RGBAModel.Convert(m.At(1, 0)))

	_, err = os.Stat(filepath.Join(out, "car.pal"))
	assert.True(t, os.IsNotExist(err))
}

func TestConvertIndexed(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	var palette raw.Palette
	palette[3], palette[4], palette[5] = 10, 20, 30

	in := filepath.Join(dir, "title.raw")
	writeFile(t, in, rawFile(2, 2, &palette, []byte{1, 0, 0, 1}))

	c := New(nil, discard(), Options{Output: dir})
	require.NoError(t, c.Convert(in))

	b, err := ioutil.ReadFile(filepath.Join(dir, "title.pal"))
	require.NoError(t, err)
	assert.Equal(t, palette[:], b)

	m, err := imgio.Open(filepath.Join(dir, "title.png"))
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{10, 20, 30, 0xff}), color.RGBAModel.Convert(m.At(0, 0)))
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{0, 0, 0, 0xff}), color.RGBAModel.Convert(m.At(1, 0)))
}

func TestConvertReplacePalette(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	in := filepath.Join(dir, "title.raw")
	writeFile(t, in, rawFile(1, 1, new(raw.Palette), []byte{0}))

	replacement := new(raw.Palette)
	replacement[0], replacement[1], replacement[2] = 0xff, 0x80, 0x40

	c := New(nil, discard(), Options{Output: dir, Palette: replacement})
	require.NoError(t, c.Convert(in))

	b, err := ioutil.ReadFile(filepath.Join(dir, "title.pal"))
	require.NoError(t, err)
	assert.Equal(t, replacement[:], b)

	m, err := imgio.Open(filepath.Join(dir, "title.png"))
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{0xff, 0x80, 0x40, 0xff}), color.RGBAModel.Convert(m.At(0, 0)))
}

func TestConvertReduceColors(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	var pix []byte
	for i := 0; i < 16; i++ {
		pix = append(pix, byte(i*16), byte(255-i*16), 0x80)
	}

	in := filepath.Join(dir, "sky.raw")
	writeFile(t, in, rawFile(4, 4, nil, pix))

	c := New(nil, discard(), Options{Output: dir, Colors: 4})
	require.NoError(t, c.Convert(in))

	b, err := ioutil.ReadFile(filepath.Join(dir, "sky.pal"))
	require.NoError(t, err)
	assert.Len(t, b, raw.PaletteSize)

	m, err := imgio.Open(filepath.Join(dir, "sky.png"))
	require.NoError(t, err)

	colors := make(map[color.Color]struct{})
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			colors[color.RGBAModel.Convert(m.At(x, y))] = struct{}{}
		}
	}
	assert.True(t, len(colors) <= 4, "got %d colors", len(colors))
}

func TestConvertEmpty(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	in := filepath.Join(dir, "empty.raw")
	writeFile(t, in, rawFile(0, 10, nil, nil))

	c := New(nil, discard(), Options{Output: dir})
	require.NoError(t, c.Convert(in))

	_, err := os.Stat(filepath.Join(dir, "empty.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestConvertErrors(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	bad := filepath.Join(dir, "bad.raw")
	writeFile(t, bad, []byte("not an image at all, honest"))

	short := filepath.Join(dir, "short.raw")
	writeFile(t, short, rawFile(4, 4, nil, make([]byte, 47)))

	c := New(nil, discard(), Options{Output: dir})

	assert.True(t, errors.Is(c.Convert(bad), raw.ErrInvalidSignature))
	assert.True(t, errors.Is(c.Convert(short), raw.ErrTruncatedPixelData))
	assert.True(t, os.IsNotExist(c.Convert(filepath.Join(dir, "missing.raw"))))
}
