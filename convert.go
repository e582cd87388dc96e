package hsiraw

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/bodgit/hsiraw/raw"
	"github.com/ericpauley/go-quantize/quantize"
)

// path/file.raw -> dir/file.png
func outputFilename(file, dir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(dir, base+"."+ext)
}

// Reduce a direct color image to at most n colors
func reduce(m image.Image, n int) *image.Paletted {
	if n > raw.PaletteColors {
		n = raw.PaletteColors
	}
	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// Turn a decoded image into the image and palette to write out
func (c *Converter) render(m *raw.Image) (image.Image, *raw.Palette) {
	if p, ok := m.Palette(); ok {
		pm := m.Image().(*image.Paletted)
		if c.options.Palette != nil {
			p = c.options.Palette
			pm.Palette = p.ColorPalette()
		}
		return pm, p
	}

	if c.options.Colors > 0 {
		pm := reduce(m.Image(), c.options.Colors)
		return pm, raw.PaletteFromColors(pm.Palette)
	}

	return m.Image(), nil
}

func (c *Converter) write(file, dir string, m *raw.Image) error {
	if m.Width == 0 || m.Height == 0 {
		c.logger.Printf("Skipping \"%s\", image is empty\n", file)
		return nil
	}

	if m.Trailing > 0 {
		c.logger.Printf("Ignoring %d trailing bytes in \"%s\"\n", m.Trailing, file)
	}

	img, palette := c.render(m)

	if palette != nil {
		b, err := palette.MarshalBinary()
		if err != nil {
			return err
		}
		if err := ioutil.WriteFile(outputFilename(file, dir, "pal"), b, 0666); err != nil {
			return err
		}
	}

	return imgio.Save(outputFilename(file, dir, "png"), img, imgio.PNGEncoder())
}

func (c *Converter) convert(file, dir string) error {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return err
	}

	m, err := raw.Read(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	c.logger.Printf("Converting \"%s\", %dx%d, indexed: %t\n", file, m.Width, m.Height, isIndexed(m))

	if err := c.write(file, dir, m); err != nil {
		return err
	}

	if c.catalog != nil {
		return c.record(file, b, m)
	}

	return nil
}

// Add the image to the catalog unless identical content is already there
func (c *Converter) record(file string, b []byte, m *raw.Image) error {
	hash := contentHash(b)
	path, err := c.catalog.find(hash)
	if err != nil {
		return err
	}
	if path != "" {
		if path != file {
			c.logger.Printf("\"%s\" is a duplicate of \"%s\"\n", file, path)
		}
		return nil
	}
	return c.catalog.add(hash, file, m)
}

func isIndexed(m *raw.Image) bool {
	_, ok := m.Palette()
	return ok
}

// Convert decodes a single HSI Raw file and writes it as a PNG, along with
// a palette file for indexed images.
func (c *Converter) Convert(file string) error {
	dir := c.options.Output
	if dir == "" {
		dir = "."
	}
	return c.convert(file, dir)
}
