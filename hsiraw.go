/*
Package hsiraw is a library for converting HSI Raw images, as found in games
such as Moto Racer, Ecstatica II and Zombie Wars, to PNG.
*/
package hsiraw

import (
	"log"
	"runtime"

	"github.com/bodgit/hsiraw/raw"
)

// Options control how images are converted
type Options struct {
	// Output is the directory written to. Convert uses the current
	// directory and Scan writes next to each input if it is empty.
	Output string

	// Palette, if set, replaces the palette of every indexed image
	Palette *raw.Palette

	// Colors, if non-zero, reduces direct color images to a paletted
	// image with at most this many colors
	Colors int

	// Workers is the number of files Scan converts concurrently. It
	// defaults to the number of CPUs.
	Workers int
}

// Converter converts HSI Raw images, optionally recording each one in a
// catalog.
type Converter struct {
	catalog *Catalog
	logger  *log.Logger
	options Options
}

// New returns a Converter. The catalog may be nil.
func New(catalog *Catalog, logger *log.Logger, options Options) *Converter {
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	return &Converter{
		catalog: catalog,
		logger:  logger,
		options: options,
	}
}
