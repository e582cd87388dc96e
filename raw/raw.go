/*
Package raw implements an HSI Raw image decoder.

HSI Raw files, identified by the "mhwanh" signature, were used by a number of
DOS era games. The header is 32 bytes long; the first six bytes are the
signature, followed at offset 8 by three big-endian 16-bit values giving the
width, height and number of palette colors. The remainder of the header is
reserved and ignored.

If the palette color count is non-zero the header is followed by a 768 byte
palette of 256 RGB triplets and then one byte per pixel indexing into it.
Otherwise the header is followed directly by three bytes per pixel holding
the red, green and blue components. Pixels are stored row by row with no
padding or compression.
*/
package raw

const (
	// Signature is the magic string at the start of every HSI Raw file
	Signature = "mhwanh"

	headerOffset  = 0x08
	headerSize    = 6
	reservedStart = headerOffset + headerSize
	payloadOffset = 0x20

	// PaletteColors is the number of entries in a palette
	PaletteColors = 256
	// PaletteSize is the size in bytes of a palette
	PaletteSize   = PaletteColors * bytesPerRGB
	bytesPerRGB   = 3
	bytesPerIndex = 1
)
