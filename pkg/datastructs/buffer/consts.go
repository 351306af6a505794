package buffer

const (
	// initialSize is the default payload capacity for a new Stream.
	initialSize = 1024

	// prependSize is the number of bytes reserved at the front of a Stream
	// so a protocol header can be written after the payload already exists.
	prependSize = 8

	// readChunk is the minimum writable space guaranteed before each
	// ReadFrom iteration.
	readChunk = 512
)
