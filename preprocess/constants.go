package preprocess

const (
	Channels = 3

	// Rows handed to each conversion worker per chunk. Wider vector units
	// get longer contiguous spans.
	wideChunkRows   = 64
	narrowChunkRows = 16
)
