package service

// MediaProbe is the result of inspecting one candidate file on disk.
type MediaProbe struct {
	MIME   string // Sniffed content type, e.g. "image/jpeg".
	Width  int    // Pixel dimensions; zero for formats without a decoder.
	Height int
}

// MediaProber defines the interface for content-based media detection.
// Detection reads file bytes, never the filename extension, so misnamed
// files are classified by what they actually contain.
type MediaProber interface {
	// Probe sniffs the file at path. It returns (nil, nil) when the content
	// type is not on the media allow-list, and an error only for I/O or
	// decode failures on otherwise accepted content.
	Probe(path string) (*MediaProbe, error)

	// HashFile computes the uppercase hex SHA-512 digest of the file bytes.
	HashFile(path string) (string, error)
}
