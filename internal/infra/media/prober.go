// Package media implements content-based detection for gallery files.
package media

import (
	"crypto/sha512"
	"encoding/hex"
	"image"
	"io"
	"os"
	"strings"

	// Decoders registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"lumen/internal/domain/service"
)

// Accepted content types. Detection goes by file bytes, so a video renamed to
// .jpg still lands in the video branch. Types with a registered Go decoder
// get pixel dimensions; the rest are stored with zero dimensions.
var allowedMIMEs = map[string]bool{
	"image/jpeg":        true,
	"image/png":         true,
	"image/gif":         true,
	"image/webp":        true,
	"image/bmp":         true,
	"image/tiff":        true,
	"image/heic":        true,
	"image/heif":        true,
	"image/avif":        true,
	"image/x-canon-cr2": true,
	"video/mp4":         true,
	"video/mpeg":        true,
	"video/quicktime":   true,
	"video/webm":        true,
	"video/x-matroska":  true,
	"video/x-msvideo":   true,
	"video/x-m4v":       true,
	"video/x-ms-wmv":    true,
	"video/x-flv":       true,
	"audio/mpeg":        true,
	"audio/flac":        true,
	"audio/ogg":         true,
	"audio/wav":         true,
	"audio/midi":        true,
	"audio/x-m4a":       true, // Detector's name for audio/m4a.
	"audio/amr":         true,
	"audio/aac":         true,
}

// MIME types whose dimensions we can actually decode with the registered decoders.
var decodableMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

type prober struct{}

// NewProber constructs the content-sniffing MediaProber.
func NewProber() service.MediaProber {
	return &prober{}
}

// Probe sniffs the file's content type and, for decodable image formats,
// reads its pixel dimensions. Non-media content yields (nil, nil).
func (p *prober) Probe(path string) (*service.MediaProbe, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "detect content type of %s", path)
	}

	mime := normalizeMIME(mtype.String())
	if !allowedMIMEs[mime] {
		return nil, nil
	}

	probe := &service.MediaProbe{MIME: mime}
	if !decodableMIMEs[mime] {
		return probe, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode dimensions of %s", path)
	}
	probe.Width = cfg.Width
	probe.Height = cfg.Height

	return probe, nil
}

// HashFile computes the uppercase hex SHA-512 digest of the file bytes.
func (p *prober) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	h := sha512.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hash %s", path)
	}

	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

// normalizeMIME strips any parameters the detector may append.
func normalizeMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	return strings.TrimSpace(mime)
}
