package service

// QRCodeService defines the interface for QR code generation services
type QRCodeService interface {
	// GenerateShareLinkQR renders the public URL of an album share link as a PNG QR code
	GenerateShareLinkQR(linkURL string) ([]byte, error)
}
