package services

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/genrefy/backend/internal/config"
)

// ShareService produces shareable artifacts for catalog entries.
type ShareService struct {
	cfg *config.Config
}

func NewShareService(cfg *config.Config) *ShareService {
	return &ShareService{cfg: cfg}
}

// TrackShareURL is the public frontend URL for a track.
func (s *ShareService) TrackShareURL(trackID string) string {
	return s.cfg.FrontendURL + "/tracks/" + trackID
}

// GenerateTrackQR renders a PNG QR code pointing at the track's public
// page.
func (s *ShareService) GenerateTrackQR(trackID string) ([]byte, error) {
	png, err := qrcode.Encode(s.TrackShareURL(trackID), qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}
