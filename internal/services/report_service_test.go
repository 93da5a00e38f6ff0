package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAnalyticsPDF(t *testing.T) {
	data := &AnalyticsData{
		TotalGenres:  2,
		TotalArtists: 3,
		TotalTracks:  120,
		TotalUsers:   7,
		GenreComparison: []GenreComparisonRow{
			{Genre: "Electronic", LocalTracks: 80, LocalPlaycount: 500000, LastFMCount: 80, MatchPercentage: 100.0},
			{Genre: "Classic Rock", LocalTracks: 40, LocalPlaycount: 900000, LastFMCount: 120, MatchPercentage: 33.3},
		},
	}

	pdf, err := renderAnalyticsPDF(data)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output must be a PDF document")
}

func TestRenderAnalyticsPDFEmptyComparison(t *testing.T) {
	pdf, err := renderAnalyticsPDF(&AnalyticsData{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
