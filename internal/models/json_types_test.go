package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListScanValue(t *testing.T) {
	list := StringList{"rock", "classic rock"}

	value, err := list.Value()
	require.NoError(t, err)

	var scanned StringList
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, list, scanned)
}

func TestStringListScanNil(t *testing.T) {
	var list StringList
	require.NoError(t, list.Scan(nil))
	assert.Nil(t, list)
}

func TestJSONMapScanValue(t *testing.T) {
	m := JSONMap{"danceability": 0.8, "key": "F#"}

	value, err := m.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, 0.8, scanned["danceability"])
	assert.Equal(t, "F#", scanned["key"])
}

func TestJSONMapScanRejectsGarbage(t *testing.T) {
	var m JSONMap
	assert.Error(t, m.Scan([]byte("{broken")))
}
