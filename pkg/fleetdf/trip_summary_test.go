package fleetdf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripCompletionMessageToTripSummary(t *testing.T) {
	body := []byte(`{
		"pushTime": 1718000300000,
		"data": {
			"plateNum": "AB1234",
			"startTime": 1718000000000,
			"endTime": null,
			"seconds": 300,
			"startLng": 121.4737,
			"startLat": 31.2304,
			"endLng": 121.5,
			"endLat": 31.25
		}
	}`)

	var message TripCompletionMessage
	require.NoError(t, json.Unmarshal(body, &message))

	summary, err := message.ToTripSummary()
	require.NoError(t, err)

	assert.Equal(t, "AB1234", summary.PlateNumber)
	assert.Equal(t, int64(300), summary.DurationSeconds)

	require.NotNil(t, summary.StartTime)
	assert.Equal(t, int64(1718000000000), summary.StartTime.UnixMilli())
	assert.Nil(t, summary.EndTime)

	assert.Equal(t, 121.4737, summary.StartLongitude)
	assert.Equal(t, 31.25, summary.EndLatitude)
}

func TestTripCompletionMessageMissingPlate(t *testing.T) {
	var message TripCompletionMessage

	_, err := message.ToTripSummary()
	assert.ErrorIs(t, err, ErrMalformedReport)
}
