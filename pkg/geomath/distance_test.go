package geomath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		distance, err := Distance(51.5074, -0.1278, 51.5074, -0.1278)
		require.NoError(t, err)
		assert.Zero(t, distance)
	})

	t.Run("one millidegree of latitude", func(t *testing.T) {
		// 0.001 degrees of latitude is ~111.2m anywhere on the globe
		distance, err := Distance(51.5074, -0.1278, 51.5084, -0.1278)
		require.NoError(t, err)
		assert.InDelta(t, 111.2, distance, 0.5)
	})

	t.Run("station scale accuracy", func(t *testing.T) {
		// Two points ~55m apart, well within a typical station radius
		distance, err := Distance(31.2304, 121.4737, 31.2309, 121.4737)
		require.NoError(t, err)
		assert.InDelta(t, 55.6, distance, 0.5)
	})

	t.Run("symmetric", func(t *testing.T) {
		forward, err := Distance(51.5074, -0.1278, 48.8566, 2.3522)
		require.NoError(t, err)

		backward, err := Distance(48.8566, 2.3522, 51.5074, -0.1278)
		require.NoError(t, err)

		assert.InDelta(t, forward, backward, 0.0001)
	})

	t.Run("london to paris", func(t *testing.T) {
		distance, err := Distance(51.5074, -0.1278, 48.8566, 2.3522)
		require.NoError(t, err)
		assert.InDelta(t, 334570, distance, 2000)
	})
}

func TestDistanceInvalidCoordinates(t *testing.T) {
	testCases := []struct {
		name string

		latitudeA  float64
		longitudeA float64
		latitudeB  float64
		longitudeB float64
	}{
		{"NaN latitude", math.NaN(), 0, 0, 0},
		{"NaN longitude", 0, math.NaN(), 0, 0},
		{"infinite latitude", math.Inf(1), 0, 0, 0},
		{"latitude out of range", 91, 0, 0, 0},
		{"negative latitude out of range", 0, 0, -90.5, 0},
		{"longitude out of range", 0, 180.1, 0, 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Distance(testCase.latitudeA, testCase.longitudeA, testCase.latitudeB, testCase.longitudeB)
			assert.ErrorIs(t, err, ErrInvalidCoordinate)
		})
	}
}
