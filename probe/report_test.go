package probe

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/warpviz/field"
)

func TestWriteProfileCSV(t *testing.T) {
	samples := RadialProfile(reference, field.Vec3{X: 1}, 4*reference.Scale(), 16)

	var buf bytes.Buffer
	require.NoError(t, WriteProfileCSV(&buf, samples))
	assert.True(t, strings.HasPrefix(buf.String(), "r_m,r_scales,magnitude\n"))

	var back []Sample
	require.NoError(t, gocsv.UnmarshalBytes(buf.Bytes(), &back))
	require.Len(t, back, len(samples))
	assert.InEpsilon(t, samples[7].Magnitude, back[7].Magnitude, 1e-9)
}

func TestWriteProfileHTML(t *testing.T) {
	samples := RadialProfile(reference, field.Vec3{X: 1}, 4*reference.Scale(), 32)
	peak, err := FindPeak(reference)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteProfileHTML(&buf, samples, peak, "sag 16 nm"))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "magnitude")
	assert.Contains(t, html, "sag 16 nm")
}

func TestNearestSample(t *testing.T) {
	samples := []Sample{{R: 0}, {R: 1}, {R: 2}}
	assert.Equal(t, 1, nearestSample(samples, 1.2))
	assert.Equal(t, 2, nearestSample(samples, 9))
	assert.Equal(t, -1, nearestSample(nil, 1))
}
