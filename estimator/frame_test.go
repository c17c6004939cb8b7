package estimator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleFrame(withDepths bool) *Frame {
	f := NewFrame(4, 2, withDepths)
	f.IDs[0] = 0
	f.IDs[1] = 2
	f.IDs[5] = 1
	if withDepths {
		f.Depths[0] = 0.25
		f.Depths[1] = 0.75
		f.Depths[5] = 0.5
	}
	return f
}

func TestFrameClear(t *testing.T) {
	f := sampleFrame(true)
	f.Clear()

	for i, id := range f.IDs {
		require.Equal(t, NoObject, id, "pixel %d", i)
	}
	for i, d := range f.Depths {
		require.Zero(t, d, "pixel %d", i)
	}
}

func TestFrameBinaryRoundTrip(t *testing.T) {
	for _, withDepths := range []bool{false, true} {
		f := sampleFrame(withDepths)

		var buf bytes.Buffer
		require.NoError(t, f.WriteBinary(&buf))

		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		require.Equal(t, f, got)
	}
}

func TestFrameBinaryLayout(t *testing.T) {
	f := NewFrame(1, 1, false)

	var buf bytes.Buffer
	require.NoError(t, f.WriteBinary(&buf))

	// Header of three little-endian u32 words plus one id word; the miss
	// pixel is the all-ones id.
	require.Equal(t, []byte{
		1, 0, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0,
		0xff, 0xff, 0xff, 0xff,
	}, buf.Bytes())
}

func TestFramePPM(t *testing.T) {
	f := sampleFrame(false)

	var buf bytes.Buffer
	require.NoError(t, f.WritePPM(&buf, Palette(3)))

	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, "P3", lines[0])
	require.Equal(t, "4 2", lines[1])
	require.Equal(t, "255", lines[2])

	// Misses render black.
	fields := strings.Fields(lines[3])
	require.Equal(t, []string{"0", "0", "0"}, fields[6:9])

	// A palette too small for the ids present is an error.
	require.Error(t, f.WritePPM(&bytes.Buffer{}, Palette(2)))
}

func TestFrameDepthPGM(t *testing.T) {
	f := sampleFrame(true)

	var buf bytes.Buffer
	require.NoError(t, f.WriteDepthPGM(&buf))

	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, "P2", lines[0])
	require.Equal(t, "4 2", lines[1])
	require.Equal(t, "255", lines[2])

	fields := strings.Fields(lines[3])
	// Nearest pixel is brightest, farthest darkest, misses black.
	require.Equal(t, "255", fields[0])
	require.Equal(t, "0", fields[1])
	require.Equal(t, "0", fields[2])

	// No depth buffer, no dump.
	require.Error(t, sampleFrame(false).WriteDepthPGM(&bytes.Buffer{}))
}

func TestPalette(t *testing.T) {
	require.Equal(t, Palette(16), Palette(16))

	colors := Palette(8)
	seen := make(map[[3]int]bool)
	for _, c := range colors {
		for i := 0; i < 3; i++ {
			require.GreaterOrEqual(t, c[i], float32(0))
			require.LessOrEqual(t, c[i], float32(1))
		}
		key := [3]int{int(c[0] * 255), int(c[1] * 255), int(c[2] * 255)}
		require.False(t, seen[key], "duplicate color %v", key)
		seen[key] = true
	}
}
