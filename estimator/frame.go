package estimator

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"

	"github.com/sraesch/raycasting-occlusion/types"
)

// NoObject marks a frame pixel not covered by any object.
const NoObject = ^uint32(0)

// Frame is the hit record surface of an estimation run: a per-pixel id
// buffer and an optional per-pixel depth buffer. Depths are normalized to
// [0, 1] over the view's clip range.
type Frame struct {
	Width  int
	Height int

	// Per-pixel object ids, row-major, NoObject for misses.
	IDs []uint32

	// Per-pixel depths, nil when the frame carries no depth buffer.
	// Entries of miss pixels are meaningless.
	Depths []float32
}

// NewFrame creates an empty frame, optionally with a depth buffer.
func NewFrame(width, height int, withDepths bool) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		IDs:    make([]uint32, width*height),
	}
	if withDepths {
		f.Depths = make([]float32, width*height)
	}
	f.Clear()
	return f
}

// Clear resets every pixel to a miss.
func (f *Frame) Clear() {
	for i := range f.IDs {
		f.IDs[i] = NoObject
	}
	for i := range f.Depths {
		f.Depths[i] = 0
	}
}

// At returns the object id at the given pixel.
func (f *Frame) At(x, y int) uint32 {
	return f.IDs[y*f.Width+x]
}

// Palette returns a deterministic color palette for the given number of
// ids. Hues advance by the golden angle so neighboring ids stay visually
// distinct.
func Palette(numIDs int) []types.Vec3 {
	colors := make([]types.Vec3, numIDs)
	for i := range colors {
		hue := math32.Mod(float32(i)*0.381966, 1.0)
		colors[i] = hsvToRGB(hue, 0.65, 0.95)
	}
	return colors
}

func hsvToRGB(h, s, v float32) types.Vec3 {
	h6 := h * 6
	sector := int(h6) % 6
	f := h6 - math32.Floor(h6)

	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch sector {
	case 0:
		return types.XYZ(v, t, p)
	case 1:
		return types.XYZ(q, v, p)
	case 2:
		return types.XYZ(p, v, t)
	case 3:
		return types.XYZ(p, q, v)
	case 4:
		return types.XYZ(t, p, v)
	default:
		return types.XYZ(v, p, q)
	}
}

// WritePPM dumps the id buffer as an ASCII PPM image. Misses render black;
// the palette must cover every id present in the buffer.
func (f *Frame) WritePPM(w io.Writer, palette []types.Vec3) error {
	out := bufio.NewWriter(w)

	fmt.Fprintln(out, "P3")
	fmt.Fprintf(out, "%d %d\n", f.Width, f.Height)
	fmt.Fprintln(out, "255")

	for i, id := range f.IDs {
		var color types.Vec3
		if id != NoObject {
			if int(id) >= len(palette) {
				return fmt.Errorf("palette of %d colors does not cover id %d", len(palette), id)
			}
			color = palette[id]
		}

		fmt.Fprintf(out, "%d %d %d ", int(color[0]*255), int(color[1]*255), int(color[2]*255))
		if (i+1)%f.Width == 0 {
			fmt.Fprintln(out)
		}
	}

	return out.Flush()
}

// WriteDepthPGM dumps the depth buffer as an ASCII PGM image. Depths of
// hit pixels are normalized to the observed range, inverted so nearer is
// brighter; misses render black.
func (f *Frame) WriteDepthPGM(w io.Writer) error {
	if f.Depths == nil {
		return fmt.Errorf("frame carries no depth buffer")
	}

	min := float32(math.MaxFloat32)
	max := float32(0)
	for i, id := range f.IDs {
		if id == NoObject {
			continue
		}
		if f.Depths[i] < min {
			min = f.Depths[i]
		}
		if f.Depths[i] > max {
			max = f.Depths[i]
		}
	}

	out := bufio.NewWriter(w)

	fmt.Fprintln(out, "P2")
	fmt.Fprintf(out, "%d %d\n", f.Width, f.Height)
	fmt.Fprintln(out, "255")

	for i, id := range f.IDs {
		gray := 0
		if id != NoObject {
			if max > min {
				gray = int(math32.Round((1 - (f.Depths[i]-min)/(max-min)) * 255))
			} else {
				gray = 128
			}
		}

		fmt.Fprintf(out, "%d ", gray)
		if (i+1)%f.Width == 0 {
			fmt.Fprintln(out)
		}
	}

	return out.Flush()
}

// WriteBinary serializes the frame as little-endian binary data: width,
// height, a depth buffer flag, the id buffer and optionally the depth
// buffer.
func (f *Frame) WriteBinary(w io.Writer) error {
	hasDepth := uint32(0)
	if f.Depths != nil {
		hasDepth = 1
	}

	header := [3]uint32{uint32(f.Width), uint32(f.Height), hasDepth}
	if err := binary.Write(w, binary.LittleEndian, header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, f.IDs); err != nil {
		return err
	}
	if f.Depths != nil {
		return binary.Write(w, binary.LittleEndian, f.Depths)
	}
	return nil
}

// ReadFrame deserializes a frame written by WriteBinary.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, header[:]); err != nil {
		return nil, err
	}

	f := NewFrame(int(header[0]), int(header[1]), header[2] == 1)
	if err := binary.Read(r, binary.LittleEndian, f.IDs); err != nil {
		return nil, err
	}
	if f.Depths != nil {
		if err := binary.Read(r, binary.LittleEndian, f.Depths); err != nil {
			return nil, err
		}
	}
	return f, nil
}
