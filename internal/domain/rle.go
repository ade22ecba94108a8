package domain

import (
	"math"
	"sort"
)

// Mask is a binary row-major bitmap
type Mask struct {
	Width  int
	Height int
	Data   []bool
}

// NewMask creates an empty width x height mask
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Data: make([]bool, width*height)}
}

func (m *Mask) At(x, y int) bool {
	return m.Data[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v bool) {
	m.Data[y*m.Width+x] = v
}

func (m *Mask) Area() int {
	area := 0
	for _, v := range m.Data {
		if v {
			area++
		}
	}
	return area
}

// PolygonToMask rasterizes a flat [x1, y1, ..., xn, yn] pixel-space polygon
// with an even-odd scanline fill. A pixel is inside when its center is.
func PolygonToMask(polygon []float64, width, height int) (*Mask, error) {
	if err := checkPolygon(polygon); err != nil {
		return nil, err
	}
	if width < 0 || height < 0 {
		return nil, invalidf("mask size %dx%d", width, height)
	}
	mask := NewMask(width, height)
	n := len(polygon) / 2
	crossings := make([]float64, 0, n)
	for y := 0; y < height; y++ {
		cy := float64(y) + 0.5
		crossings = crossings[:0]
		for i := 0; i < n; i++ {
			x1, y1 := polygon[2*i], polygon[2*i+1]
			j := (i + 1) % n
			x2, y2 := polygon[2*j], polygon[2*j+1]
			if (y1 <= cy && y2 > cy) || (y2 <= cy && y1 > cy) {
				crossings = append(crossings, x1+(cy-y1)*(x2-x1)/(y2-y1))
			}
		}
		sort.Float64s(crossings)
		for k := 0; k+1 < len(crossings); k += 2 {
			start := int(math.Ceil(crossings[k] - 0.5))
			end := int(math.Ceil(crossings[k+1]-0.5)) - 1
			if start < 0 {
				start = 0
			}
			if end > width-1 {
				end = width - 1
			}
			for x := start; x <= end; x++ {
				mask.Set(x, y, true)
			}
		}
	}
	return mask, nil
}

// EncodeRLE run-length encodes a mask in column-major order. The first run is
// background and may be 0.
func EncodeRLE(mask *Mask) RLE {
	counts := []int{}
	current := false
	run := 0
	for x := 0; x < mask.Width; x++ {
		for y := 0; y < mask.Height; y++ {
			v := mask.At(x, y)
			if v != current {
				counts = append(counts, run)
				current = v
				run = 0
			}
			run++
		}
	}
	counts = append(counts, run)
	return RLE{Counts: counts, Size: [2]int{mask.Height, mask.Width}}
}

// DecodeRLE expands an RLE back into a mask
func DecodeRLE(r RLE) (*Mask, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	h, w := r.Size[0], r.Size[1]
	mask := NewMask(w, h)
	pos := 0
	value := false
	for _, count := range r.Counts {
		for k := 0; k < count; k++ {
			x, y := pos/h, pos%h
			mask.Set(x, y, value)
			pos++
		}
		value = !value
	}
	return mask, nil
}

// PolygonToRLE rasterizes a flat polygon onto a width x height mask
func PolygonToRLE(polygon []float64, width, height int) (RLE, error) {
	mask, err := PolygonToMask(polygon, width, height)
	if err != nil {
		return RLE{}, err
	}
	return EncodeRLE(mask), nil
}

// PolygonBBox returns the [xmin, ymin, w, h] bounding box of a flat polygon
func PolygonBBox(polygon []float64) []float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i+1 < len(polygon); i += 2 {
		minX = math.Min(minX, polygon[i])
		maxX = math.Max(maxX, polygon[i])
		minY = math.Min(minY, polygon[i+1])
		maxY = math.Max(maxY, polygon[i+1])
	}
	return []float64{minX, minY, maxX - minX, maxY - minY}
}
