package domain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// RLE is an uncompressed run-length encoded mask. Counts alternate between
// background and foreground runs over the column-major flattened mask,
// starting with background. Size is [height, width].
type RLE struct {
	Counts []int  `json:"counts"`
	Size   [2]int `json:"size"`
}

// Area is the number of foreground pixels
func (r RLE) Area() int {
	area := 0
	for i := 1; i < len(r.Counts); i += 2 {
		area += r.Counts[i]
	}
	return area
}

// Validate checks that the runs cover exactly height*width pixels
func (r RLE) Validate() error {
	h, w := r.Size[0], r.Size[1]
	if h < 0 || w < 0 {
		return invalidf("rle: negative size %v", r.Size)
	}
	total := 0
	for _, c := range r.Counts {
		if c < 0 {
			return invalidf("rle: negative run %d", c)
		}
		total += c
	}
	if total != h*w {
		return invalidf("rle: runs cover %d pixels, mask has %d", total, h*w)
	}
	return nil
}

// Segmentation is a region given either as polygons or as an RLE mask
type Segmentation struct {
	Polygons [][]float64
	RLE      *RLE
}

// PolygonSegmentation wraps one or more flat [x1, y1, x2, y2, ...] polygons
func PolygonSegmentation(polygons ...[]float64) *Segmentation {
	return &Segmentation{Polygons: polygons}
}

// RLESegmentation wraps a mask
func RLESegmentation(r RLE) *Segmentation {
	return &Segmentation{RLE: &r}
}

// empty reports whether s holds neither polygons nor a mask, as with "segmentation": []
func (s *Segmentation) empty() bool {
	return s == nil || (s.RLE == nil && len(s.Polygons) == 0)
}

// Validate checks the mask runs or the polygon coordinates
func (s *Segmentation) Validate() error {
	if s.RLE != nil {
		return s.RLE.Validate()
	}
	if len(s.Polygons) == 0 {
		return invalidf("segmentation: no polygon")
	}
	for _, p := range s.Polygons {
		if err := checkPolygon(p); err != nil {
			return err
		}
	}
	return nil
}

func checkPolygon(p []float64) error {
	if len(p)%2 != 0 || len(p) < 6 {
		return invalidf("polygon needs an even number of coordinates and at least 3 points, got %d values", len(p))
	}
	return nil
}

func (s Segmentation) MarshalJSON() ([]byte, error) {
	if s.RLE != nil {
		return json.Marshal(s.RLE)
	}
	return json.Marshal(s.Polygons)
}

func (s *Segmentation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty segmentation", ErrInvalidType)
	}
	switch data[0] {
	case '{':
		var raw struct {
			Counts json.RawMessage `json:"counts"`
			Size   [2]int          `json:"size"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return decodeError("segmentation", err)
		}
		var counts []int
		if err := json.Unmarshal(raw.Counts, &counts); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return invalidf("segmentation: compressed RLE counts are not supported")
			}
			return decodeError("segmentation", err)
		}
		*s = Segmentation{RLE: &RLE{Counts: counts, Size: raw.Size}}
		return nil
	case '[':
		var polygons [][]float64
		if err := json.Unmarshal(data, &polygons); err == nil {
			*s = Segmentation{Polygons: polygons}
			return nil
		}
		var flat []float64
		if err := json.Unmarshal(data, &flat); err != nil {
			return decodeError("segmentation", err)
		}
		*s = Segmentation{Polygons: [][]float64{flat}}
		return nil
	}
	return fmt.Errorf("%w: segmentation must be a polygon list or an RLE object", ErrInvalidType)
}
