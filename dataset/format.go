package dataset

import (
	"fmt"
	"strings"

	"github.com/lewtec/datasetkit/internal/domain"
)

// Format is an export layout
type Format string

const (
	YOLODetection      Format = "YOLO_DETECTION"
	YOLOClassification Format = "YOLO_CLASSIFICATION"
	YOLOSegmentation   Format = "YOLO_SEGMENTATION"
	COCODetection      Format = "COCO_DETECTION"
)

var Formats = []Format{YOLODetection, YOLOClassification, YOLOSegmentation, COCODetection}

// ParseFormat resolves a format name case-insensitively
func ParseFormat(name string) (Format, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, f := range Formats {
		if string(f) == normalized {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidValue, name)
}

func (f Format) String() string {
	return string(f)
}
