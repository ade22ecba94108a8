package domain

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Annotation is a label attached to an image. An annotation that carries a
// score is a prediction rather than ground truth.
type Annotation struct {
	ID           int           `json:"annotation_id"`
	ImageID      int           `json:"image_id"`
	CategoryID   int           `json:"category_id,omitempty"`
	BBox         []float64     `json:"bbox,omitempty"`
	Segmentation *Segmentation `json:"segmentation,omitempty"`
	Area         *float64      `json:"area,omitempty"`
	Keypoints    []float64     `json:"keypoints,omitempty"`
	NumKeypoints *int          `json:"num_keypoints,omitempty"`
	Caption      *string       `json:"caption,omitempty"`
	Value        *float64      `json:"value,omitempty"`
	IsCrowd      *int          `json:"iscrowd,omitempty"`
	Score        *Score        `json:"score,omitempty"`
}

// AnnotationOption customizes an annotation built by one of the task constructors
type AnnotationOption func(*Annotation)

// WithScore turns the annotation into a prediction with a scalar score
func WithScore(score float64) AnnotationOption {
	return func(a *Annotation) {
		s := SingleScore(score)
		a.Score = &s
	}
}

// WithScores turns the annotation into a prediction with per-class scores
func WithScores(scores ...float64) AnnotationOption {
	return func(a *Annotation) {
		s := MultiScore(scores...)
		a.Score = &s
	}
}

// WithIsCrowd marks the annotation as a crowd region
func WithIsCrowd(crowd bool) AnnotationOption {
	return func(a *Annotation) {
		v := 0
		if crowd {
			v = 1
		}
		a.IsCrowd = &v
	}
}

func build(a *Annotation, opts []AnnotationOption) (*Annotation, error) {
	for _, opt := range opts {
		opt(a)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewClassification creates an image-level label
func NewClassification(id, imageID, categoryID int, opts ...AnnotationOption) (*Annotation, error) {
	if err := checkID("category_id", categoryID); err != nil {
		return nil, err
	}
	return build(&Annotation{ID: id, ImageID: imageID, CategoryID: categoryID}, opts)
}

// NewObjectDetection creates a box annotation. The area is the box area.
func NewObjectDetection(id, imageID, categoryID int, bbox []float64, opts ...AnnotationOption) (*Annotation, error) {
	if err := checkID("category_id", categoryID); err != nil {
		return nil, err
	}
	if len(bbox) != 4 {
		return nil, invalidf("bbox should have 4 values, got %d", len(bbox))
	}
	area := bbox[2] * bbox[3]
	return build(&Annotation{
		ID:         id,
		ImageID:    imageID,
		CategoryID: categoryID,
		BBox:       bbox,
		Area:       &area,
	}, opts)
}

// NewSegmentation creates a polygon or mask annotation with an explicit area
func NewSegmentation(id, imageID, categoryID int, bbox []float64, segmentation *Segmentation, area float64, opts ...AnnotationOption) (*Annotation, error) {
	if err := checkID("category_id", categoryID); err != nil {
		return nil, err
	}
	if segmentation == nil {
		return nil, invalidf("segmentation annotation %d without segmentation", id)
	}
	return build(&Annotation{
		ID:           id,
		ImageID:      imageID,
		CategoryID:   categoryID,
		BBox:         bbox,
		Segmentation: segmentation,
		Area:         &area,
	}, opts)
}

// NewKeypointDetection creates a keypoint annotation from flat (x, y, v) triples
func NewKeypointDetection(id, imageID, categoryID int, bbox []float64, keypoints []float64, opts ...AnnotationOption) (*Annotation, error) {
	if err := checkID("category_id", categoryID); err != nil {
		return nil, err
	}
	visible := 0
	for i := 2; i < len(keypoints); i += 3 {
		if keypoints[i] > 0 {
			visible++
		}
	}
	a := &Annotation{
		ID:           id,
		ImageID:      imageID,
		CategoryID:   categoryID,
		BBox:         bbox,
		Keypoints:    keypoints,
		NumKeypoints: &visible,
	}
	if len(bbox) == 4 {
		area := bbox[2] * bbox[3]
		a.Area = &area
	}
	return build(a, opts)
}

// NewRegression creates an annotation holding a scalar target value
func NewRegression(id, imageID int, value float64, opts ...AnnotationOption) (*Annotation, error) {
	return build(&Annotation{ID: id, ImageID: imageID, Value: &value}, opts)
}

// NewTextRecognition creates an annotation holding a caption
func NewTextRecognition(id, imageID int, caption string, opts ...AnnotationOption) (*Annotation, error) {
	return build(&Annotation{ID: id, ImageID: imageID, Caption: &caption}, opts)
}

// IsPrediction reports whether the annotation carries a score
func (a *Annotation) IsPrediction() bool {
	return a.Score != nil
}

// Validate checks the fields against the constraints of their task
func (a *Annotation) Validate() error {
	if err := checkID("annotation_id", a.ID); err != nil {
		return err
	}
	if err := checkID("image_id", a.ImageID); err != nil {
		return err
	}
	if a.CategoryID < 0 {
		return invalidf("category_id should be greater than 0, got %d", a.CategoryID)
	}
	if a.BBox != nil && len(a.BBox) != 4 {
		return invalidf("annotation %d: bbox should have 4 values, got %d", a.ID, len(a.BBox))
	}
	if a.Segmentation != nil {
		if err := a.Segmentation.Validate(); err != nil {
			return fmt.Errorf("annotation %d: %w", a.ID, err)
		}
	}
	if len(a.Keypoints)%3 != 0 {
		return invalidf("annotation %d: keypoints length %d is not divisible by 3", a.ID, len(a.Keypoints))
	}
	for i := 2; i < len(a.Keypoints); i += 3 {
		switch a.Keypoints[i] {
		case 0, 1, 2:
		default:
			return invalidf("annotation %d: keypoint visibility %v", a.ID, a.Keypoints[i])
		}
	}
	if a.IsCrowd != nil && *a.IsCrowd != 0 && *a.IsCrowd != 1 {
		return invalidf("annotation %d: iscrowd should be 0 or 1, got %d", a.ID, *a.IsCrowd)
	}
	if a.Score != nil && len(a.Score.Values()) == 0 {
		return invalidf("annotation %d: empty score", a.ID)
	}
	return nil
}

// crowdFlag accepts both the integer and the boolean iscrowd form
type crowdFlag int

func (c *crowdFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*c = 1
		return nil
	case "false":
		*c = 0
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return decodeError("iscrowd", err)
	}
	*c = crowdFlag(v)
	return nil
}

type annotationFields struct {
	ID           *int          `json:"annotation_id"`
	ImageID      *int          `json:"image_id"`
	CategoryID   *int          `json:"category_id"`
	BBox         []float64     `json:"bbox"`
	Segmentation *Segmentation `json:"segmentation"`
	Mask         *Segmentation `json:"mask"`
	Area         *float64      `json:"area"`
	Keypoints    []float64     `json:"keypoints"`
	NumKeypoints *int          `json:"num_keypoints"`
	Caption      *string       `json:"caption"`
	Value        *float64      `json:"value"`
	IsCrowd      *crowdFlag    `json:"iscrowd"`
	Score        *Score        `json:"score"`
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var fields annotationFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return decodeError("annotation", err)
	}
	switch {
	case fields.ID == nil:
		return invalidf("annotation: missing annotation_id")
	case fields.ImageID == nil:
		return invalidf("annotation %d: missing image_id", *fields.ID)
	}
	ann := Annotation{
		ID:           *fields.ID,
		ImageID:      *fields.ImageID,
		BBox:         fields.BBox,
		Segmentation: fields.Segmentation,
		Area:         fields.Area,
		Keypoints:    fields.Keypoints,
		NumKeypoints: fields.NumKeypoints,
		Caption:      fields.Caption,
		Value:        fields.Value,
		Score:        fields.Score,
	}
	if fields.CategoryID != nil {
		if err := checkID("category_id", *fields.CategoryID); err != nil {
			return err
		}
		ann.CategoryID = *fields.CategoryID
	}
	if ann.Segmentation.empty() {
		ann.Segmentation = fields.Mask
	}
	if ann.Segmentation.empty() {
		ann.Segmentation = nil
	}
	if len(ann.BBox) == 0 {
		ann.BBox = nil
	}
	if fields.IsCrowd != nil {
		v := int(*fields.IsCrowd)
		ann.IsCrowd = &v
	}
	if err := ann.Validate(); err != nil {
		return err
	}
	*a = ann
	return nil
}

// ParseAnnotation decodes and validates the dictionary form of an annotation
func ParseAnnotation(data []byte) (*Annotation, error) {
	var a Annotation
	if err := a.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &a, nil
}
