package domain

import "github.com/goccy/go-json"

// Category represents a label class of a dataset
type Category struct {
	ID            int      `json:"category_id"`
	Supercategory string   `json:"supercategory"`
	Name          string   `json:"name"`
	Keypoints     []string `json:"keypoints,omitempty"`
	Skeleton      [][2]int `json:"skeleton,omitempty"`
}

// NewCategory creates a category for the classification, object detection,
// segmentation, regression and text recognition tasks
func NewCategory(id int, name, supercategory string) (*Category, error) {
	c := &Category{ID: id, Name: name, Supercategory: supercategory}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewKeypointCategory creates a keypoint detection category. Skeleton edges
// reference keypoints by their 1-based index.
func NewKeypointCategory(id int, name, supercategory string, keypoints []string, skeleton [][2]int) (*Category, error) {
	c := &Category{
		ID:            id,
		Name:          name,
		Supercategory: supercategory,
		Keypoints:     keypoints,
		Skeleton:      skeleton,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that skeleton edges reference known keypoints
func (c *Category) Validate() error {
	if err := checkID("category_id", c.ID); err != nil {
		return err
	}
	if c.Name == "" {
		return invalidf("category %d: name is empty", c.ID)
	}
	if len(c.Skeleton) > 0 && len(c.Keypoints) == 0 {
		return invalidf("category %d: skeleton without keypoints", c.ID)
	}
	for _, edge := range c.Skeleton {
		for _, idx := range edge {
			if idx < 1 || idx > len(c.Keypoints) {
				return invalidf("category %d: skeleton edge %v references unknown keypoint", c.ID, edge)
			}
		}
	}
	return nil
}

type categoryFields struct {
	ID            *int     `json:"category_id"`
	Supercategory *string  `json:"supercategory"`
	Name          *string  `json:"name"`
	Keypoints     []string `json:"keypoints"`
	Skeleton      [][2]int `json:"skeleton"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var fields categoryFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return decodeError("category", err)
	}
	switch {
	case fields.ID == nil:
		return invalidf("category: missing category_id")
	case fields.Name == nil:
		return invalidf("category %d: missing name", *fields.ID)
	case fields.Supercategory == nil:
		return invalidf("category %d: missing supercategory", *fields.ID)
	}
	cat := Category{
		ID:            *fields.ID,
		Supercategory: *fields.Supercategory,
		Name:          *fields.Name,
		Keypoints:     fields.Keypoints,
		Skeleton:      fields.Skeleton,
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	*c = cat
	return nil
}

// ParseCategory decodes and validates the dictionary form of a category
func ParseCategory(data []byte) (*Category, error) {
	var c Category
	if err := c.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &c, nil
}
