package domain

import (
	"time"

	"github.com/goccy/go-json"
)

// DateFormat is the layout of Image.DateCaptured
const DateFormat = "2006-01-02 15:04:05"

// Image represents a single image of a dataset
type Image struct {
	ID           int    `json:"image_id"`
	FileName     string `json:"file_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	DateCaptured string `json:"date_captured"`
}

// NewImage creates a validated image. An empty dateCaptured defaults to now.
func NewImage(id int, fileName string, width, height int, dateCaptured string) (*Image, error) {
	if dateCaptured == "" {
		dateCaptured = time.Now().Format(DateFormat)
	}
	img := &Image{
		ID:           id,
		FileName:     fileName,
		Width:        width,
		Height:       height,
		DateCaptured: dateCaptured,
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate rejects images smaller than one pixel on either side
func (i *Image) Validate() error {
	if err := checkID("image_id", i.ID); err != nil {
		return err
	}
	if i.FileName == "" {
		return invalidf("image %d: file_name is empty", i.ID)
	}
	if i.Width < 1 || i.Height < 1 {
		return invalidf("image %d: width and height should be at least 1, got %dx%d", i.ID, i.Width, i.Height)
	}
	return nil
}

type imageFields struct {
	ID           *int    `json:"image_id"`
	FileName     *string `json:"file_name"`
	Width        *int    `json:"width"`
	Height       *int    `json:"height"`
	DateCaptured *string `json:"date_captured"`
}

func (i *Image) UnmarshalJSON(data []byte) error {
	var fields imageFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return decodeError("image", err)
	}
	switch {
	case fields.ID == nil:
		return invalidf("image: missing image_id")
	case fields.FileName == nil:
		return invalidf("image %d: missing file_name", *fields.ID)
	case fields.Width == nil || fields.Height == nil:
		return invalidf("image %d: missing width or height", *fields.ID)
	}
	img := Image{
		ID:       *fields.ID,
		FileName: *fields.FileName,
		Width:    *fields.Width,
		Height:   *fields.Height,
	}
	if fields.DateCaptured != nil {
		img.DateCaptured = *fields.DateCaptured
	} else {
		img.DateCaptured = time.Now().Format(DateFormat)
	}
	if err := img.Validate(); err != nil {
		return err
	}
	*i = img
	return nil
}

// ParseImage decodes and validates the dictionary form of an image
func ParseImage(data []byte) (*Image, error) {
	var img Image
	if err := img.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &img, nil
}
