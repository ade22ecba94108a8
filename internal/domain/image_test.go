package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImage(t *testing.T) {
	t.Run("id 1 is valid", func(t *testing.T) {
		img, err := NewImage(1, "a.png", 10, 20, "")
		require.NoError(t, err)
		_, err = time.Parse(DateFormat, img.DateCaptured)
		assert.NoError(t, err)
	})

	t.Run("rejects non positive ids", func(t *testing.T) {
		for _, id := range []int{0, -3} {
			_, err := NewImage(id, "a.png", 10, 20, "")
			assert.True(t, errors.Is(err, ErrInvalidValue))
		}
	})

	t.Run("rejects empty sizes", func(t *testing.T) {
		_, err := NewImage(1, "a.png", 0, 20, "")
		assert.True(t, errors.Is(err, ErrInvalidValue))
		_, err = ParseImage([]byte(`{"image_id": 1, "file_name": "a.png", "width": 10, "height": 0}`))
		assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
	})

	t.Run("round trips", func(t *testing.T) {
		img, err := NewImage(7, "dir/a.png", 10, 20, "2020-02-02 10:00:00")
		require.NoError(t, err)
		assert.Equal(t, img, roundTrip(t, img))
	})

	t.Run("defaults date when missing", func(t *testing.T) {
		img, err := ParseImage([]byte(`{"image_id": 1, "file_name": "a.png", "width": 1, "height": 1}`))
		require.NoError(t, err)
		assert.NotEmpty(t, img.DateCaptured)
	})

	t.Run("rejects wrong types", func(t *testing.T) {
		_, err := ParseImage([]byte(`{"image_id": true, "file_name": "a.png", "width": 1, "height": 1}`))
		assert.True(t, errors.Is(err, ErrInvalidType), "got %v", err)
		_, err = ParseImage([]byte(`{"image_id": 1, "file_name": 3, "width": 1, "height": 1}`))
		assert.True(t, errors.Is(err, ErrInvalidType), "got %v", err)
	})
}

func TestCategory(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		cat, err := NewKeypointCategory(1, "person", "object", []string{"head", "neck"}, [][2]int{{1, 2}})
		require.NoError(t, err)
		assert.Equal(t, cat, roundTrip(t, cat))

		plain, err := NewCategory(2, "dog", "animal")
		require.NoError(t, err)
		assert.Equal(t, plain, roundTrip(t, plain))
	})

	t.Run("skeleton references keypoints", func(t *testing.T) {
		_, err := NewKeypointCategory(1, "person", "object", []string{"head"}, [][2]int{{1, 2}})
		assert.True(t, errors.Is(err, ErrInvalidValue))
	})

	t.Run("requires supercategory when decoding", func(t *testing.T) {
		_, err := ParseCategory([]byte(`{"category_id": 1, "name": "x"}`))
		assert.True(t, errors.Is(err, ErrInvalidValue))
	})
}

func TestParseTask(t *testing.T) {
	task, err := ParseTask("Object_Detection")
	require.NoError(t, err)
	assert.Equal(t, TaskObjectDetection, task)

	task, err = ParseTask("text-recognition")
	require.NoError(t, err)
	assert.Equal(t, TaskTextRecognition, task)

	_, err = ParseTask("pose")
	assert.True(t, errors.Is(err, ErrInvalidValue))
}
