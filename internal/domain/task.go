package domain

import "strings"

// Task is the kind of label an annotation carries
type Task string

const (
	TaskClassification    Task = "classification"
	TaskObjectDetection   Task = "object_detection"
	TaskSegmentation      Task = "segmentation"
	TaskKeypointDetection Task = "keypoint_detection"
	TaskRegression        Task = "regression"
	TaskTextRecognition   Task = "text_recognition"
)

// Tasks lists every known task in declaration order
var Tasks = []Task{
	TaskClassification,
	TaskObjectDetection,
	TaskSegmentation,
	TaskKeypointDetection,
	TaskRegression,
	TaskTextRecognition,
}

// ParseTask resolves a task name case-insensitively. Dashes and spaces are
// accepted in place of underscores.
func ParseTask(name string) (Task, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, task := range Tasks {
		if string(task) == normalized {
			return task, nil
		}
	}
	return "", invalidf("unknown task %q", name)
}

func (t Task) String() string {
	return string(t)
}
