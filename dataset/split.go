package dataset

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/sirupsen/logrus"
)

type SplitOptions struct {
	TrainRatio float64
	// ValRatio defaults to 1 - TrainRatio when zero
	ValRatio float64
	// TestRatio of zero gives every image after train to val
	TestRatio float64
	Seed      int64
}

// SplitResult holds the image ids of every subset
type SplitResult struct {
	Train     []int
	Val       []int
	Test      []int
	Unlabeled []int
}

func (o SplitOptions) normalized() (train, val, test float64, err error) {
	train, val, test = o.TrainRatio, o.ValRatio, o.TestRatio
	if val == 0 {
		val = 1 - train
	}
	if train < 0 || val < 0 || test < 0 {
		return 0, 0, 0, fmt.Errorf("%w: negative split ratio (%v, %v, %v)", domain.ErrInvalidValue, train, val, test)
	}
	total := train + val + test
	if total == 0 {
		return 0, 0, 0, fmt.Errorf("%w: split ratios sum to zero", domain.ErrInvalidValue)
	}
	return train / total, val / total, test / total, nil
}

// partition shuffles ids with a generator seeded by seed and cuts it by ratio
func partition(ids []int, train, val, test float64, seed int64) (trainIDs, valIDs, testIDs []int) {
	shuffled := append([]int(nil), ids...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	n := len(shuffled)
	nTrain := min(int(math.RoundToEven(float64(n)*train)), n)
	nVal := min(int(math.RoundToEven(float64(n)*val)), n-nTrain)
	if test == 0 {
		nVal = n - nTrain
	}
	trainIDs = shuffled[:nTrain]
	valIDs = shuffled[nTrain : nTrain+nVal]
	testIDs = shuffled[nTrain+nVal:]
	return trainIDs, valIDs, testIDs
}

// Split partitions the labeled images into train, val and test and records
// the unlabeled ones. Every set file is rewritten.
func (d *Dataset) Split(ctx context.Context, opts SplitOptions) (*SplitResult, error) {
	train, val, test, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	labeled, err := d.LabeledImages(ctx, true)
	if err != nil {
		return nil, err
	}
	unlabeled, err := d.LabeledImages(ctx, false)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(labeled))
	for i, img := range labeled {
		ids[i] = img.ID
	}
	result := &SplitResult{Unlabeled: make([]int, len(unlabeled))}
	for i, img := range unlabeled {
		result.Unlabeled[i] = img.ID
	}
	result.Train, result.Val, result.Test = partition(ids, train, val, test, opts.Seed)

	for name, ids := range map[domain.SetName][]int{
		domain.SetTrain:     result.Train,
		domain.SetVal:       result.Val,
		domain.SetTest:      result.Test,
		domain.SetUnlabeled: result.Unlabeled,
	} {
		if err := d.sets.Save(ctx, name, ids); err != nil {
			return nil, err
		}
	}
	d.log.WithFields(logrus.Fields{
		"train":     len(result.Train),
		"val":       len(result.Val),
		"test":      len(result.Test),
		"unlabeled": len(result.Unlabeled),
		"seed":      opts.Seed,
	}).Info("split dataset")
	d.emit(hook.SplitEnd, hook.Payload{Total: len(ids)})
	return result, nil
}
