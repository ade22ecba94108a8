package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// AnnotationDBSupercategory is the supercategory of options imported from an
// annotation database
const AnnotationDBSupercategory = "option"

// GetDatabase opens an annotation database
func GetDatabase(filename string) (*sql.DB, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, filename)
	}
	return sql.Open("sqlite", filename)
}

type dbImage struct {
	id   int
	path string
}

func queryImages(ctx context.Context, db *sql.DB) ([]dbImage, error) {
	rows, err := db.QueryContext(ctx, `select id, path from images order by id`)
	if err != nil {
		return nil, fmt.Errorf("while listing images: %w", err)
	}
	defer rows.Close()
	var images []dbImage
	for rows.Next() {
		var img dbImage
		if err := rows.Scan(&img.id, &img.path); err != nil {
			return nil, fmt.Errorf("while scanning image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// queryVotes counts the votes of every option per image for a stage
func queryVotes(ctx context.Context, db *sql.DB, stage int) (map[int]map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
select image_id, option_value, count(*)
from annotations
where stage_index = ?
group by image_id, option_value
    `, stage)
	if err != nil {
		return nil, fmt.Errorf("while counting annotations of stage %d: %w", stage, err)
	}
	defer rows.Close()
	votes := map[int]map[string]int{}
	for rows.Next() {
		var imageID, count int
		var option string
		if err := rows.Scan(&imageID, &option, &count); err != nil {
			return nil, fmt.Errorf("while scanning annotation: %w", err)
		}
		if votes[imageID] == nil {
			votes[imageID] = map[string]int{}
		}
		votes[imageID][option] = count
	}
	return votes, rows.Err()
}

// majority picks the most voted option, the lexically smallest on ties
func majority(votes map[string]int) string {
	best, bestCount := "", -1
	for option, count := range votes {
		if count > bestCount || (count == bestCount && option < best) {
			best, bestCount = option, count
		}
	}
	return best
}

// FromAnnotationDB creates the dataset name from the classification votes of
// one stage of an annotation database. Every distinct option becomes a
// category, every image gets the majority vote as its label and images with
// no vote in the stage are imported unlabeled.
func FromAnnotationDB(ctx context.Context, name, dbPath, imageDir string, stage int, rootDir string, opts ...Option) (*Dataset, error) {
	d, err := openAbsent(name, rootDir, opts)
	if err != nil {
		return nil, err
	}
	db, err := GetDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	images, err := queryImages(ctx, db)
	if err != nil {
		return nil, err
	}
	votes, err := queryVotes(ctx, db, stage)
	if err != nil {
		return nil, err
	}

	optionSet := map[string]struct{}{}
	for _, imageVotes := range votes {
		for option := range imageVotes {
			optionSet[option] = struct{}{}
		}
	}
	options := make([]string, 0, len(optionSet))
	for option := range optionSet {
		options = append(options, option)
	}
	sort.Strings(options)

	if err := d.Initialize(); err != nil {
		return nil, err
	}
	d.emit(hook.ImportStart, hook.Payload{Format: "ANNOTATION_DB", Path: dbPath, Total: len(images)})
	d.log.WithFields(logrus.Fields{"images": len(images), "options": len(options), "stage": stage}).Info("importing annotation database")

	categoryIDs := map[string]int{}
	for i, option := range options {
		cat, err := domain.NewCategory(i+1, option, AnnotationDBSupercategory)
		if err != nil {
			return nil, err
		}
		if err := d.AddCategories(ctx, cat); err != nil {
			return nil, err
		}
		categoryIDs[option] = cat.ID
	}

	annID := 0
	for _, row := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := row.path
		if !filepath.IsAbs(path) {
			path = filepath.Join(imageDir, path)
		}
		width, height, err := ImageSize(d.files, path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(imageDir, path)
		if err != nil {
			return nil, err
		}
		img, err := domain.NewImage(row.id, filepath.ToSlash(rel), width, height, "")
		if err != nil {
			return nil, err
		}
		if err := d.AddImages(ctx, img); err != nil {
			return nil, err
		}
		imageVotes, ok := votes[row.id]
		if !ok {
			continue
		}
		annID++
		ann, err := domain.NewClassification(annID, row.id, categoryIDs[majority(imageVotes)])
		if err != nil {
			return nil, err
		}
		if err := d.AddAnnotations(ctx, ann); err != nil {
			return nil, err
		}
	}

	if err := d.copyRaw(imageDir); err != nil {
		return nil, err
	}
	d.emit(hook.ImportEnd, hook.Payload{Format: "ANNOTATION_DB", Total: len(images)})
	return d, nil
}
