// Package video extracts frames from video files and assembles frame
// directories back into videos through ffmpeg.
package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/fileio"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	DefaultFrameRate      = 30.0
	DefaultImageExtension = "jpg"
)

// codecs maps a container extension to the ffmpeg encoder used for it
var codecs = map[string][]string{
	".mp4":  {"-c:v", "mpeg4", "-pix_fmt", "yuv420p"},
	".avi":  {"-c:v", "mjpeg"},
	".wmv":  {"-c:v", "wmv2"},
	".mov":  {"-c:v", "mpeg4", "-pix_fmt", "yuv420p"},
	".flv":  {"-c:v", "flv1"},
	".mkv":  {"-c:v", "mpeg4", "-pix_fmt", "yuv420p"},
	".mpeg": {"-c:v", "mpeg2video", "-pix_fmt", "yuv420p"},
}

// ExtractOptions selects which frames are written. IntervalSeconds wins over
// FrameRate when both are set. NumFrames caps the number of written frames.
type ExtractOptions struct {
	FrameRate       float64
	IntervalSeconds float64
	NumFrames       int
	Ext             string
}

// Tool runs ffmpeg and ffprobe
type Tool struct {
	FFmpeg  string
	FFprobe string
	Log     logrus.FieldLogger
	fs      afero.Fs
}

// New creates a Tool running ffmpeg and ffprobe from PATH
func New(log logrus.FieldLogger) *Tool {
	return &Tool{FFmpeg: "ffmpeg", FFprobe: "ffprobe", Log: log, fs: afero.NewOsFs()}
}

func checkExtension(path string, extensions []string) error {
	if !fileio.HasExtension(path, extensions) {
		return fmt.Errorf("%w: extension of '%s' is not one of %s", domain.ErrInvalidValue, path, strings.Join(extensions, " "))
	}
	return nil
}

// imageExt normalizes ext to a supported ".ext"
func imageExt(ext string) (string, error) {
	if ext == "" {
		ext = DefaultImageExtension
	}
	ext = "." + strings.TrimPrefix(strings.ToLower(ext), ".")
	if err := checkExtension("frame"+ext, fileio.ImageExtensions); err != nil {
		return "", err
	}
	return ext, nil
}

// FrameRate probes the average frame rate of a video with ffprobe
func (t *Tool) FrameRate(ctx context.Context, in string) (float64, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.FFprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("while probing '%s': %w: %s", in, err, strings.TrimSpace(stderr.String()))
	}
	return parseRate(strings.TrimSpace(string(out)))
}

// parseRate reads an ffprobe rate such as "30000/1001"
func parseRate(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: frame rate '%s'", domain.ErrInvalidValue, s)
	}
	d := 1.0
	if found {
		if d, err = strconv.ParseFloat(den, 64); err != nil || d == 0 {
			return 0, fmt.Errorf("%w: frame rate '%s'", domain.ErrInvalidValue, s)
		}
	}
	if n/d <= 0 {
		return 0, fmt.Errorf("%w: frame rate '%s'", domain.ErrInvalidValue, s)
	}
	return n / d, nil
}

// frameInterval is the number of source frames between two written frames
func frameInterval(fps float64, opts ExtractOptions) int {
	var interval float64
	switch {
	case opts.IntervalSeconds > 0:
		interval = fps * opts.IntervalSeconds
	case opts.FrameRate > 0:
		interval = fps / opts.FrameRate
	default:
		interval = fps / DefaultFrameRate
	}
	return max(int(math.Round(interval)), 1)
}

// ExtractFrames writes every n-th frame of in to outDir as {frame}.{ext},
// frames counted from 1. It returns the written paths.
func (t *Tool) ExtractFrames(ctx context.Context, in, outDir string, opts ExtractOptions) ([]string, error) {
	if err := checkExtension(in, fileio.VideoExtensions); err != nil {
		return nil, err
	}
	ext, err := imageExt(opts.Ext)
	if err != nil {
		return nil, err
	}
	if !fileio.Exists(t.fs, in) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, in)
	}
	if err := fileio.MakeDirectory(t.fs, outDir); err != nil {
		return nil, err
	}
	fps, err := t.FrameRate(ctx, in)
	if err != nil {
		return nil, err
	}
	interval := frameInterval(fps, opts)
	log := t.Log.WithFields(logrus.Fields{"input": in, "fps": fps, "interval": interval})
	log.Info("extracting frames")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.FFmpeg, "-v", "error", "-i", in, "-f", "image2pipe", "-c:v", "png", "-")
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("while starting ffmpeg: %w", err)
	}

	var written []string
	r := bufio.NewReader(stdout)
	count := 0
	for opts.NumFrames <= 0 || len(written) < opts.NumFrames {
		frame, err := png.Decode(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			cancel()
			cmd.Wait()
			return written, fmt.Errorf("while decoding frame %d: %w", count+1, err)
		}
		count++
		if count%interval != 0 {
			continue
		}
		path := filepath.Join(outDir, strconv.Itoa(count)+ext)
		if err := imaging.Save(frame, path); err != nil {
			cancel()
			cmd.Wait()
			return written, fmt.Errorf("while saving frame %d: %w", count, err)
		}
		log.WithField("path", path).Debug("extracted frame")
		written = append(written, path)
	}
	// stop ffmpeg early once enough frames were kept
	stopped := opts.NumFrames > 0 && len(written) >= opts.NumFrames
	if stopped {
		cancel()
	}
	io.Copy(io.Discard, r)
	if err := cmd.Wait(); err != nil && !stopped {
		return written, fmt.Errorf("while running ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	log.WithField("frames", len(written)).Info("extracted frames")
	return written, nil
}

// frameFiles lists the images of dir ordered by numeric stem when every stem
// is a number, by name otherwise
func (t *Tool) frameFiles(dir string) ([]string, error) {
	files, err := fileio.ListFiles(t.fs, dir, false)
	if err != nil {
		return nil, err
	}
	var frames []string
	for _, f := range files {
		if fileio.HasExtension(f, fileio.ImageExtensions) {
			frames = append(frames, f)
		}
	}
	numeric := true
	stems := make(map[string]int, len(frames))
	for _, f := range frames {
		n, err := strconv.Atoi(strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
		if err != nil {
			numeric = false
			break
		}
		stems[f] = n
	}
	sort.SliceStable(frames, func(i, j int) bool {
		if numeric {
			return stems[frames[i]] < stems[frames[j]]
		}
		return frames[i] < frames[j]
	})
	return frames, nil
}

// CreateVideo encodes the images of inDir, in order, into out. Frames whose
// size differs from the first one are resized to match.
func (t *Tool) CreateVideo(ctx context.Context, inDir, out string, frameRate float64) error {
	if err := checkExtension(out, fileio.VideoExtensions); err != nil {
		return err
	}
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	frames, err := t.frameFiles(inDir)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("%w: no frames in '%s'", domain.ErrNotFound, inDir)
	}
	if err := fileio.MakeDirectory(t.fs, filepath.Dir(out)); err != nil {
		return err
	}

	first, err := imaging.Open(frames[0])
	if err != nil {
		return fmt.Errorf("while decoding '%s': %w", frames[0], err)
	}
	size := first.Bounds().Size()
	log := t.Log.WithFields(logrus.Fields{"output": out, "frames": len(frames), "fps": frameRate})
	log.Info("creating video")

	args := []string{"-y", "-v", "error", "-f", "image2pipe", "-c:v", "png",
		"-framerate", strconv.FormatFloat(frameRate, 'f', -1, 64), "-i", "-"}
	args = append(args, codecs[strings.ToLower(filepath.Ext(out))]...)
	args = append(args, out)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.FFmpeg, args...)
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("while starting ffmpeg: %w", err)
	}

	writeErr := func() error {
		defer stdin.Close()
		w := bufio.NewWriter(stdin)
		for i, path := range frames {
			var frame image.Image = first
			if i > 0 {
				if frame, err = imaging.Open(path); err != nil {
					return fmt.Errorf("while decoding '%s': %w", path, err)
				}
			}
			if frame.Bounds().Size() != size {
				frame = imaging.Resize(frame, size.X, size.Y, imaging.Lanczos)
			}
			if err := png.Encode(w, frame); err != nil {
				return fmt.Errorf("while encoding frame '%s': %w", path, err)
			}
			log.WithField("frame", i+1).Debug("encoded frame")
		}
		return w.Flush()
	}()
	waitErr := cmd.Wait()
	if waitErr != nil {
		os.Remove(out)
		return fmt.Errorf("while running ffmpeg: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	if writeErr != nil {
		os.Remove(out)
		return writeErr
	}
	log.Info("created video")
	return nil
}
