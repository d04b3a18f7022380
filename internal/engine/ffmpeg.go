package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/3IMAD69/LocalCut-sub000/internal/logging"
)

// FFmpegEngine implements Decoder on top of the ffmpeg and ffprobe
// binaries.
type FFmpegEngine struct {
	ffmpegPath  string
	ffprobePath string
	log         *logging.Logger
}

// NewFFmpegEngine creates an FFmpeg-backed decode/encode engine.
func NewFFmpegEngine(ffmpegPath, ffprobePath string, log *logging.Logger) *FFmpegEngine {
	return &FFmpegEngine{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         log,
	}
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type probeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	ColorTransfer string `json:"color_transfer"`
}

// LoadInput probes a file with ffprobe and returns its metadata handle.
func (f *FFmpegEngine) LoadInput(ctx context.Context, path string) (*InputInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w, stderr: %s", path, err, stderr.String())
	}

	var probed probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &InputInfo{
		Path:      path,
		Container: probed.Format.FormatName,
	}

	if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		info.Duration = d
	}

	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			// Still images probe as a single video stream; treat either
			// way as a visual surface.
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.FrameRate = parseFrameRate(stream.AvgFrameRate)
			if isHDRTransfer(stream.ColorTransfer) {
				info.HDR = true
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
		}
	}

	return info, nil
}

func parseFrameRate(raw string) float64 {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return 0
	}
	num, _ := strconv.ParseFloat(parts[0], 64)
	den, _ := strconv.ParseFloat(parts[1], 64)
	if den == 0 {
		return 0
	}
	return num / den
}

func isHDRTransfer(transfer string) bool {
	switch transfer {
	case "smpte2084", "arib-std-b67":
		return true
	}
	return false
}

// ValidateConvertSpec checks that at least one track survives the requested
// options against the probed input.
func ValidateConvertSpec(spec ConvertSpec, input *InputInfo) error {
	var discarded []DiscardedTrack
	videoAlive := input.HasVideo
	audioAlive := input.HasAudio

	if input.HasVideo && spec.Video != nil && spec.Video.Discard {
		discarded = append(discarded, DiscardedTrack{Kind: "video", Reason: "discarded by request"})
		videoAlive = false
	}
	if input.HasAudio && spec.Audio != nil && spec.Audio.Discard {
		discarded = append(discarded, DiscardedTrack{Kind: "audio", Reason: "discarded by request"})
		audioAlive = false
	}
	if !input.HasVideo {
		discarded = append(discarded, DiscardedTrack{Kind: "video", Reason: "input has no video stream"})
	}
	if !input.HasAudio {
		discarded = append(discarded, DiscardedTrack{Kind: "audio", Reason: "input has no audio stream"})
	}

	if !videoAlive && !audioAlive {
		return &ConversionInvalidError{Discarded: discarded}
	}
	return nil
}

// BuildConvertArgs translates a ConvertSpec into ffmpeg arguments. The
// video filter chain applies rotation before crop, matching the fixed
// operation order of the coordinate pipeline; crop windows are expected to
// be pre-converted against the post-rotation dimensions.
func BuildConvertArgs(spec ConvertSpec) []string {
	args := []string{"-i", spec.InputPath, "-y"}

	if spec.Trim != nil {
		args = append(args,
			"-ss", fmt.Sprintf("%.3f", spec.Trim.Start),
			"-to", fmt.Sprintf("%.3f", spec.Trim.End),
		)
	}

	if spec.Video != nil && spec.Video.Discard {
		args = append(args, "-vn")
	} else if spec.Video != nil {
		if vf := buildVideoFilter(spec.Video); vf != "" {
			args = append(args, "-vf", vf)
		}
		codec := spec.Video.Codec
		if codec == "" {
			codec = "libx264"
		}
		args = append(args, "-c:v", codec)
	}

	if spec.Audio != nil && spec.Audio.Discard {
		args = append(args, "-an")
	} else if spec.Audio != nil {
		codec := spec.Audio.Codec
		if codec == "" {
			codec = "aac"
		}
		args = append(args, "-c:a", codec)
	}

	args = append(args, "-progress", "pipe:1", spec.OutputPath)
	return args
}

func buildVideoFilter(opts *VideoOptions) string {
	var filters []string

	switch opts.Rotate {
	case 90:
		filters = append(filters, "transpose=1")
	case 180:
		filters = append(filters, "transpose=1,transpose=1")
	case 270:
		filters = append(filters, "transpose=2")
	}

	if c := opts.Crop; c != nil {
		filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:%d", c.Width, c.Height, c.Left, c.Top))
	}

	return strings.Join(filters, ",")
}

// Convert runs one conversion job with progress tracking. It fails with
// ConversionInvalidError before spawning ffmpeg when the requested options
// leave no usable tracks.
func (f *FFmpegEngine) Convert(ctx context.Context, spec ConvertSpec, progress ProgressFunc) error {
	input, err := f.LoadInput(ctx, spec.InputPath)
	if err != nil {
		return fmt.Errorf("failed to probe input: %w", err)
	}

	if err := ValidateConvertSpec(spec, input); err != nil {
		return err
	}

	total := input.Duration
	if spec.Trim != nil {
		total = spec.Trim.End - spec.Trim.Start
	}

	args := BuildConvertArgs(spec)
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	f.log.WithField("output", filepath.Base(spec.OutputPath)).Debugf("converting %s", spec.InputPath)

	progressRegex := regexp.MustCompile(`out_time_ms=(\d+)`)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			matches := progressRegex.FindStringSubmatch(scanner.Text())
			if len(matches) < 2 {
				continue
			}
			timeMs, err := strconv.ParseFloat(matches[1], 64)
			if err != nil || total <= 0 {
				continue
			}
			pct := (timeMs / 1000000.0 / total) * 100
			if pct > 100 {
				pct = 100
			}
			if progress != nil {
				progress(pct)
			}
		}
	}()

	var stderrBuf bytes.Buffer
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			stderrBuf.WriteString(scanner.Text() + "\n")
		}
	}()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderrBuf.String())
	}

	if progress != nil {
		progress(100)
	}

	return nil
}
