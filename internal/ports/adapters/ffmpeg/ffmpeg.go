package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/clipmoment/clipmoment/internal/domain/timecode"
	"github.com/clipmoment/clipmoment/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

var _ ports.VideoTool = (*Adapter)(nil)

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) TranscodeSegment(ctx context.Context, inPath string, start, end timecode.TimeCode, res ports.Resolution, outPath string) error {
	// setsar pins the pixel aspect to square so scaled output is never
	// anamorphic.
	vf := fmt.Sprintf("scale=%dx%d,setsar=1:1", res.Width, res.Height)
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", start.String(),
		"-to", end.String(),
		"-i", inPath,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg transcode segment: %w\n%s", err, tail(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, tail(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func (a *Adapter) ProbeInfo(ctx context.Context, inPath string) (ports.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("ffprobe info: %w\n%s", err, tail(b))
	}

	var probe probeResult
	if err := json.Unmarshal(b, &probe); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := ports.VideoInfo{}
	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.DurationSec = d
	}
	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.FPS = parseFrameRate(s.RFrameRate)
		if n, err := strconv.Atoi(s.NbFrames); err == nil {
			info.FrameCount = n
		}
		break
	}
	// Some containers omit nb_frames; estimate from duration and rate.
	if info.FrameCount == 0 && info.FPS > 0 && info.DurationSec > 0 {
		info.FrameCount = int(math.Round(info.DurationSec * info.FPS))
	}
	return info, nil
}

func (a *Adapter) ExtractFrame(ctx context.Context, inPath string, atSec float64, outPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", strconv.FormatFloat(atSec, 'f', 3, 64),
		"-i", inPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract frame: %w\n%s", err, tail(b))
	}
	return nil
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
}

// parseFrameRate converts ffprobe's rational rate ("30000/1001") to a float.
func parseFrameRate(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}
	parts := strings.SplitN(s, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

// tail keeps error output readable when ffmpeg dumps its full log.
func tail(b []byte) string {
	const keep = 2048
	if len(b) <= keep {
		return string(b)
	}
	return "..." + string(b[len(b)-keep:])
}
