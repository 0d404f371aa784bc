// Package media 封装外部媒体工具链（ffprobe/ffmpeg）.
// 探测与封面生成都通过 exec.CommandContext 派生子进程，
// ctx 到期即杀死子进程，上层用单次尝试超时约束它.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/vidvault/pkg/configs"
	nlog "github.com/yeisme/vidvault/pkg/log"
)

// ProbeResult 探测得到的媒体事实.
type ProbeResult struct {
	DurationSeconds float64
	Width           int
	Height          int
	Codec           string
	Bitrate         int64
	FrameRate       float64
	AudioCodec      string
	Format          string
}

// HasAudio 是否存在音频流.
func (p *ProbeResult) HasAudio() bool {
	return p.AudioCodec != ""
}

// Toolchain 外部工具链适配器.
type Toolchain struct {
	ffprobePath string
	ffmpegPath  string
}

// NewToolchain 根据配置创建工具链适配器.
func NewToolchain(cfg configs.MediaConfig) *Toolchain {
	ffprobe := cfg.FFprobePath
	if ffprobe == "" {
		ffprobe = configs.DefaultFFprobePath
	}

	ffmpeg := cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = configs.DefaultFFmpegPath
	}

	return &Toolchain{ffprobePath: ffprobe, ffmpegPath: ffmpeg}
}

// ffprobeOutput ffprobe -print_format json 的输出结构（只取用到的字段）.
type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe 探测本地文件的媒体元数据.
func (t *Toolchain) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w (%s)", path, err, strings.TrimSpace(stderr.String()))
	}

	var out ffprobeOutput
	if err := sonic.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := &ProbeResult{
		Format: normalizeFormat(out.Format.FormatName),
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		result.DurationSeconds = d
	}

	if br, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
		result.Bitrate = br
	}

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if result.Codec == "" {
				result.Codec = s.CodecName
				result.Width = s.Width
				result.Height = s.Height
				result.FrameRate = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
			}
		}
	}

	nlog.Logger().Debug().
		Str("path", path).
		Float64("duration", result.DurationSeconds).
		Str("codec", result.Codec).
		Dur("took", time.Since(start)).
		Msg("probed media file")

	return result, nil
}

// Thumbnail 在指定时间点抽取一帧，输出 JPEG 到 dst.
func (t *Toolchain) Thumbnail(ctx context.Context, src string, at time.Duration, dst string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y",
		"-ss", fmt.Sprintf("%.3f", at.Seconds()),
		"-i", src,
		"-vframes", "1",
		"-vf", "scale=640:-2",
		"-q:v", "4",
		dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg thumbnail %s: %w (%s)", src, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

// parseFrameRate 解析 "30000/1001" 形式的帧率.
func parseFrameRate(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}

	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 1 {
		if f, err := strconv.ParseFloat(parts[0], 64); err == nil {
			return f
		}

		return 0
	}

	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)

	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}

	return num / den
}

// normalizeFormat ffprobe 的 format_name 可能是逗号分隔的别名列表，取第一个.
func normalizeFormat(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[:i]
	}

	return s
}
