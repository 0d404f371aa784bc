// Package analyzer 基于媒体事实的启发式敏感度评分.
//
// Analyze 是纯函数：输入为探测元数据 + 文件事实，输出评分、状态、等级与命中
// 分类. 每条规则贡献一个固定权重，总分截断到 1. 同样的输入永远得到同样的输出，
// 重试处理产生的评分与首次一致.
package analyzer

import (
	"fmt"
	"math"
	"strings"
)

// Input 评分输入：探测得到的元数据与文件事实.
type Input struct {
	DurationSeconds float64
	Width           int
	Height          int
	Codec           string
	Bitrate         int64 // bits per second
	FrameRate       float64
	AudioCodec      string
	Container       string
	FileSize        int64
	Filename        string
}

// Result 评分输出.
type Result struct {
	Score      float64
	Status     string // safe / flagged
	Level      string // low / medium / high / unknown
	Categories []string
	Details    string
}

// 状态与等级常量，与视频模型的枚举值一致.
const (
	StatusSafe    = "safe"
	StatusFlagged = "flagged"

	LevelLow     = "low"
	LevelMedium  = "medium"
	LevelHigh    = "high"
	LevelUnknown = "unknown"
)

// 规则阈值.
const (
	longDurationSeconds     = 7200.0
	extremeDurationSeconds  = 10800.0
	minWidth                = 320
	minHeight               = 240
	maxWidth                = 7680
	maxHeight               = 4320
	highBitrateBps          = 15_000_000
	lowBitrateBps           = 100_000
	shortVideoSeconds       = 60.0
	extremeFrameRate        = 120.0
	minFrameRate            = 15.0
	aspectTolerance         = 0.05
	highDataRateBytesPerSec = 10_000_000
	lowDataRateBytesPerSec  = 50_000
	minBytesPerSecond       = 100_000

	flagThreshold   = 0.7
	reviewThreshold = 0.4
)

// knownAspects 常见宽高比.
var knownAspects = []float64{16.0 / 9.0, 4.0 / 3.0, 21.0 / 9.0, 1.0, 9.0 / 16.0}

// knownContainers 常见容器格式.
var knownContainers = map[string]struct{}{
	"mp4": {}, "avi": {}, "mov": {}, "mkv": {}, "webm": {},
}

// AnalyzeError 元数据不可读时的兜底结果：不拦截内容，但标注 analysis_error.
func AnalyzeError() Result {
	return Result{
		Score:      0,
		Status:     StatusSafe,
		Level:      LevelUnknown,
		Categories: []string{"analysis_error"},
		Details:    "metadata unreadable, analysis skipped",
	}
}

// Analyze 对探测结果评分. in 为 nil 时等价于 AnalyzeError.
func Analyze(in *Input) Result {
	if in == nil {
		return AnalyzeError()
	}

	var (
		score      float64
		categories []string
	)

	hit := func(category string, weight float64) {
		score += weight
		categories = append(categories, category)
	}

	// 时长
	if in.DurationSeconds > longDurationSeconds {
		hit("long_duration", 0.10)
	}

	if in.DurationSeconds > extremeDurationSeconds {
		hit("extremely_long_duration", 0.05)
	}

	// 分辨率
	switch {
	case in.Width == 0 || in.Height == 0:
		hit("no_video_stream", 0.30)
	case in.Width < minWidth || in.Height < minHeight || in.Width > maxWidth || in.Height > maxHeight:
		hit("unusual_resolution", 0.15)
	}

	// 码率
	if in.Bitrate > highBitrateBps {
		hit("high_bitrate", 0.10)
	}

	if in.Bitrate > 0 && in.Bitrate < lowBitrateBps && in.DurationSeconds > shortVideoSeconds {
		hit("low_bitrate", 0.15)
	}

	// 帧率
	if in.FrameRate > extremeFrameRate || (in.FrameRate > 0 && in.FrameRate < minFrameRate) {
		hit("unusual_framerate", 0.10)
	}

	// 宽高比
	if in.Width > 0 && in.Height > 0 && !aspectKnown(float64(in.Width)/float64(in.Height)) {
		hit("suspicious_aspect_ratio", 0.10)
	}

	// 音频
	if in.AudioCodec == "" && in.DurationSeconds > shortVideoSeconds {
		hit("no_audio_long_video", 0.05)
	}

	// 数据率（字节/秒）
	if in.DurationSeconds > 0 && in.FileSize > 0 {
		bytesPerSecond := float64(in.FileSize) / in.DurationSeconds

		if bytesPerSecond > highDataRateBytesPerSec {
			hit("high_data_rate", 0.10)
		}

		if bytesPerSecond < lowDataRateBytesPerSec && in.DurationSeconds > shortVideoSeconds {
			hit("low_data_rate", 0.15)
		}
	}

	// 容器格式
	if _, ok := knownContainers[strings.ToLower(in.Container)]; !ok {
		hit("unusual_format", 0.05)
	}

	// 元数据完整性
	if in.DurationSeconds <= 0 || in.Codec == "" || strings.EqualFold(in.Codec, "unknown") {
		hit("corrupt_metadata", 0.25)
	}

	// 文件大小与时长明显不符
	if in.FileSize > 0 && float64(in.FileSize) < in.DurationSeconds*minBytesPerSecond {
		hit("suspiciously_small_file", 0.15)
	}

	score = math.Min(score, 1.0)

	result := Result{
		Score:      round2(score),
		Categories: categories,
	}

	switch {
	case score > flagThreshold:
		result.Status = StatusFlagged
		result.Level = LevelHigh
	case score > reviewThreshold:
		result.Status = StatusFlagged
		result.Level = LevelMedium
		result.Categories = append(result.Categories, "manual_review_recommended")
	default:
		result.Status = StatusSafe
		result.Level = LevelLow
	}

	result.Details = fmt.Sprintf("%d signal(s), score %.2f", len(categories), result.Score)

	return result
}

// aspectKnown 宽高比是否在常见比例的 5% 容差内.
func aspectKnown(ratio float64) bool {
	for _, known := range knownAspects {
		if math.Abs(ratio-known)/known <= aspectTolerance {
			return true
		}
	}

	return false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
