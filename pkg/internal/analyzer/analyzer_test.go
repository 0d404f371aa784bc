package analyzer

import (
	"reflect"
	"slices"
	"testing"
)

// cleanInput 一条不会命中任何规则的基准输入：10 分钟 1080p H.264 MP4.
func cleanInput() *Input {
	return &Input{
		DurationSeconds: 600,
		Width:           1920,
		Height:          1080,
		Codec:           "h264",
		Bitrate:         4_000_000,
		FrameRate:       30,
		AudioCodec:      "aac",
		Container:       "mp4",
		FileSize:        300_000_000, // 500 KB/s
		Filename:        "demo.mp4",
	}
}

// TestCleanVideoIsSafe 正常视频评分为 0，safe/low.
func TestCleanVideoIsSafe(t *testing.T) {
	r := Analyze(cleanInput())

	if r.Score != 0 {
		t.Errorf("score = %v, want 0 (categories: %v)", r.Score, r.Categories)
	}

	if r.Status != StatusSafe || r.Level != LevelLow {
		t.Errorf("status=%s level=%s, want safe/low", r.Status, r.Level)
	}
}

// TestDurationBoundary 7199 秒不触发 long_duration，7201 秒触发.
func TestDurationBoundary(t *testing.T) {
	in := cleanInput()
	in.DurationSeconds = 7199
	in.FileSize = int64(in.DurationSeconds * 500_000)

	if r := Analyze(in); slices.Contains(r.Categories, "long_duration") {
		t.Error("7199s should not fire long_duration")
	}

	in.DurationSeconds = 7201
	in.FileSize = int64(in.DurationSeconds * 500_000)

	if r := Analyze(in); !slices.Contains(r.Categories, "long_duration") {
		t.Error("7201s should fire long_duration")
	}
}

// TestExtremeDurationStacks 超过 10800 秒同时命中两条时长规则.
func TestExtremeDurationStacks(t *testing.T) {
	in := cleanInput()
	in.DurationSeconds = 12000
	in.FileSize = int64(in.DurationSeconds * 500_000)

	r := Analyze(in)

	if !slices.Contains(r.Categories, "long_duration") || !slices.Contains(r.Categories, "extremely_long_duration") {
		t.Errorf("expected both duration categories, got %v", r.Categories)
	}
}

// TestNoVideoStream 宽或高为零按无视频流处理.
func TestNoVideoStream(t *testing.T) {
	in := cleanInput()
	in.Width = 0

	r := Analyze(in)

	if !slices.Contains(r.Categories, "no_video_stream") {
		t.Errorf("expected no_video_stream, got %v", r.Categories)
	}

	// 零分辨率不再叠加 unusual_resolution
	if slices.Contains(r.Categories, "unusual_resolution") {
		t.Error("unusual_resolution must not stack on no_video_stream")
	}

	// 零分辨率也不评估宽高比
	if slices.Contains(r.Categories, "suspicious_aspect_ratio") {
		t.Error("aspect ratio must not be evaluated without resolution")
	}
}

// TestUnusualResolution 分辨率超界.
func TestUnusualResolution(t *testing.T) {
	in := cleanInput()
	in.Width, in.Height = 160, 90

	r := Analyze(in)

	if !slices.Contains(r.Categories, "unusual_resolution") {
		t.Errorf("expected unusual_resolution, got %v", r.Categories)
	}
}

// TestAspectRatio 常见比例不触发，奇异比例触发.
func TestAspectRatio(t *testing.T) {
	in := cleanInput()
	// 9:16 竖屏在常见列表内
	in.Width, in.Height = 1080, 1920

	if r := Analyze(in); slices.Contains(r.Categories, "suspicious_aspect_ratio") {
		t.Error("9:16 should be a known aspect")
	}

	in = cleanInput()
	in.Width, in.Height = 1000, 350 // ≈2.857

	if r := Analyze(in); !slices.Contains(r.Categories, "suspicious_aspect_ratio") {
		t.Error("2.86:1 should be suspicious")
	}
}

// TestFrameRateRules 非零低帧率与超高帧率都触发；零帧率不触发.
func TestFrameRateRules(t *testing.T) {
	in := cleanInput()
	in.FrameRate = 10

	if r := Analyze(in); !slices.Contains(r.Categories, "unusual_framerate") {
		t.Error("10fps should fire unusual_framerate")
	}

	in.FrameRate = 144

	if r := Analyze(in); !slices.Contains(r.Categories, "unusual_framerate") {
		t.Error("144fps should fire unusual_framerate")
	}

	in.FrameRate = 0

	if r := Analyze(in); slices.Contains(r.Categories, "unusual_framerate") {
		t.Error("0fps must not fire unusual_framerate")
	}
}

// TestLowRateLongVideo 长视频 + 低码率 + 无音频 + 低数据率的组合评为 medium 并建议人工复核.
func TestLowRateLongVideo(t *testing.T) {
	in := &Input{
		DurationSeconds: 10800, // 3 小时
		Width:           1280,
		Height:          720,
		Codec:           "h264",
		Bitrate:         50_000, // 50 kb/s
		FrameRate:       30,
		AudioCodec:      "",
		Container:       "mp4",
		FileSize:        67_500_000, // 6250 B/s
		Filename:        "long.mp4",
	}

	r := Analyze(in)

	for _, want := range []string{"long_duration", "low_bitrate", "no_audio_long_video", "low_data_rate", "suspiciously_small_file"} {
		if !slices.Contains(r.Categories, want) {
			t.Errorf("expected category %s, got %v", want, r.Categories)
		}
	}

	if r.Status != StatusFlagged || r.Level != LevelMedium {
		t.Errorf("status=%s level=%s, want flagged/medium", r.Status, r.Level)
	}

	if !slices.Contains(r.Categories, "manual_review_recommended") {
		t.Error("medium band must add manual_review_recommended")
	}
}

// TestHighBand 大量信号叠加评为 high，分数截断到 1.
func TestHighBand(t *testing.T) {
	in := &Input{
		DurationSeconds: 12000,
		Width:           0,
		Height:          0,
		Codec:           "unknown",
		Bitrate:         20_000_000,
		FrameRate:       200,
		AudioCodec:      "",
		Container:       "xyz",
		FileSize:        1000,
		Filename:        "weird.bin",
	}

	r := Analyze(in)

	if r.Score > 1.0 {
		t.Errorf("score must be clamped to 1, got %v", r.Score)
	}

	if r.Status != StatusFlagged || r.Level != LevelHigh {
		t.Errorf("status=%s level=%s, want flagged/high", r.Status, r.Level)
	}
}

// TestCorruptMetadata codec unknown 或时长缺失触发 corrupt_metadata.
func TestCorruptMetadata(t *testing.T) {
	in := cleanInput()
	in.Codec = "unknown"

	if r := Analyze(in); !slices.Contains(r.Categories, "corrupt_metadata") {
		t.Error("codec=unknown should fire corrupt_metadata")
	}

	in = cleanInput()
	in.DurationSeconds = 0
	in.FileSize = 0

	if r := Analyze(in); !slices.Contains(r.Categories, "corrupt_metadata") {
		t.Error("zero duration should fire corrupt_metadata")
	}
}

// TestAnalyzeError 元数据不可读时返回 safe + analysis_error + unknown.
func TestAnalyzeError(t *testing.T) {
	r := Analyze(nil)

	if r.Status != StatusSafe || r.Level != LevelUnknown || r.Score != 0 {
		t.Errorf("unexpected error result: %+v", r)
	}

	if !slices.Contains(r.Categories, "analysis_error") {
		t.Errorf("expected analysis_error, got %v", r.Categories)
	}
}

// TestDeterminism 同一输入两次评分结果一致.
func TestDeterminism(t *testing.T) {
	in := &Input{
		DurationSeconds: 9000,
		Width:           640,
		Height:          480,
		Codec:           "mpeg4",
		Bitrate:         80_000,
		FrameRate:       12,
		AudioCodec:      "",
		Container:       "avi",
		FileSize:        50_000_000,
		Filename:        "old.avi",
	}

	a := Analyze(in)
	b := Analyze(in)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("analysis not deterministic:\n%+v\n%+v", a, b)
	}
}
