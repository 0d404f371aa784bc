package media

import (
	"testing"
)

// TestParseFrameRate 帧率字符串解析.
func TestParseFrameRate(t *testing.T) {
	cases := map[string]float64{
		"30/1":       30,
		"30000/1001": 29.97002997002997,
		"25":         25,
		"0/0":        0,
		"":           0,
		"x/y":        0,
		"1/0":        0,
	}

	for in, want := range cases {
		got := parseFrameRate(in)
		if got < want-0.0001 || got > want+0.0001 {
			t.Errorf("parseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestNormalizeFormat 容器名取第一个别名.
func TestNormalizeFormat(t *testing.T) {
	cases := map[string]string{
		"mov,mp4,m4a,3gp,3g2,mj2": "mov",
		"matroska,webm":           "matroska",
		"avi":                     "avi",
		"":                        "",
	}

	for in, want := range cases {
		if got := normalizeFormat(in); got != want {
			t.Errorf("normalizeFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
