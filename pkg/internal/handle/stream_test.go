package handle

import (
	"testing"

	"github.com/yeisme/vidvault/pkg/internal/model"
)

// TestParseRangeHeader 区间解析与边界.
func TestParseRangeHeader(t *testing.T) {
	const size = int64(1000)

	cases := []struct {
		name       string
		header     string
		wantStart  int64
		wantEnd    int64
		wantErr    bool
	}{
		{"full prefix", "bytes=0-", 0, 999, false},
		{"first byte", "bytes=0-0", 0, 0, false},
		{"last byte", "bytes=999-999", 999, 999, false},
		{"middle chunk", "bytes=100-199", 100, 199, false},
		{"open ended from middle", "bytes=500-", 500, 999, false},
		{"start beyond size", "bytes=1000-", 0, 0, true},
		{"end beyond size", "bytes=0-1000", 0, 0, true},
		{"inverted", "bytes=200-100", 0, 0, true},
		{"suffix range unsupported", "bytes=-500", 0, 0, true},
		{"multi range unsupported", "bytes=0-1,5-9", 0, 0, true},
		{"garbage", "bite=0-1", 0, 0, true},
		{"empty", "", 0, 0, true},
	}

	for _, tc := range cases {
		start, end, err := parseRangeHeader(tc.header, size)

		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got [%d, %d]", tc.name, start, end)
			}

			continue
		}

		if err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
			continue
		}

		if start != tc.wantStart || end != tc.wantEnd {
			t.Errorf("%s: got [%d, %d], want [%d, %d]", tc.name, start, end, tc.wantStart, tc.wantEnd)
		}
	}
}

// TestParseRangeHeaderLength Content-Length 与区间长度一致.
func TestParseRangeHeaderLength(t *testing.T) {
	start, end, err := parseRangeHeader("bytes=104857600-105906175", 209715200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if length := end - start + 1; length != 1048576 {
		t.Errorf("length = %d, want 1048576", length)
	}
}

// TestContentTypeFor Content-Type 推断.
func TestContentTypeFor(t *testing.T) {
	v := &model.Video{Format: "video/mp4"}
	if got := contentTypeFor(v); got != "video/mp4" {
		t.Errorf("got %q", got)
	}

	v = &model.Video{Format: "mp4", OriginalFilename: "a.mp4"}
	if got := contentTypeFor(v); got != "video/mp4" {
		t.Errorf("got %q", got)
	}

	v = &model.Video{Format: "", OriginalFilename: "noext"}
	if got := contentTypeFor(v); got != "application/octet-stream" {
		t.Errorf("got %q", got)
	}
}
