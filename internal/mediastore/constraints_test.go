package mediastore

import (
	"errors"
	"testing"
)

func TestConstraints_Validate(t *testing.T) {
	c := Constraints{AllowedFormats: []string{"mp4", "mov", "avi", "mkv"}, MaxSize: 1024}

	tests := []struct {
		filename   string
		size       int64
		wantFormat string
		wantErr    error
	}{
		{"a.mp4", 100, "mp4", nil},
		{"A.MOV", 100, "mov", nil},
		{"dir/clip.final.mkv", 1024, "mkv", nil},
		{"notes.txt", 100, "", ErrUnsupportedMedia},
		{"noext", 100, "", ErrUnsupportedMedia},
		{"a.avi", 1025, "", ErrPayloadTooLarge},
		{"a.avi", 0, "", ErrEmptyAsset},
	}
	for _, tt := range tests {
		format, err := c.Validate(tt.filename, tt.size)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%q, %d): err = %v, ожидалось %v", tt.filename, tt.size, err, tt.wantErr)
			}
			continue
		}
		if err != nil || format != tt.wantFormat {
			t.Errorf("Validate(%q, %d) = %q, %v; ожидалось %q", tt.filename, tt.size, format, err, tt.wantFormat)
		}
	}
}

func TestContentTypeOf(t *testing.T) {
	if ct := ContentTypeOf("mov"); ct != "video/quicktime" {
		t.Errorf("ContentTypeOf(mov) = %q", ct)
	}
	if ct := ContentTypeOf("xyz"); ct != "application/octet-stream" {
		t.Errorf("ContentTypeOf(xyz) = %q", ct)
	}
}

func TestURLBuilder_NoProfile(t *testing.T) {
	b := URLBuilder{PublicURL: "http://localhost:9000/videos", ThumbnailWidth: 160}

	if got := b.Playback("u1/a.mp4"); got != "http://localhost:9000/videos/u1/a.mp4" {
		t.Errorf("Playback = %q", got)
	}
	if got := b.Thumbnail("u1/a.mp4"); got != "http://localhost:9000/videos/thumbnails/w_160/u1/a.jpg" {
		t.Errorf("Thumbnail = %q", got)
	}
}
