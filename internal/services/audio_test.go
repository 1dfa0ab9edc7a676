package services

import "testing"

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{
			url:  "https://res.cloudinary.com/demo/video/upload/v1712345678/echojournal/audio/abc123.mp3",
			want: "echojournal/audio/abc123",
		},
		{
			url:  "https://res.cloudinary.com/demo/video/upload/echojournal/audio/abc123.webm",
			want: "echojournal/audio/abc123",
		},
		{
			url:  "https://res.cloudinary.com/demo/video/upload/v1/plain.mp3",
			want: "plain",
		},
		{
			url:  "https://example.com/not-cloudinary/file.mp3",
			want: "",
		},
	}
	for _, tt := range tests {
		if got := publicIDFromURL(tt.url); got != tt.want {
			t.Errorf("publicIDFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
