package media

import (
	"fmt"
	"strings"
)

// Format is the requested output container.
type Format string

const (
	FormatAudio Format = "audio"
	FormatVideo Format = "video"
)

// ParseFormat maps a query value to a Format. An empty value selects audio.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "mp3", "audio":
		return FormatAudio, nil
	case "mp4", "video":
		return FormatVideo, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want mp3 or mp4)", value)
	}
}

// Extension returns the container extension without the dot.
func (f Format) Extension() string {
	if f == FormatVideo {
		return "mp4"
	}
	return "mp3"
}

// ContentType returns the MIME type served for the container.
func (f Format) ContentType() string {
	if f == FormatVideo {
		return "video/mp4"
	}
	return "audio/mpeg"
}

func (f Format) String() string {
	return string(f)
}
