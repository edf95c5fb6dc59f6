package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tubefeed/internal/media"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(s, color string, enabled bool) string {
	if !enabled || color == "" {
		return s
	}
	return color + s + ansiReset
}

// formatDuration renders seconds as m:ss or h:mm:ss. Live streams have
// no fixed length.
func formatDuration(video media.VideoRef) string {
	if video.Live {
		return "LIVE"
	}
	seconds := video.DurationSeconds
	if seconds <= 0 {
		return "-"
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatViews renders a view count with locale-aware grouping, for
// example 1,234,567.
func formatViews(count *int64, lang string) string {
	if count == nil {
		return "-"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf("%d", *count)
}

// formatAge renders a publish time relative to now, e.g. "3d ago".
func formatAge(published *time.Time, now time.Time) string {
	if published == nil {
		return "-"
	}
	age := now.Sub(*published)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	case age < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	case age < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(age.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy ago", int(age.Hours()/(24*365)))
	}
}
