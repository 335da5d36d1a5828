package explorer

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return truncateToWidth(s, width)
	}
	return truncateToWidth(s, width-3) + "..."
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	current := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		b.WriteRune(r)
		current += rw
	}
	return b.String()
}

// wrapText breaks s into lines no wider than width, preferring spaces
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	var lines []string
	for _, raw := range strings.Split(s, "\n") {
		if raw == "" {
			lines = append(lines, "")
			continue
		}
		runes := []rune(raw)
		start := 0
		for start < len(runes) {
			if runewidth.StringWidth(string(runes[start:])) <= width {
				lines = append(lines, string(runes[start:]))
				break
			}
			curWidth := 0
			lastSpace := -1
			end := start
			for ; end < len(runes); end++ {
				rw := runewidth.RuneWidth(runes[end])
				if curWidth+rw > width {
					break
				}
				curWidth += rw
				if unicode.IsSpace(runes[end]) {
					lastSpace = end
				}
			}
			split := end
			if lastSpace > start {
				split = lastSpace
			}
			if split == start {
				split = start + 1
			}
			lines = append(lines, strings.TrimRightFunc(string(runes[start:split]), unicode.IsSpace))
			start = split
			for start < len(runes) && unicode.IsSpace(runes[start]) {
				start++
			}
		}
	}
	return lines
}

// tail keeps the last n lines
func tail(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// padRight pads s with spaces to the given display width
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
