package view

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxLineBytes    = 8000
	maxDisplayBytes = 1_000_000
	maxGlamourBytes = 500_000
)

var inlineImage = regexp.MustCompile(`data:image/[A-Za-z0-9.+-]+;base64,[A-Za-z0-9+/=\r\n]*`)

func displaySafe(s string) string {
	s = elideInlineImages(s)
	s = clampLines(s, maxLineBytes)
	if len(s) <= maxDisplayBytes {
		return s
	}
	cut := maxDisplayBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], "\n") + "\n\n... [reply truncated for display; export the chat for the full text] ...\n"
}

// elideInlineImages replaces base64 data URIs, which would otherwise fill the
// pane with noise.
func elideInlineImages(s string) string {
	return inlineImage.ReplaceAllStringFunc(s, func(m string) string {
		n := len(m) - strings.Index(m, ",") - 1
		return "[embedded image data omitted: " + strconv.Itoa(n) + " base64 chars]"
	})
}

func clampLines(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if len(line) <= max {
			continue
		}
		head := runeFloor(line, max/2)
		tail := runeCeil(line, len(line)-max/2)
		dropped := len(line) - len(head) - (len(line) - tail)
		lines[i] = head + "... [line truncated " + strconv.Itoa(dropped) + " chars] ..." + line[tail:]
	}
	return strings.Join(lines, "\n")
}

func runeFloor(s string, n int) string {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func runeCeil(s string, n int) int {
	for n < len(s) && !utf8.RuneStart(s[n]) {
		n++
	}
	return n
}
