package capture

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PaletteEntry is one color with its occurrence count in the site's
// stylesheets, most frequent first.
type PaletteEntry struct {
	Color string `json:"color"`
	Count int    `json:"count"`
}

var (
	hexColorRe = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)
	rgbColorRe = regexp.MustCompile(`rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})`)
)

// ExtractPalette ranks the colors mentioned in css by frequency and
// returns at most limit entries. Colors are normalized to lowercase
// six-digit hex.
func ExtractPalette(css string, limit int) []PaletteEntry {
	counts := make(map[string]int)

	for _, m := range hexColorRe.FindAllString(css, -1) {
		counts[normalizeHex(m)]++
	}
	for _, m := range rgbColorRe.FindAllStringSubmatch(css, -1) {
		r, errR := strconv.Atoi(m[1])
		g, errG := strconv.Atoi(m[2])
		b, errB := strconv.Atoi(m[3])
		if errR != nil || errG != nil || errB != nil || r > 255 || g > 255 || b > 255 {
			continue
		}
		counts[fmt.Sprintf("#%02x%02x%02x", r, g, b)]++
	}

	out := make([]PaletteEntry, 0, len(counts))
	for color, n := range counts {
		out = append(out, PaletteEntry{Color: color, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Color < out[j].Color
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// normalizeHex lowercases and expands #abc to #aabbcc.
func normalizeHex(hex string) string {
	hex = strings.ToLower(hex)
	if len(hex) == 4 {
		return "#" + strings.Repeat(string(hex[1]), 2) +
			strings.Repeat(string(hex[2]), 2) +
			strings.Repeat(string(hex[3]), 2)
	}
	return hex
}
