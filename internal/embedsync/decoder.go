package embedsync

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
)

// The provider form's resize messages have no fixed schema: some frames post
// a bare number, some a JSON object with one of several field spellings, some
// a free-form string with the height buried in it. The decoder is liberal on
// shape but strict on the result: a non-finite or absent height is discarded.

var heightFieldNames = []string{"height", "frameHeight", "iframeHeight", "h"}

var nestedFieldNames = []string{"data", "payload"}

var (
	labeledHeightRe = regexp.MustCompile(`(?i)height[^0-9]{0,8}([0-9]{3,5})`)
	bareNumberRe    = regexp.MustCompile(`\b([0-9]{3,5})\b`)
)

// ExtractHeight pulls a candidate pixel height out of a raw message payload.
// It tries structured decoding first, then a labeled-number scan, then any
// 3-5 digit number. The boolean is false when no usable height was found.
func ExtractHeight(data string) (float64, bool) {
	if data == "" {
		return 0, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(data), &decoded); err == nil {
		return heightFromValue(decoded, 0)
	}
	return scanText(data)
}

// scanText is the decode-failure fallback: a labeled height first, then any
// 3-5 digit number.
func scanText(data string) (float64, bool) {
	if m := labeledHeightRe.FindStringSubmatch(data); m != nil {
		return parseFinite(m[1])
	}
	if m := bareNumberRe.FindStringSubmatch(data); m != nil {
		return parseFinite(m[1])
	}
	return 0, false
}

const maxProbeDepth = 3

func heightFromValue(value any, depth int) (float64, bool) {
	if depth > maxProbeDepth {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, isFinite(v)
	case string:
		if height, ok := parseFinite(v); ok {
			return height, true
		}
		return scanText(v)
	case map[string]any:
		for _, name := range heightFieldNames {
			if raw, ok := v[name]; ok {
				if height, ok := heightFromValue(raw, depth+1); ok {
					return height, true
				}
			}
		}
		for _, name := range nestedFieldNames {
			if raw, ok := v[name]; ok {
				if height, ok := heightFromValue(raw, depth+1); ok {
					return height, true
				}
			}
		}
	}
	return 0, false
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, isFinite(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
