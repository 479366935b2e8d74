// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

// Package slug generates URL-safe identifiers from arbitrary titles.
//
// Diacritics are stripped via Unicode NFD decomposition, so Spanish product
// names ("Óleo sobre lienzo") produce clean ASCII slugs.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizer decomposes characters and drops the combining marks.
var normalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts a title into a URL slug: lowercase ASCII letters and
// digits, hyphen-separated, with diacritics removed.
func Make(title string) string {
	// 1. Strip accents
	ascii, _, err := transform.String(normalizer, title)
	if err != nil {
		ascii = title
	}

	// 2. Lowercase and collapse everything else into hyphens
	var builder strings.Builder
	builder.Grow(len(ascii))

	lastWasHyphen := true // leading separators are dropped
	for _, r := range strings.ToLower(ascii) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			lastWasHyphen = false
			continue
		}
		if !lastWasHyphen {
			builder.WriteByte('-')
			lastWasHyphen = true
		}
	}

	return strings.TrimSuffix(builder.String(), "-")
}
