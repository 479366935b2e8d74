// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple title", "Canvas Print", "canvas-print"},
		{"spanish accents", "Óleo sobre lienzo", "oleo-sobre-lienzo"},
		{"enye", "Diseño año nuevo", "diseno-ano-nuevo"},
		{"punctuation collapsed", "Hello, World! (2nd Edition)", "hello-world-2nd-edition"},
		{"leading and trailing junk", "  --Trim Me--  ", "trim-me"},
		{"digits kept", "Taller 101", "taller-101"},
		{"empty input", "", ""},
		{"only symbols", "!!!", ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, Make(testCase.input))
		})
	}
}
