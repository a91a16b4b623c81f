// Copyright © 2025 The typls authors

package fonts

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// embeddedFont is one face compiled into the binary.
type embeddedFont struct {
	info FontInfo
	data []byte
}

// embeddedFonts returns the faces always present regardless of the
// system font situation. The Go fonts guarantee PDF export and variant
// selection work on a machine with no fonts installed at all.
func embeddedFonts() []embeddedFont {
	return []embeddedFont{
		{FontInfo{"Go", Variant{StyleNormal, 400}}, goregular.TTF},
		{FontInfo{"Go", Variant{StyleNormal, 700}}, gobold.TTF},
		{FontInfo{"Go", Variant{StyleItalic, 400}}, goitalic.TTF},
		{FontInfo{"Go", Variant{StyleItalic, 700}}, gobolditalic.TTF},
		{FontInfo{"Go Mono", Variant{StyleNormal, 400}}, gomono.TTF},
	}
}

// EmbeddedRegular returns the raw bytes of the embedded regular face,
// used by the PDF exporter for direct embedding.
func EmbeddedRegular() []byte { return goregular.TTF }

// EmbeddedBold returns the raw bytes of the embedded bold face.
func EmbeddedBold() []byte { return gobold.TTF }

// EmbeddedItalic returns the raw bytes of the embedded italic face.
func EmbeddedItalic() []byte { return goitalic.TTF }

// EmbeddedMono returns the raw bytes of the embedded mono face.
func EmbeddedMono() []byte { return gomono.TTF }
