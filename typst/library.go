// Copyright © 2025 The typls authors

package typst

import "sort"

// Param is one parameter of a library function.
type Param struct {
	Name     string
	Doc      string
	Optional bool
	Named    bool
}

// FuncDef is the metadata of one standard-library function: enough for
// completion, hover documentation, and signature help.
type FuncDef struct {
	Name     string
	Params   []Param
	Doc      string
	Returns  string
	Category string
	// Methods holds member functions reachable with dot access, such as
	// datetime.today.
	Methods map[string]*FuncDef
}

// Signature renders the call shape, e.g. "heading(level, body)".
func (f *FuncDef) Signature() string {
	sig := f.Name + "("
	for i, p := range f.Params {
		if i > 0 {
			sig += ", "
		}
		sig += p.Name
	}
	return sig + ")"
}

// Library is the engine standard library: the function table plus the
// markup keywords. One shared instance serves every compilation; it is
// immutable after construction.
type Library struct {
	funcs    map[string]*FuncDef
	keywords []string
}

// Func looks up a function by name.
func (l *Library) Func(name string) (*FuncDef, bool) {
	f, ok := l.funcs[name]
	return f, ok
}

// Funcs returns all function definitions sorted by name.
func (l *Library) Funcs() []*FuncDef {
	defs := make([]*FuncDef, 0, len(l.funcs))
	for _, f := range l.funcs {
		defs = append(defs, f)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Keywords returns the markup-mode keywords.
func (l *Library) Keywords() []string { return l.keywords }

var defaultLibrary = buildLibrary()

// DefaultLibrary returns the shared standard library.
func DefaultLibrary() *Library { return defaultLibrary }

func buildLibrary() *Library {
	lib := &Library{
		funcs: make(map[string]*FuncDef),
		keywords: []string{
			"let", "import", "include", "set", "show",
			"if", "else", "for", "while", "in", "return",
			"none", "auto", "true", "false",
		},
	}
	add := func(f *FuncDef) { lib.funcs[f.Name] = f }

	add(&FuncDef{
		Name:     "text",
		Category: "text",
		Doc:      "Customizes the look and layout of text in a variety of ways.",
		Returns:  "content",
		Params: []Param{
			{Name: "font", Doc: "A font family name or priority list of names.", Named: true, Optional: true},
			{Name: "size", Doc: "The size of the glyphs.", Named: true, Optional: true},
			{Name: "weight", Doc: "The glyph weight, 100 to 900.", Named: true, Optional: true},
			{Name: "fill", Doc: "The color the glyphs are filled with.", Named: true, Optional: true},
			{Name: "body", Doc: "Content in which the style is applied."},
		},
	})
	add(&FuncDef{
		Name:     "heading",
		Category: "model",
		Doc:      "A section heading. Headings structure the document into sections.",
		Returns:  "content",
		Params: []Param{
			{Name: "level", Doc: "The nesting depth, starting at 1.", Named: true, Optional: true},
			{Name: "numbering", Doc: "How the heading is numbered.", Named: true, Optional: true},
			{Name: "body", Doc: "The heading's title."},
		},
	})
	add(&FuncDef{
		Name:     "par",
		Category: "model",
		Doc:      "A logical block of text arranged into a paragraph.",
		Returns:  "content",
		Params: []Param{
			{Name: "leading", Doc: "Spacing between lines.", Named: true, Optional: true},
			{Name: "justify", Doc: "Whether to justify the lines.", Named: true, Optional: true},
			{Name: "body", Doc: "The paragraph contents."},
		},
	})
	add(&FuncDef{
		Name:     "strong",
		Category: "model",
		Doc:      "Strongly emphasizes content by increasing the font weight.",
		Returns:  "content",
		Params:   []Param{{Name: "body", Doc: "The content to emphasize."}},
	})
	add(&FuncDef{
		Name:     "emph",
		Category: "model",
		Doc:      "Emphasizes content by toggling italics.",
		Returns:  "content",
		Params:   []Param{{Name: "body", Doc: "The content to emphasize."}},
	})
	add(&FuncDef{
		Name:     "raw",
		Category: "text",
		Doc:      "Raw text with optional syntax highlighting, displayed in monospace.",
		Returns:  "content",
		Params: []Param{
			{Name: "text", Doc: "The raw text."},
			{Name: "lang", Doc: "The language to highlight for.", Named: true, Optional: true},
			{Name: "block", Doc: "Whether the raw text is displayed as a block.", Named: true, Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "image",
		Category: "visualize",
		Doc:      "Shows a raster or vector image from a file path.",
		Returns:  "content",
		Params: []Param{
			{Name: "path", Doc: "Path to the image file."},
			{Name: "width", Doc: "The width of the image.", Named: true, Optional: true},
			{Name: "height", Doc: "The height of the image.", Named: true, Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "figure",
		Category: "model",
		Doc:      "A figure with an optional caption, referenceable with a label.",
		Returns:  "content",
		Params: []Param{
			{Name: "body", Doc: "The figure's content."},
			{Name: "caption", Doc: "The figure's caption.", Named: true, Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "table",
		Category: "model",
		Doc:      "Arranges content in a grid of cells with configurable lines.",
		Returns:  "content",
		Params: []Param{
			{Name: "columns", Doc: "The column sizes.", Named: true, Optional: true},
			{Name: "rows", Doc: "The row sizes.", Named: true, Optional: true},
			{Name: "children", Doc: "The cell contents."},
		},
	})
	add(&FuncDef{
		Name:     "list",
		Category: "model",
		Doc:      "A bullet list of items.",
		Returns:  "content",
		Params: []Param{
			{Name: "tight", Doc: "Whether the list is tight.", Named: true, Optional: true},
			{Name: "children", Doc: "The list items."},
		},
	})
	add(&FuncDef{
		Name:     "enum",
		Category: "model",
		Doc:      "A numbered list of items.",
		Returns:  "content",
		Params: []Param{
			{Name: "start", Doc: "The number of the first item.", Named: true, Optional: true},
			{Name: "children", Doc: "The enumeration items."},
		},
	})
	add(&FuncDef{
		Name:     "link",
		Category: "model",
		Doc:      "Links to a URL or to a location in the document.",
		Returns:  "content",
		Params: []Param{
			{Name: "dest", Doc: "The destination URL or label."},
			{Name: "body", Doc: "How the link is represented.", Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "cite",
		Category: "model",
		Doc:      "Cites an entry of a bibliography.",
		Returns:  "content",
		Params:   []Param{{Name: "key", Doc: "The citation key."}},
	})
	add(&FuncDef{
		Name:     "bibliography",
		Category: "model",
		Doc:      "Renders a bibliography from a Hayagriva or BibLaTeX file.",
		Returns:  "content",
		Params: []Param{
			{Name: "path", Doc: "Path to the bibliography file."},
			{Name: "style", Doc: "The citation style.", Named: true, Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "footnote",
		Category: "model",
		Doc:      "A footnote rendered at the bottom of the page.",
		Returns:  "content",
		Params:   []Param{{Name: "body", Doc: "The footnote content."}},
	})
	add(&FuncDef{
		Name:     "pagebreak",
		Category: "layout",
		Doc:      "Starts a new page.",
		Returns:  "content",
		Params:   []Param{{Name: "weak", Doc: "Skip the break if the page is empty.", Named: true, Optional: true}},
	})
	add(&FuncDef{
		Name:     "page",
		Category: "layout",
		Doc:      "Modifies the layout of pages: size, margins, headers, footers.",
		Returns:  "content",
		Params: []Param{
			{Name: "paper", Doc: "A standard paper size name.", Named: true, Optional: true},
			{Name: "margin", Doc: "The page margins.", Named: true, Optional: true},
			{Name: "body", Doc: "The page contents."},
		},
	})
	add(&FuncDef{
		Name:     "align",
		Category: "layout",
		Doc:      "Aligns content horizontally and vertically.",
		Returns:  "content",
		Params: []Param{
			{Name: "alignment", Doc: "The alignment along both axes."},
			{Name: "body", Doc: "The content to align."},
		},
	})
	add(&FuncDef{
		Name:     "block",
		Category: "layout",
		Doc:      "A block-level container that sizes and decorates content.",
		Returns:  "content",
		Params: []Param{
			{Name: "fill", Doc: "The background color.", Named: true, Optional: true},
			{Name: "inset", Doc: "Padding inside the block.", Named: true, Optional: true},
			{Name: "body", Doc: "The block contents.", Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "box",
		Category: "layout",
		Doc:      "An inline-level container that sizes and decorates content.",
		Returns:  "content",
		Params: []Param{
			{Name: "width", Doc: "The box width.", Named: true, Optional: true},
			{Name: "body", Doc: "The box contents.", Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "grid",
		Category: "layout",
		Doc:      "Arranges content in a grid with fine-grained track control.",
		Returns:  "content",
		Params: []Param{
			{Name: "columns", Doc: "The column sizes.", Named: true, Optional: true},
			{Name: "children", Doc: "The grid cell contents."},
		},
	})
	add(&FuncDef{
		Name:     "stack",
		Category: "layout",
		Doc:      "Arranges content along an axis with optional spacing.",
		Returns:  "content",
		Params: []Param{
			{Name: "dir", Doc: "The stacking direction.", Named: true, Optional: true},
			{Name: "children", Doc: "The stacked children."},
		},
	})
	add(&FuncDef{
		Name:     "columns",
		Category: "layout",
		Doc:      "Separates a region into equally sized columns.",
		Returns:  "content",
		Params: []Param{
			{Name: "count", Doc: "The number of columns."},
			{Name: "body", Doc: "The content to layout."},
		},
	})
	add(&FuncDef{
		Name:     "pad",
		Category: "layout",
		Doc:      "Adds spacing around content.",
		Returns:  "content",
		Params: []Param{
			{Name: "rest", Doc: "Padding on all sides.", Named: true, Optional: true},
			{Name: "body", Doc: "The content to pad."},
		},
	})
	add(&FuncDef{
		Name:     "document",
		Category: "model",
		Doc:      "Sets document metadata: title, author, date.",
		Returns:  "content",
		Params: []Param{
			{Name: "title", Doc: "The document title.", Named: true, Optional: true},
			{Name: "author", Doc: "The document authors.", Named: true, Optional: true},
			{Name: "date", Doc: "The document date.", Named: true, Optional: true},
		},
	})
	add(&FuncDef{
		Name:     "lorem",
		Category: "text",
		Doc:      "Creates blind text: the given number of lorem ipsum words.",
		Returns:  "str",
		Params:   []Param{{Name: "words", Doc: "How many words to generate."}},
	})
	add(&FuncDef{
		Name:     "upper",
		Category: "text",
		Doc:      "Converts text to uppercase.",
		Returns:  "str",
		Params:   []Param{{Name: "text", Doc: "The text to convert."}},
	})
	add(&FuncDef{
		Name:     "lower",
		Category: "text",
		Doc:      "Converts text to lowercase.",
		Returns:  "str",
		Params:   []Param{{Name: "text", Doc: "The text to convert."}},
	})
	add(&FuncDef{
		Name:     "smallcaps",
		Category: "text",
		Doc:      "Displays text in small capitals.",
		Returns:  "content",
		Params:   []Param{{Name: "body", Doc: "The text to display."}},
	})
	add(&FuncDef{
		Name:     "underline",
		Category: "text",
		Doc:      "Underlines text.",
		Returns:  "content",
		Params:   []Param{{Name: "body", Doc: "The content to underline."}},
	})
	add(&FuncDef{
		Name:     "strike",
		Category: "text",
		Doc:      "Strikes through text.",
		Returns:  "content",
		Params:   []Param{{Name: "body", Doc: "The content to strike."}},
	})
	add(&FuncDef{
		Name:     "highlight",
		Category: "text",
		Doc:      "Highlights text with a background color.",
		Returns:  "content",
		Params: []Param{
			{Name: "fill", Doc: "The highlight color.", Named: true, Optional: true},
			{Name: "body", Doc: "The content to highlight."},
		},
	})
	add(&FuncDef{
		Name:     "label",
		Category: "foundations",
		Doc:      "Creates a label that attaches to the preceding content.",
		Returns:  "label",
		Params:   []Param{{Name: "name", Doc: "The label name."}},
	})
	add(&FuncDef{
		Name:     "ref",
		Category: "model",
		Doc:      "References a labelled element such as a heading or figure.",
		Returns:  "content",
		Params:   []Param{{Name: "target", Doc: "The label to reference."}},
	})
	add(&FuncDef{
		Name:     "counter",
		Category: "foundations",
		Doc:      "Accesses a counter, such as the heading or page counter.",
		Returns:  "counter",
		Params:   []Param{{Name: "key", Doc: "The counter key."}},
	})
	add(&FuncDef{
		Name:     "numbering",
		Category: "model",
		Doc:      "Applies a numbering pattern to a sequence of numbers.",
		Returns:  "str",
		Params: []Param{
			{Name: "pattern", Doc: "The numbering pattern, e.g. \"1.1\"."},
			{Name: "numbers", Doc: "The numbers to format."},
		},
	})
	add(&FuncDef{
		Name:     "datetime",
		Category: "foundations",
		Doc:      "Represents a date, a time, or a combination of both.",
		Returns:  "datetime",
		Params: []Param{
			{Name: "year", Doc: "The year.", Named: true, Optional: true},
			{Name: "month", Doc: "The month.", Named: true, Optional: true},
			{Name: "day", Doc: "The day.", Named: true, Optional: true},
		},
		Methods: map[string]*FuncDef{
			"today": {
				Name:    "datetime.today",
				Doc:     "Returns the current date, optionally offset by whole hours.",
				Returns: "datetime",
				Params:  []Param{{Name: "offset", Doc: "An offset from UTC in hours.", Named: true, Optional: true}},
			},
		},
	})

	return lib
}
