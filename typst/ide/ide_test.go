// Copyright © 2025 The typls authors

package ide

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typls/typls/typst"
	"github.com/typls/typls/typst/syntax"
	"github.com/typls/typls/workspace/fonts"
)

// fakeWorld serves the default library and a fixed package list.
type fakeWorld struct {
	packages []syntax.PackageSpec
}

func (w *fakeWorld) Library() *typst.Library    { return typst.DefaultLibrary() }
func (w *fakeWorld) Book() *fonts.Book          { return nil }
func (w *fakeWorld) Main() syntax.FileID        { return syntax.FileID{} }
func (w *fakeWorld) Font(int) *fonts.Font       { return nil }
func (w *fakeWorld) Today(*int) *typst.Datetime { return nil }

func (w *fakeWorld) Source(id syntax.FileID) (*syntax.Source, error) {
	return nil, fmt.Errorf("not found: %s", id)
}

func (w *fakeWorld) File(id syntax.FileID) ([]byte, error) {
	return nil, fmt.Errorf("not found: %s", id)
}

func (w *fakeWorld) Packages() []syntax.PackageSpec { return w.packages }

func sourceOf(text string) *syntax.Source {
	return syntax.NewSource(syntax.FileID{}, text)
}

func completionLabels(items []Completion) []string {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func TestAutocompleteAfterHash(t *testing.T) {
	text := "#hea"
	items := Autocomplete(&fakeWorld{}, sourceOf(text), len(text))
	labels := completionLabels(items)
	assert.Contains(t, labels, "heading")
	assert.Contains(t, labels, "let")
}

func TestAutocompleteLocalBindings(t *testing.T) {
	text := "#let title = 1\n#"
	items := Autocomplete(&fakeWorld{}, sourceOf(text), len(text))
	labels := completionLabels(items)
	assert.Contains(t, labels, "title")
}

func TestAutocompleteLabels(t *testing.T) {
	text := "= Intro <intro>\n\nSee @"
	items := Autocomplete(&fakeWorld{}, sourceOf(text), len(text))
	labels := completionLabels(items)
	assert.Equal(t, []string{"intro"}, labels)
}

func TestAutocompleteLabelsPartial(t *testing.T) {
	text := "= Fish <fish>\n@fi"
	items := Autocomplete(&fakeWorld{}, sourceOf(text), len(text))
	labels := completionLabels(items)
	assert.Contains(t, labels, "fish")
}

func TestAutocompleteMethods(t *testing.T) {
	text := "#datetime."
	items := Autocomplete(&fakeWorld{}, sourceOf(text), len(text))
	require.Len(t, items, 1)
	assert.Equal(t, "today", items[0].Label)
	assert.Equal(t, CompletionMethod, items[0].Kind)
}

func TestAutocompletePackages(t *testing.T) {
	w := &fakeWorld{packages: []syntax.PackageSpec{
		{Namespace: "preview", Name: "example", Version: "0.1.0"},
	}}
	text := `#import ""`
	items := Autocomplete(w, sourceOf(text), len(text)-1)
	require.Len(t, items, 1)
	assert.Equal(t, "@preview/example:0.1.0", items[0].Label)
	assert.Equal(t, CompletionPackage, items[0].Kind)
}

func TestAutocompletePlainText(t *testing.T) {
	text := "Just some prose.\n"
	assert.Nil(t, Autocomplete(&fakeWorld{}, sourceOf(text), 5))
}

func TestAutocompleteCursorOutOfRange(t *testing.T) {
	src := sourceOf("= T\n")
	assert.Nil(t, Autocomplete(&fakeWorld{}, src, -1))
	assert.Nil(t, Autocomplete(&fakeWorld{}, src, 100))
}

func TestTrimIdentSuffix(t *testing.T) {
	assert.Equal(t, "#", trimIdentSuffix("#hea"))
	assert.Equal(t, "See @", trimIdentSuffix("See @fi"))
	assert.Equal(t, "a + ", trimIdentSuffix("a + my_var2"))
	assert.Equal(t, "", trimIdentSuffix("plain"))
}

func TestDotAccessBase(t *testing.T) {
	base, ok := dotAccessBase("#datetime.")
	require.True(t, ok)
	assert.Equal(t, "datetime", base)

	base, ok = dotAccessBase("#datetime.to")
	require.True(t, ok)
	assert.Equal(t, "datetime", base)

	_, ok = dotAccessBase("#heading")
	assert.False(t, ok)

	_, ok = dotAccessBase(".")
	assert.False(t, ok)
}

func TestCallSnippet(t *testing.T) {
	lib := typst.DefaultLibrary()

	heading, ok := lib.Func("heading")
	require.True(t, ok)
	assert.Equal(t, "heading(${1:body})", callSnippet("heading", heading))

	numbering, ok := lib.Func("numbering")
	require.True(t, ok)
	assert.Equal(t, "numbering(${1:pattern}, ${2:numbers})", callSnippet("numbering", numbering))

	pagebreak, ok := lib.Func("pagebreak")
	require.True(t, ok)
	assert.Equal(t, "pagebreak()", callSnippet("pagebreak", pagebreak))
}

func TestHoverLibraryFunction(t *testing.T) {
	text := "#strong[Hi]"
	tip := Hover(&fakeWorld{}, sourceOf(text), 3)
	require.NotNil(t, tip)
	assert.Contains(t, tip.Markdown, "strong(body)")
	assert.Contains(t, tip.Markdown, "font weight")
}

func TestHoverMethod(t *testing.T) {
	text := "#datetime.today()"
	tip := Hover(&fakeWorld{}, sourceOf(text), 12)
	require.NotNil(t, tip)
	assert.Contains(t, tip.Markdown, "datetime.today")
	assert.Contains(t, tip.Markdown, "current date")
}

func TestHoverLabel(t *testing.T) {
	text := "= Intro <intro>\n"
	tip := Hover(&fakeWorld{}, sourceOf(text), 10)
	require.NotNil(t, tip)
	assert.Contains(t, tip.Markdown, "<intro>")
}

func TestHoverReference(t *testing.T) {
	text := "= Results <res>\n\nSee @res.\n"
	tip := Hover(&fakeWorld{}, sourceOf(text), 22)
	require.NotNil(t, tip)
	assert.Contains(t, tip.Markdown, "Results")
}

func TestHoverUndefinedReference(t *testing.T) {
	text := "See @missing.\n"
	tip := Hover(&fakeWorld{}, sourceOf(text), 6)
	require.NotNil(t, tip)
	assert.Contains(t, tip.Markdown, "undefined label")
}

func TestHoverNothing(t *testing.T) {
	text := "Plain paragraph text.\n"
	assert.Nil(t, Hover(&fakeWorld{}, sourceOf(text), 4))
}

func TestSignatureActiveParam(t *testing.T) {
	text := `#numbering("1.1", 2)`
	info := Signature(&fakeWorld{}, sourceOf(text), len(text)-2)
	require.NotNil(t, info)
	assert.Equal(t, "numbering", info.Def.Name)
	assert.Equal(t, 1, info.ActiveParam)
}

func TestSignatureMethodCallee(t *testing.T) {
	text := "#datetime.today(offset: 2)"
	info := Signature(&fakeWorld{}, sourceOf(text), len(text)-2)
	require.NotNil(t, info)
	assert.Equal(t, "datetime.today", info.Def.Name)
	assert.Equal(t, 0, info.ActiveParam)
}

func TestSignatureOutsideCall(t *testing.T) {
	text := "Just text\n"
	assert.Nil(t, Signature(&fakeWorld{}, sourceOf(text), 4))
}

func TestStripNested(t *testing.T) {
	// Commas inside nested brackets must not count as separators.
	assert.Equal(t, 1, strings.Count(stripNested("(a, b"), ","))
	assert.Equal(t, 1, strings.Count(stripNested("(a(x,y), b"), ","))
	assert.Equal(t, 2, strings.Count(stripNested("(a, [x, y], c"), ","))
	assert.Equal(t, 0, strings.Count(stripNested("({x, y}"), ","))
}
