// Copyright © 2025 The typls authors

package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/typls/typls/docs"
	"github.com/typls/typls/typst"
)

const docWrapWidth = 76

var (
	docCategory string
	docListAll  bool
	docGuide    bool
)

// docCmd represents the doc command
var docCmd = &cobra.Command{
	Use:   "doc [flags] QUERY",
	Short: "Show documentation for standard-library functions",
	Long: `Show built-in documentation for Typst standard-library functions.

By default, looks up a function by name. Methods are addressed with dot
notation, e.g. "datetime.today". Use -c to list the functions in one
category, or -l to list every documented function.

Examples:
  typls doc heading                Show docs for the heading function
  typls doc datetime.today         Show docs for a method
  typls doc -c text                List text-related functions
  typls doc -l                     List all documented functions
  typls doc --guide                Print the server configuration guide`,
	Run: func(cmd *cobra.Command, args []string) {
		if docGuide {
			fmt.Print(docs.ConfigGuide)
			return
		}

		lib := typst.DefaultLibrary()

		if docListAll || docCategory != "" {
			docList(lib, docCategory)
			return
		}
		if len(args) != 1 {
			_ = cmd.Help()
			os.Exit(1)
		}
		def, err := docLookup(lib, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		docPrint(def)
	},
}

// docLookup resolves a query, following one level of dot notation for
// methods.
func docLookup(lib *typst.Library, query string) (*typst.FuncDef, error) {
	name, method, isMethod := strings.Cut(query, ".")
	def, ok := lib.Func(name)
	if !ok {
		return nil, fmt.Errorf("no documentation for %q", name)
	}
	if !isMethod {
		return def, nil
	}
	m, ok := def.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%s has no method %q", name, method)
	}
	return m, nil
}

func docPrint(def *typst.FuncDef) {
	fmt.Println(def.Signature())
	if def.Category != "" {
		fmt.Printf("category: %s\n", def.Category)
	}
	if def.Returns != "" {
		fmt.Printf("returns: %s\n", def.Returns)
	}
	if def.Doc != "" {
		fmt.Println()
		fmt.Println(wordwrap.String(def.Doc, docWrapWidth))
	}
	if len(def.Params) > 0 {
		fmt.Println()
		fmt.Println("Parameters:")
		for _, p := range def.Params {
			attrs := paramAttrs(p)
			fmt.Printf("  %s%s\n", p.Name, attrs)
			if p.Doc != "" {
				wrapped := wordwrap.String(p.Doc, docWrapWidth-4)
				fmt.Println(indent.String(wrapped, 4))
			}
		}
	}
	if len(def.Methods) > 0 {
		names := make([]string, 0, len(def.Methods))
		for name := range def.Methods {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println()
		fmt.Printf("Methods: %s\n", strings.Join(names, ", "))
	}
}

func paramAttrs(p typst.Param) string {
	var attrs []string
	if p.Named {
		attrs = append(attrs, "named")
	}
	if p.Optional {
		attrs = append(attrs, "optional")
	}
	if len(attrs) == 0 {
		return ""
	}
	return " (" + strings.Join(attrs, ", ") + ")"
}

func docList(lib *typst.Library, category string) {
	byCategory := make(map[string][]*typst.FuncDef)
	for _, def := range lib.Funcs() {
		byCategory[def.Category] = append(byCategory[def.Category], def)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		if category != "" && c != category {
			continue
		}
		categories = append(categories, c)
	}
	if category != "" && len(categories) == 0 {
		fmt.Fprintf(os.Stderr, "no functions in category %q\n", category)
		os.Exit(1)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Printf("%s:\n", c)
		for _, def := range byCategory[c] {
			fmt.Printf("  %s\n", def.Signature())
		}
	}
}

func init() {
	rootCmd.AddCommand(docCmd)

	docCmd.Flags().StringVarP(&docCategory, "category", "c", "",
		"List functions in the given category")
	docCmd.Flags().BoolVarP(&docListAll, "list", "l", false,
		"List all documented functions by category")
	docCmd.Flags().BoolVar(&docGuide, "guide", false,
		"Print the language server configuration guide")
}
