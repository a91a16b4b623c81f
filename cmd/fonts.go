// Copyright © 2025 The typls authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typls/typls/workspace/fonts"
)

var (
	fontsVariants bool
	fontsPaths    []string
)

var fontsCmd = &cobra.Command{
	Use:   "fonts [flags]",
	Short: "List the fonts the compiler can see",
	Long: `List the font families discovered by the compiler.

Discovery covers the embedded Go fonts, the platform font directories,
and any --font-path directories, in that order. Documents select fonts
from this set by family name.

Examples:
  typls fonts                        List family names
  typls fonts --variants             Include style and weight per face
  typls fonts --font-path ./fonts    Scan an extra directory`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		book := fonts.NewManager(fontsPaths).Book()
		if !fontsVariants {
			for _, family := range book.Families() {
				fmt.Println(family)
			}
			return
		}
		for _, family := range book.Families() {
			fmt.Println(family)
			for i := 0; i < book.Len(); i++ {
				info := book.Info(i)
				if info.Family != family {
					continue
				}
				fmt.Printf("  %s, weight %d\n", info.Variant.Style, info.Variant.Weight)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(fontsCmd)

	fontsCmd.Flags().BoolVar(&fontsVariants, "variants", false,
		"Show the style and weight of each face")
	fontsCmd.Flags().StringArrayVar(&fontsPaths, "font-path", nil,
		"Additional directory to scan for fonts (may be repeated)")
}
