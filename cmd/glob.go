// Copyright © 2025 The typls authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandArgs expands arguments, resolving patterns ending with "/..." to all
// .typ files found recursively under the given directory. Non-pattern
// arguments pass through unchanged. Files matching an exclude glob (or
// living under a directory whose name matches one) are dropped.
func expandArgs(args, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if dir, ok := strings.CutSuffix(arg, "/..."); ok {
			if dir == "" {
				dir = "."
			}
			files, err := findTypstFiles(dir)
			if err != nil {
				return nil, fmt.Errorf("expanding %s: %w", arg, err)
			}
			out = append(out, files...)
		} else {
			out = append(out, arg)
		}
	}
	if len(excludes) == 0 {
		return out, nil
	}
	var kept []string
	for _, path := range out {
		if !excluded(path, excludes) {
			kept = append(kept, path)
		}
	}
	return kept, nil
}

func findTypstFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".typ" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func excluded(path string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
		for _, part := range strings.Split(filepath.ToSlash(path), "/") {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}
