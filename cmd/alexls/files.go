package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// proseExtensions are linted when walking a directory. Files named
// explicitly are linted whatever their extension.
var proseExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
	".mkd":      true,
	".txt":      true,
	".text":     true,
	".tex":      true,
	".rst":      true,
}

// collectFiles expands args into a sorted, de-duplicated file list. Hidden
// directories and node_modules are skipped.
func collectFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			out = append(out, clean)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if proseExtensions[strings.ToLower(filepath.Ext(path))] {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}
