package asset

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// TextureExtensions is tried, in order, after each texture name variant.
var TextureExtensions = []string{"", ".png", ".webp", ".jpg", ".jpeg", ".bmp"}

// NameVariants returns base, base with '-' replaced by '_', and base with
// '-' removed, in that order and without repeats.
func NameVariants(base string) []string {
	out := make([]string, 0, 3)
	for _, v := range []string{
		base,
		strings.ReplaceAll(base, "-", "_"),
		strings.ReplaceAll(base, "-", ""),
	} {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Candidates lists the existing files that may hold the texture named
// base inside dir, highest priority first: every name variant crossed
// with TextureExtensions, then any other file whose name starts with base
// in lexical order.
//
// For "new-moon" the order is new-moon, new-moon.png, new-moon.webp, ...,
// new_moon, new_moon.png, ..., newmoon.bmp, then new-moon*.
func Candidates(dir, base string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if seen[p] || !isFile(p) {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, name := range NameVariants(base) {
		for _, ext := range TextureExtensions {
			add(filepath.Join(dir, name+ext))
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, base) + "*")
	if err == nil {
		for _, m := range matches {
			add(m)
		}
	}
	return out
}

// LoadTexture returns the first decodable candidate for base in dir,
// resized to w×h, along with the path it came from. Undecodable
// candidates are skipped. When nothing usable exists the error wraps
// ErrNotFound and the caller substitutes black.
func LoadTexture(dir, base string, w, h int) (*image.NRGBA, string, error) {
	var errs []error
	for _, p := range Candidates(dir, base) {
		img, err := Load(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return Resize(img, w, h), p, nil
	}
	if len(errs) > 0 {
		return nil, "", fmt.Errorf("%w: texture %q: %w", ErrNotFound, base, errors.Join(errs...))
	}
	return nil, "", fmt.Errorf("%w: texture %q in %s", ErrNotFound, base, dir)
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
