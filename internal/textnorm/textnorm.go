// Package textnorm builds the normalised string variants stored in a post's
// search field.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// vietnameseLetters covers the letters that do not decompose under NFD.
var vietnameseLetters = strings.NewReplacer("đ", "d", "Đ", "D")

// latinDiacritics is the Combining Diacritical Marks block. Every Vietnamese
// tone and vowel mark decomposes into it; kana voicing marks and Indic vowel
// signs live elsewhere and are kept.
var latinDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

// ToLower lowercases a single string.
func ToLower(s string) string {
	return strings.ToLower(s)
}

// Lowercase maps every element to its lowercase form.
func Lowercase(in []string) []string {
	return mapStrings(in, strings.ToLower)
}

// RemoveVietnameseAccents strips Latin diacritics (U+0300-U+036F after NFD)
// and maps đ to d, keeping case and spacing. Marks from other scripts are
// left in place.
func RemoveVietnameseAccents(in []string) []string {
	return mapStrings(in, removeAccents)
}

// RemoveWhitespace drops every whitespace rune.
func RemoveWhitespace(in []string) []string {
	return mapStrings(in, removeWhitespace)
}

// RemoveAccentsAndWhitespace applies accent removal, then whitespace removal.
func RemoveAccentsAndWhitespace(in []string) []string {
	return mapStrings(in, func(s string) string {
		return removeWhitespace(removeAccents(s))
	})
}

// ParseTags turns "travel, food ,hanoi" into ["travel" "food" "hanoi"].
func ParseTags(raw string) []string {
	cleaned := removeWhitespace(raw)
	if cleaned == "" {
		return []string{}
	}
	parts := strings.Split(cleaned, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// SearchIndex returns the index entries for a document: lowercase variants of
// fields, the raw tags, then accent-stripped, whitespace-stripped and
// accent+whitespace-stripped variants of fields, in that order.
func SearchIndex(tags []string, fields ...string) []string {
	out := make([]string, 0, len(fields)*4+len(tags))
	out = append(out, Lowercase(fields)...)
	out = append(out, tags...)
	out = append(out, RemoveVietnameseAccents(fields)...)
	out = append(out, RemoveWhitespace(fields)...)
	out = append(out, RemoveAccentsAndWhitespace(fields)...)
	return out
}

func mapStrings(in []string, fn func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		if s == "" {
			continue
		}
		out[i] = fn(s)
	}
	return out
}

func removeAccents(s string) string {
	// transformers carry state, so each call builds its own chain
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(latinDiacritics)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return vietnameseLetters.Replace(stripped)
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
