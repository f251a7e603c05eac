// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"regexp"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Name fragments shared by the author patterns.
const (
	namePart = `\p{Lu}[\p{L}'’\-]+`
	name     = namePart + `(?:\s` + namePart + `)*`
	initials = `(?:\p{Lu}\.\s?)+`
	oneSI    = name + `,\s` + initials
)

// IDPattern matches the mandatory leading [id] token of a reference line.
var IDPattern = regexp.MustCompile(`^\s*\[([A-Za-z0-9][A-Za-z0-9._\-]*)\]\s*`)

// RelevancePattern matches an explicit "Relevance:" label.
var RelevancePattern = regexp.MustCompile(`(?i)\brelevance:[ \t]?`)

// Contamination lists the leftovers of earlier processing passes that are
// removed before field extraction. Bracket tokens containing digits are
// never matched so reference IDs survive.
var Contamination = Table{
	{Name: "tail-token", Pattern: regexp.MustCompile(`(?:FLAGS|PRIMARY_URL|SECONDARY_URL|TERTIARY_URL)\[(?:\\.|[^\]\\])*\]`)},
	{Name: "url-label", Pattern: ci(`\b(?:primary|secondary|tertiary)\s+url:\s?`)},
	{Name: "url", Pattern: ci(`\bhttps?://\S+|\bwww\.\S+`)},
	{Name: "annotation-tag", Pattern: regexp.MustCompile(`\[[A-Z][A-Z_]*(?:\s+[A-Z][A-Z_]*)*\]`)},
}

// Years lists the year patterns: parenthesized first, then any bare
// 19xx/20xx token.
var Years = Table{
	{
		Name:       "parenthesized",
		Pattern:    regexp.MustCompile(`\(((?:1[5-9]|20)\d{2})[a-z]?(?:,[^)]*)?\)`),
		Group:      1,
		Confidence: types.ConfidenceFound,
	},
	{
		Name:       "bare",
		Pattern:    regexp.MustCompile(`\b((?:19|20)\d{2})\b`),
		Group:      1,
		Confidence: types.ConfidenceUncertain,
	},
}

// Authors lists the author patterns in priority order. Each is anchored at
// the start of the cleaned bibliographic text.
var Authors = Table{
	{
		Name:       "surname-comma-initial",
		Pattern:    regexp.MustCompile(`^(` + oneSI + `(?:(?:,\s*)?(?:&\s|and\s)?` + oneSI + `)*(?:,?\s?et al\.)?)`),
		Group:      1,
		Confidence: types.ConfidenceFound,
	},
	{
		Name:       "surname-comma-firstname",
		Pattern:    regexp.MustCompile(`^(` + name + `,\s` + namePart + `(?:\s\p{Lu}\.)?(?:(?:,\s|\s)(?:&|and)\s` + name + `(?:,\s` + namePart + `)?)*)\s*[(.]`),
		Group:      1,
		Confidence: types.ConfidenceFound,
	},
	{
		Name:       "ampersand-pair",
		Pattern:    regexp.MustCompile(`^(` + name + `\s(?:&|and)\s` + name + `)\s*[(.,]`),
		Group:      1,
		Confidence: types.ConfidenceFound,
	},
	{
		Name:       "corporate-caps",
		Pattern:    regexp.MustCompile(`^(\p{Lu}[\p{Lu}\d&\-]+(?:\s[\p{Lu}\d&\-]+)*)\s*[(.]`),
		Group:      1,
		Confidence: types.ConfidenceUncertain,
	},
	{
		Name:       "before-parenthesis",
		Pattern:    regexp.MustCompile(`^([^()]{2,160}?)\s*\(\s*(?:(?:1[5-9]|20)\d{2}|n\.d\.)`),
		Group:      1,
		Confidence: types.ConfidenceUncertain,
	},
}

// BibliographyEnd lists the markers that close the bibliographic part of
// a reference. The earliest match wins.
var BibliographyEnd = Table{
	{Name: "isbn", Pattern: ci(`\bISBN(?:-1[03])?[:\s]`)},
	{Name: "doi", Pattern: ci(`\bdoi:\s?10\.|\b10\.\d{4,9}/\S+`)},
	{Name: "page-range", Pattern: ci(`\bpp?\.\s?\d+(?:\s?[–-]\s?\d+)?|\b\d{1,5}\s?[–-]\s?\d{1,5}\b`)},
	{Name: "volume-issue", Pattern: ci(`\b\d+\s?\(\d+(?:[–-]\d+)?\)|\bvol(?:ume)?\.?\s?\d+|\bno\.\s?\d+`)},
	{Name: "publisher-keyword", Pattern: ci(`\b(?:press|publishers?|publishing|publications|books|journal|quarterly|proceedings|university|magazine|review|verlag)\b`)},
}

// Abbreviations are tokens whose trailing period does not end a sentence.
var Abbreviations = map[string]bool{
	"al": true, "e.g": true, "i.e": true, "vol": true, "no": true, "ed": true,
	"eds": true, "pp": true, "p": true, "st": true, "dr": true, "mr": true,
	"mrs": true, "ms": true, "inc": true, "ltd": true, "co": true, "jr": true,
	"sr": true, "vs": true, "u.s": true, "u.k": true, "rev": true, "trans": true,
	"n.d": true, "ca": true, "cf": true, "fig": true, "ch": true,
}
