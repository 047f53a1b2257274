// Package parser turns raw analysis command output into BuildErrors.
//
// Every parser is line-local and pattern based.
package parser

import (
	"strconv"
	"strings"

	"github.com/daydemir/ci-recovery/internal/types"
)

// Parser converts the raw text of one analysis command into build errors.
// Unrecognised lines are dropped, never escalated.
type Parser interface {
	Parse(raw string) []types.BuildError
}

// lines splits output on newlines, tolerating CRLF. Invalid UTF-8 is
// replaced so messages compare equal however they are stored.
func lines(raw string) []string {
	raw = strings.ToValidUTF8(raw, "\uFFFD")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(raw, "\n")
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
