package utils

import (
	"errors"
	"unicode/utf8"
)

// ErrPrefixEmpty is returned when the startsWith filter is empty.
var ErrPrefixEmpty = errors.New("startsWith is required")

// ErrPrefixTooLong is returned when the startsWith filter has more than one character.
var ErrPrefixTooLong = errors.New("startsWith must be a single character")

// ErrPrefixNotLetter is returned when the startsWith filter is not an ASCII letter.
var ErrPrefixNotLetter = errors.New("startsWith must be a letter A-Z")

// ValidateStartsWith accepts exactly one ASCII letter, in either case.
// The input is not trimmed: " A" is rejected like any other two-character value.
func ValidateStartsWith(s string) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return ErrPrefixEmpty
	}
	if n > 1 {
		return ErrPrefixTooLong
	}
	c := s[0]
	if ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') {
		return nil
	}
	return ErrPrefixNotLetter
}
