package book

import (
	"errors"
	"strings"
)

var (
	ErrInvalidISBN  = errors.New("invalid ISBN format")
	ErrEmptyTitle   = errors.New("title must not be empty")
	ErrEmptyAuthor  = errors.New("author must not be empty")
	ErrInvalidCount = errors.New("copy count must be positive")
)

// ISBN accepts 10 or 13 digit identifiers; hyphens and spaces are stripped.
type ISBN struct {
	value string
}

func NewISBN(s string) (ISBN, error) {
	normalized := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if !isValidISBNLength(normalized) {
		return ISBN{}, ErrInvalidISBN
	}
	for i, r := range normalized {
		if r >= '0' && r <= '9' {
			continue
		}
		// ISBN-10 allows a trailing check character X
		if len(normalized) == 10 && i == 9 && (r == 'X' || r == 'x') {
			continue
		}
		return ISBN{}, ErrInvalidISBN
	}
	return ISBN{value: strings.ToUpper(normalized)}, nil
}

func isValidISBNLength(s string) bool {
	return len(s) == 10 || len(s) == 13
}

func (i ISBN) Value() string {
	return i.value
}

type Title struct {
	value string
}

func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Title{}, ErrEmptyTitle
	}
	return Title{value: s}, nil
}

func (t Title) Value() string {
	return t.value
}

type Author struct {
	value string
}

func NewAuthor(s string) (Author, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Author{}, ErrEmptyAuthor
	}
	return Author{value: s}, nil
}

func (a Author) Value() string {
	return a.value
}
