// Package symptomset holds the ordered, de-duplicated symptom tokens of a session.
package symptomset

import (
	"fmt"

	commonerrors "symptom-checker/internal/common/errors"
	"symptom-checker/internal/session/textnorm"
)

var (
	ErrEmptyInput      = commonerrors.New(commonerrors.ErrCodeEmptyInput, "Please enter a symptom")
	ErrDuplicate       = commonerrors.New(commonerrors.ErrCodeDuplicateSymptom, "Symptom already added")
	ErrIndexOutOfRange = commonerrors.New(commonerrors.ErrCodeIndexOutOfRange, "No symptom at that position")
)

// Set is not safe for concurrent use; the session controller serializes access.
type Set struct {
	tokens []string
}

func New() *Set {
	return &Set{}
}

// Add normalizes raw and appends it. Empty and duplicate tokens are rejected
// without changing the set.
func (s *Set) Add(raw string) (string, error) {
	return s.AddToken(textnorm.Normalize(raw))
}

// AddToken appends an already normalized token.
func (s *Set) AddToken(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyInput
	}
	if s.Contains(token) {
		return "", ErrDuplicate.WithDetails(token)
	}
	s.tokens = append(s.tokens, token)
	return token, nil
}

// Remove deletes the token at index, keeping the order of the rest.
func (s *Set) Remove(index int) (string, error) {
	if index < 0 || index >= len(s.tokens) {
		return "", ErrIndexOutOfRange.WithDetails(fmt.Sprintf("index %d, size %d", index, len(s.tokens)))
	}
	removed := s.tokens[index]
	s.tokens = append(s.tokens[:index], s.tokens[index+1:]...)
	return removed, nil
}

func (s *Set) Clear() {
	s.tokens = nil
}

func (s *Set) Contains(token string) bool {
	for _, t := range s.tokens {
		if t == token {
			return true
		}
	}
	return false
}

func (s *Set) Len() int {
	return len(s.tokens)
}

// Tokens returns a copy of the stored tokens in insertion order.
func (s *Set) Tokens() []string {
	return append([]string(nil), s.tokens...)
}

// DisplayList returns the tokens in display form, in insertion order.
func (s *Set) DisplayList() []string {
	out := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		out[i] = textnorm.ToDisplay(t)
	}
	return out
}
