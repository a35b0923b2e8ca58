package game

import (
	"fmt"
	"sort"
	"strings"
)

// Constraints are the hints a hard-mode guess must honor.
type Constraints struct {
	// Positions maps index → required letter; 0 means unconstrained.
	Positions [WordLength]byte
	// Required letters must appear somewhere, sorted ascending.
	Required []byte
}

// DeriveConstraints collects every Correct tile as a positional requirement
// and every Present letter not already pinned to a position as an
// existence requirement.
func DeriveConstraints(guesses []Guess) Constraints {
	var c Constraints
	present := map[byte]bool{}
	for _, g := range guesses {
		for i, lr := range g.Result {
			switch lr.Status {
			case Correct:
				c.Positions[i] = lr.Letter[0]
			case Present:
				present[lr.Letter[0]] = true
			}
		}
	}
	for _, p := range c.Positions {
		if p != 0 {
			delete(present, p)
		}
	}
	for l := range present {
		c.Required = append(c.Required, l)
	}
	sort.Slice(c.Required, func(i, j int) bool { return c.Required[i] < c.Required[j] })
	return c
}

// Validate checks word against the constraints: positions first, lowest
// index wins; then required letters in alphabetical order.
func (c Constraints) Validate(word string) error {
	for i, want := range c.Positions {
		if want != 0 && word[i] != want {
			return &HardModeViolation{
				Position: i + 1,
				Letter:   string(want),
				Reason:   fmt.Sprintf("position %d must be %q", i+1, want),
			}
		}
	}
	for _, l := range c.Required {
		if !strings.ContainsRune(word, rune(l)) {
			return &HardModeViolation{
				Letter: string(l),
				Reason: fmt.Sprintf("guess must contain %q", l),
			}
		}
	}
	return nil
}
