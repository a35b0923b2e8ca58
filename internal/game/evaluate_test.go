package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// statuses renders a result as a compact string: C=correct, P=present, A=absent.
func statuses(r GuessResult) string {
	var b strings.Builder
	for _, lr := range r {
		switch lr.Status {
		case Correct:
			b.WriteByte('C')
		case Present:
			b.WriteByte('P')
		case Absent:
			b.WriteByte('A')
		}
	}
	return b.String()
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		guess    string
		solution string
		want     string
	}{
		{"exact match", "CRANE", "CRANE", "CCCCC"},
		{"no overlap", "BUMPY", "CRANE", "AAAAA"},
		{"two E in guess, two in solution", "SPEED", "ERASE", "PAPPA"},
		{"duplicate guess letter, single unclaimed", "EERIE", "CRANE", "AAPAC"},
		{"correct claims before present", "SASSY", "CLASS", "PPACA"},
		{"present left to right", "LLAMA", "HELLO", "PPAAA"},
		{"anagram", "NACRE", "CRANE", "PPPPC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.guess, tt.solution)
			assert.Equal(t, tt.want, statuses(got))
			for i := range got {
				assert.Equal(t, string(tt.guess[i]), got[i].Letter)
			}
		})
	}
}

func TestEvaluateSelfIsAllCorrect(t *testing.T) {
	for _, w := range []string{"CRANE", "EERIE", "MAMMA", "SPEED", "LEVEL"} {
		assert.True(t, Evaluate(w, w).AllCorrect(), w)
	}
}

func TestEvaluateNeverOverclaimsLetters(t *testing.T) {
	pairs := [][2]string{
		{"EERIE", "CRANE"}, {"SPEED", "ERASE"}, {"MAMMA", "AMASS"},
		{"LLAMA", "HELLO"}, {"GEESE", "THEME"}, {"ABBEY", "BABBY"},
	}
	for _, p := range pairs {
		got := Evaluate(p[0], p[1])
		claimed := map[string]int{}
		for _, lr := range got {
			if lr.Status != Absent {
				claimed[lr.Letter]++
			}
		}
		for l, n := range claimed {
			assert.LessOrEqual(t, n, strings.Count(p[1], l), "%s vs %s letter %s", p[0], p[1], l)
		}
	}
}
