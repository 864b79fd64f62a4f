package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"a", "", 1},
		{"", "b", 1},
		{"kitten", "sitting", 3},
		{"items", "itmes", 2},
		{"offers", "offers", 0},
		{"₹10", "₹19", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, editDistance(tt.a, tt.b), "editDistance(%q, %q)", tt.a, tt.b)
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []string{"auth", "profile", "dashboard", "categories", "items", "offers", "plans", "reviews", "orders", "endpoints", "cache", "version"}
	tests := []struct {
		input string
		want  string
	}{
		{"catgories", "categories"},
		{"itms", "items"},
		{"ofers", "offers"},
		{"dashbord", "dashboard"},
		{"revews", "reviews"},
		{"endpoint", "endpoints"},
		{"prof", "profile"},
		{"zzzzzz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, suggestCommand(tt.input, commands), "input %q", tt.input)
	}
}

func TestSuggestCommandShortWordsStayStrict(t *testing.T) {
	assert.Equal(t, "", suggestCommand("xy", []string{"ls", "rm"}))
	assert.Equal(t, "ls", suggestCommand("lx", []string{"ls", "rm"}))
}

func TestSuggestFlag(t *testing.T) {
	flags := []string{"--category", "--price", "--availability", "--veg", "--image", "--dry-run"}
	assert.Equal(t, "--category", suggestFlag("--categroy", flags))
	assert.Equal(t, "--price", suggestFlag("--prcie", flags))
	assert.Equal(t, "--availability", suggestFlag("--avail", flags))
	assert.Equal(t, "--dry-run", suggestFlag("-dryrun", flags))
	assert.Equal(t, "", suggestFlag("--", flags))
	assert.Equal(t, "", suggestFlag("--completely-different", flags))
}
