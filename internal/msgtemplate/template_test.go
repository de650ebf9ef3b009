// ABOUTME: Tests for template placeholder expansion and token insertion
// ABOUTME: Covers repeated tokens, unknown brackets, and bounds clamping

package msgtemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	vars := Vars{Name: "A", Location: "B", Time: "C"}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"all tokens", "Hi [NAME], at [LOCATION] [TIME]", "Hi A, at B C"},
		{"repeated tokens", "[NAME] [NAME] [TIME][TIME]", "A A CC"},
		{"no tokens", "Help me please", "Help me please"},
		{"unknown bracket", "[NAME] is at [PLACE]", "A is at [PLACE]"},
		{"lowercase token is not recognized", "[name]", "[name]"},
		{"empty template", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.tmpl, vars))
		})
	}
}

func TestApply_ValuesAreNotReexpanded(t *testing.T) {
	got := Apply("[NAME] / [TIME]", Vars{Name: "[TIME]", Time: "noon"})
	assert.Equal(t, "[TIME] / noon", got)
}

func TestInsertAt(t *testing.T) {
	assert.Equal(t, "Hi [NAME]!", InsertAt("Hi !", TokenName, 3, 3))
	assert.Equal(t, "Hi [TIME]", InsertAt("Hi there", TokenTime, 3, 8))
	assert.Equal(t, "abc[LOCATION]", InsertAt("abc", TokenLocation, 10, 99))
	assert.Equal(t, "[NAME]abc", InsertAt("abc", TokenName, -4, -1))
	assert.Equal(t, "a[NAME]bc", InsertAt("abc", TokenName, 1, 0))
}
