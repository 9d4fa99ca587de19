package botapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tbl := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "short", text: "hello", limit: 10, want: []string{"hello"}},
		{name: "by lines", text: "aaa\nbbb\nccc\n", limit: 8, want: []string{"aaa\nbbb\n", "ccc\n"}},
		{name: "long line", text: "abcdefgh\nxy", limit: 3, want: []string{"abc", "def", "gh\n", "xy"}},
		{name: "runes", text: "ééé\néé", limit: 4, want: []string{"ééé\n", "éé"}},
	}

	for _, tt := range tbl {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, strings.Join(got, ""))
		})
	}
}
