package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "empty",
			raw:  "  \n\t",
			want: nil,
		},
		{
			name: "single block",
			raw:  "Rarity: Rare\nSolar Brand",
			want: []string{"Rarity: Rare\nSolar Brand"},
		},
		{
			name: "crlf and outer whitespace",
			raw:  "\r\n Rarity: Rare\r\nSolar Brand\r\n--------\r\nItem Level: 84 \r\n",
			want: []string{"Rarity: Rare\nSolar Brand", "Item Level: 84"},
		},
		{
			name: "empty blocks dropped",
			raw:  "a\n--------\n   \n--------\n--------\nb",
			want: []string{"a", "b"},
		},
		{
			name: "separator with trailing spaces",
			raw:  "a\n--------  \nb",
			want: []string{"a", "b"},
		},
		{
			name: "longer dash runs are text",
			raw:  "a\n----------\nb",
			want: []string{"a\n----------\nb"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitBlocks(tt.raw))
		})
	}
}
