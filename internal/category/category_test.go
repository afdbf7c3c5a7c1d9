package category

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		want       string
		wantFixed  Fixed
		wantCustom bool
	}{
		{name: "fixed exact", raw: "Accounting", want: "Accounting", wantFixed: Accounting},
		{name: "fixed lower", raw: "promotional", want: "Promotional", wantFixed: Promotional},
		{name: "quoted and padded", raw: "  \"Social\"\n", want: "Social", wantFixed: Social},
		{name: "single quotes", raw: "'sales'", want: "Sales", wantFixed: Sales},
		{name: "custom two words", raw: "travel plans", want: "Travel Plans", wantCustom: true},
		{name: "custom mixed case", raw: "tAX rETURNS", want: "Tax Returns", wantCustom: true},
		{name: "empty", raw: "", want: "Misc", wantFixed: Misc},
		{name: "only quotes", raw: `""`, want: "Misc", wantFixed: Misc},
		{name: "too long", raw: strings.Repeat("a", 30), want: "Misc", wantFixed: Misc},
		{name: "max length", raw: strings.Repeat("b", 29), want: "B" + strings.Repeat("b", 28), wantCustom: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.raw)
			assert.Equal(t, tc.want, got.Name())
			assert.Equal(t, tc.wantCustom, got.IsCustom())
			if !tc.wantCustom {
				fixed, ok := got.Fixed()
				assert.True(t, ok)
				assert.Equal(t, tc.wantFixed, fixed)
			}
			n := len([]rune(got.Name()))
			assert.True(t, n >= 1 && n <= MaxCustomLen, "name length %d out of range", n)
			assert.NotContains(t, got.Name(), `"`)
			assert.NotContains(t, got.Name(), "'")
		})
	}
}

func TestKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "travel plans", Parse("TRAVEL PLANS").Key())
	assert.True(t, Parse("misc").Equal(Default()))
	assert.True(t, Of(Personal).Equal(Parse("PERSONAL")))
}

func TestZeroValueNamesMisc(t *testing.T) {
	var c Category
	assert.True(t, c.IsZero())
	assert.Equal(t, "Misc", c.Name())
	assert.False(t, c.IsCustom())
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Hello World", TitleCase("hello world"))
	assert.Equal(t, "2Fa Codes", TitleCase("2fa codes"))
	assert.Equal(t, "Re-Order", TitleCase("re-order"))
}
