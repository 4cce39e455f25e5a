package words

import "testing"

func TestIsWithin(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		a, b        string
		maxDistance int
		want        bool
	}{
		{name: "kitten sitting within 3", a: "kitten", b: "sitting", maxDistance: 3, want: true},
		{name: "kitten sitting not within 2", a: "kitten", b: "sitting", maxDistance: 2, want: false},
		{name: "kitten sitting not within 1", a: "kitten", b: "sitting", maxDistance: 1, want: false},
		{name: "identical zero budget", a: "banana", b: "banana", maxDistance: 0, want: true},
		{name: "case fold before compare", a: "BANANA", b: "banana", maxDistance: 0, want: true},
		{name: "single substitution", a: "cat", b: "car", maxDistance: 1, want: true},
		{name: "single insertion", a: "cat", b: "cats", maxDistance: 1, want: true},
		{name: "single deletion", a: "cats", b: "cat", maxDistance: 1, want: true},
		{name: "length gap exceeds budget", a: "cat", b: "catalog", maxDistance: 3, want: false},
		{name: "length gap equals budget", a: "cat", b: "cattle", maxDistance: 3, want: true},
		{name: "empty against word", a: "", b: "abc", maxDistance: 3, want: true},
		{name: "empty against word short budget", a: "", b: "abc", maxDistance: 2, want: false},
		{name: "both empty", a: "", b: "", maxDistance: 0, want: true},
		{name: "negative budget", a: "a", b: "a", maxDistance: -1, want: false},
		{name: "transposition costs two", a: "ab", b: "ba", maxDistance: 1, want: false},
		{name: "transposition within two", a: "ab", b: "ba", maxDistance: 2, want: true},
		{name: "multibyte runes", a: "über", b: "uber", maxDistance: 1, want: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsWithin(tc.a, tc.b, tc.maxDistance); got != tc.want {
				t.Fatalf("IsWithin(%q, %q, %d) = %v, want %v", tc.a, tc.b, tc.maxDistance, got, tc.want)
			}
		})
	}
}

func TestIsWithinIsSymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"kitten", "sitting"},
		{"flamingo", "flamenco"},
		{"a", "abcde"},
		{"", "xyz"},
	}
	for _, pair := range pairs {
		for budget := 0; budget <= 4; budget++ {
			forward := IsWithin(pair[0], pair[1], budget)
			backward := IsWithin(pair[1], pair[0], budget)
			if forward != backward {
				t.Fatalf("IsWithin(%q, %q, %d) = %v but reversed = %v", pair[0], pair[1], budget, forward, backward)
			}
		}
	}
}

func TestIsWithinIdentityAtZero(t *testing.T) {
	t.Parallel()

	for _, word := range []string{"", "a", "zebra", "straße", "açaí"} {
		if !IsWithin(word, word, 0) {
			t.Fatalf("IsWithin(%q, %q, 0) = false, want true", word, word)
		}
	}
}
