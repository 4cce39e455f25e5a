package words

import (
	"testing"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
)

func testPack() Pack {
	return Pack{
		Rules: Rules{
			NumRounds:            3,
			RoundSeconds:         60,
			TimeExtensionSeconds: 15,
			MatchExpirySeconds:   86400,
			GroupChoiceCount:     3,
			MaxGroupRefreshes:    2,
			MaxTimeExtensions:    2,
			MaxWordReveals:       3,
			TimeExtensionPrices:  []int{10, 25},
			RevealPrices:         []int{5, 10, 20},
			FuzzyDistance: []DistanceRule{
				{MinLength: 4, MaxDistance: 1},
				{MinLength: 7, MaxDistance: 2},
			},
		},
		Groups: []GroupDef{
			{Name: "Food", Categories: []string{"Fruits", "Vegetables"}},
			{Name: "Nature", Categories: []string{"Animals"}},
		},
		Categories: []Definition{
			{Name: "Fruits", Words: []WordDef{{Word: "apple", Score: 5}}},
			{Name: "Vegetables", Words: []WordDef{{Word: "carrot", Score: 4}}},
			{Name: "Animals", Words: []WordDef{{Word: "zebra", Score: 8}}},
		},
	}
}

func TestFromPackBuildsSnapshot(t *testing.T) {
	t.Parallel()

	cfg, err := FromPack(testPack())
	if err != nil {
		t.Fatalf("from pack: %v", err)
	}

	if got := len(cfg.CategoryNames()); got != 3 {
		t.Fatalf("categories = %d, want 3", got)
	}
	if _, ok := cfg.Category("Fruits"); !ok {
		t.Fatal("expected Fruits category to resolve")
	}
	names, ok := cfg.GroupCategories("Food")
	if !ok {
		t.Fatal("expected Food group to resolve")
	}
	if len(names) != 2 {
		t.Fatalf("Food categories = %d, want 2", len(names))
	}
	if cfg.Rules().RoundDuration().Seconds() != 60 {
		t.Fatalf("round duration = %v, want 60s", cfg.Rules().RoundDuration())
	}
}

func TestFromPackRejectsUnknownGroupCategory(t *testing.T) {
	t.Parallel()

	pack := testPack()
	pack.Groups[0].Categories = append(pack.Groups[0].Categories, "Ghost")
	_, err := FromPack(pack)
	if err == nil {
		t.Fatal("expected error for dangling group reference")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodePackCategoryNotFound {
		t.Fatalf("code = %q, want %q", code, apperrors.CodePackCategoryNotFound)
	}
}

func TestFromPackRejectsMissingRules(t *testing.T) {
	t.Parallel()

	pack := testPack()
	pack.Rules.NumRounds = 0
	if _, err := FromPack(pack); err == nil {
		t.Fatal("expected error for zero rounds")
	}
}

func TestDistanceForLength(t *testing.T) {
	t.Parallel()

	cfg, err := FromPack(testPack())
	if err != nil {
		t.Fatalf("from pack: %v", err)
	}

	testCases := []struct {
		length int
		want   int
	}{
		{length: 1, want: 0},
		{length: 3, want: 0},
		{length: 4, want: 1},
		{length: 6, want: 1},
		{length: 7, want: 2},
		{length: 20, want: 2},
	}
	for _, tc := range testCases {
		if got := cfg.DistanceForLength(tc.length); got != tc.want {
			t.Fatalf("DistanceForLength(%d) = %d, want %d", tc.length, got, tc.want)
		}
	}
}

func TestPriceForUse(t *testing.T) {
	t.Parallel()

	ladder := []int{10, 25, 60}
	testCases := []struct {
		used int
		want int
	}{
		{used: 0, want: 10},
		{used: 1, want: 25},
		{used: 2, want: 60},
		{used: 5, want: 60},
		{used: -1, want: 10},
	}
	for _, tc := range testCases {
		if got := PriceForUse(ladder, tc.used); got != tc.want {
			t.Fatalf("PriceForUse(%d) = %d, want %d", tc.used, got, tc.want)
		}
	}
	if got := PriceForUse(nil, 0); got != 0 {
		t.Fatalf("PriceForUse(nil, 0) = %d, want 0", got)
	}
}

func TestHolderSwapsWholesale(t *testing.T) {
	t.Parallel()

	first, err := FromPack(testPack())
	if err != nil {
		t.Fatalf("from pack: %v", err)
	}
	holder := NewHolder(first)
	if holder.Current() != first {
		t.Fatal("expected holder to return seeded snapshot")
	}

	pack := testPack()
	pack.Rules.NumRounds = 5
	second, err := FromPack(pack)
	if err != nil {
		t.Fatalf("from pack: %v", err)
	}
	holder.Swap(second)
	if holder.Current() != second {
		t.Fatal("expected holder to return swapped snapshot")
	}
	if holder.Current().Rules().NumRounds != 5 {
		t.Fatalf("num rounds = %d, want 5", holder.Current().Rules().NumRounds)
	}
}
