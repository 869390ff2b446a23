package services

import (
	"strings"
	"testing"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCategorizer_MatchExact(t *testing.T) {
	c := &Categorizer{}

	tests := []struct {
		name        string
		description string
		keyword     string
		wantMatch   bool
		wantScore   float64
	}{
		{name: "Exact match", description: "gojek", keyword: "gojek", wantMatch: true, wantScore: 1.0},
		{name: "No match - different case", description: "GOJEK", keyword: "gojek"},
		{name: "No match - substring", description: "gojek ride", keyword: "gojek"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMatch, gotScore := c.matchExact(tt.description, tt.keyword)
			assert.Equal(t, tt.wantMatch, gotMatch)
			assert.Equal(t, tt.wantScore, gotScore)
		})
	}
}

func TestCategorizer_MatchSubstring(t *testing.T) {
	c := &Categorizer{}

	tests := []struct {
		name        string
		description string
		keyword     string
		wantMatch   bool
		wantScore   float64
	}{
		{name: "Whole description", description: "netflix", keyword: "netflix", wantMatch: true, wantScore: 1.0},
		{name: "Half of the description", description: "pln token", keyword: "token", wantMatch: true, wantScore: 5.0 / 9.0},
		{name: "Not contained", description: "indomaret", keyword: "alfamart"},
		{name: "Empty keyword", description: "indomaret", keyword: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMatch, gotScore := c.matchSubstring(tt.description, tt.keyword)
			assert.Equal(t, tt.wantMatch, gotMatch)
			assert.InDelta(t, tt.wantScore, gotScore, 0.0001)
		})
	}
}

func TestCategorizer_MatchRegex(t *testing.T) {
	food := uuid.New()
	c := NewCategorizer(nil, Rule{Keyword: `^(grab|go)food`, CategoryID: food, MatchType: MatchRegex})

	matched, score := c.matchRegex("gofood martabak", `^(grab|go)food`)
	assert.True(t, matched)
	assert.Equal(t, 0.8, score)

	matched, _ = c.matchRegex("martabak via gofood", `^(grab|go)food`)
	assert.False(t, matched)

	// Patterns that never compiled do not match
	matched, _ = c.matchRegex("anything", `([`)
	assert.False(t, matched)
}

func TestCategorizer_InvalidRegexIsIgnored(t *testing.T) {
	other := uuid.New()
	c := NewCategorizer(nil, Rule{Keyword: `([`, CategoryID: other, MatchType: MatchRegex})
	assert.Equal(t, uuid.Nil, c.Categorize("", "([ literal"))
}

func TestCategorizer_MatchFuzzy(t *testing.T) {
	c := &Categorizer{}

	tests := []struct {
		name        string
		description string
		keyword     string
		wantMatch   bool
	}{
		{name: "Contained", description: "bayar listrik desember", keyword: "listrik", wantMatch: true},
		{name: "Typo in a word", description: "bayar lstrik", keyword: "listrik", wantMatch: true},
		{name: "Whole description close", description: "salarry", keyword: "salary", wantMatch: true},
		{name: "Unrelated", description: "kopi kenangan", keyword: "transport"},
		{name: "Empty keyword", description: "kopi", keyword: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMatch, _ := c.matchFuzzy(tt.description, tt.keyword, DefaultSimilarityThreshold)
			assert.Equal(t, tt.wantMatch, gotMatch)
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"makan", "makan", 0},
		{"makan", "makam", 1},
		{"café", "cafe", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshteinDistance([]rune(tt.s1), []rune(tt.s2)))
		})
	}
}

func TestCalculateSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, calculateSimilarity("", ""))
	assert.Equal(t, 0.0, calculateSimilarity("abc", ""))
	assert.Equal(t, 1.0, calculateSimilarity("gaji", "gaji"))
	assert.InDelta(t, 0.75, calculateSimilarity("gaji", "gajj"), 0.0001)
}

func TestCategorizer_Categorize(t *testing.T) {
	food := models.Category{ID: uuid.New(), Name: "Food", Type: models.CategoryTypeTransaction}
	salary := models.Category{ID: uuid.New(), Name: "Salary", Type: models.CategoryTypeTransaction}
	transport := models.Category{ID: uuid.New(), Name: "Transport", Type: models.CategoryTypeTransaction}
	work := models.Category{ID: uuid.New(), Name: "Work", Type: models.CategoryTypeTask}

	c := NewCategorizer([]models.Category{food, salary, transport, work},
		Rule{Keyword: "gojek", CategoryID: transport.ID, Priority: 5, MatchType: MatchSubstring},
		Rule{Keyword: "gofood", CategoryID: food.ID, Priority: 10, MatchType: MatchSubstring},
	)

	tests := []struct {
		name         string
		categoryName string
		description  string
		want         uuid.UUID
	}{
		{name: "Named category wins", categoryName: "salary", description: "gojek", want: salary.ID},
		{name: "Named category is trimmed", categoryName: "  Food ", want: food.ID},
		{name: "Unknown name falls back to the description", categoryName: "Groceries", description: "monthly salary", want: salary.ID},
		{name: "Higher priority rule wins", description: "gojek gofood order", want: food.ID},
		{name: "Keyword rule", description: "GOJEK ride", want: transport.ID},
		{name: "Fuzzy category name", description: "trasport to office", want: transport.ID},
		{name: "Task categories are ignored", categoryName: "Work", description: "work lunch", want: uuid.Nil},
		{name: "No match", description: "transfer to mom", want: uuid.Nil},
		{name: "Empty description", want: uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.categoryName, tt.description))
		})
	}
}

func BenchmarkCategorizer_Categorize(b *testing.B) {
	categories := make([]models.Category, 0, 20)
	for _, name := range strings.Fields("food transport salary bills rent shopping health education travel gifts") {
		categories = append(categories, models.Category{ID: uuid.New(), Name: name, Type: models.CategoryTypeTransaction})
	}
	c := NewCategorizer(categories)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Categorize("", "pembayaran tagihan listrik bulan desember")
	}
}
