package services

import (
	"regexp"
	"strings"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/google/uuid"
)

// Match types of a categorization rule
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
	MatchRegex     = "regex"
	MatchFuzzy     = "fuzzy"
)

// DefaultSimilarityThreshold is the fuzzy match cut-off (0-1)
const DefaultSimilarityThreshold = 0.8

// Rule maps a keyword in a transaction description to a category
type Rule struct {
	Keyword             string
	CategoryID          uuid.UUID
	Priority            int
	MatchType           string
	SimilarityThreshold float64
}

// Categorizer guesses the category of imported transactions from their
// description. Every category contributes a fuzzy rule on its own name; an
// explicit category name in the imported row wins over any rule.
type Categorizer struct {
	rules  []Rule
	byName map[string]uuid.UUID
	regex  map[string]*regexp.Regexp
}

// NewCategorizer builds rules for the transaction categories. Extra rules
// take precedence through their priority.
func NewCategorizer(categories []models.Category, extra ...Rule) *Categorizer {
	c := &Categorizer{
		byName: make(map[string]uuid.UUID),
		regex:  make(map[string]*regexp.Regexp),
	}
	for _, cat := range categories {
		if cat.Type != models.CategoryTypeTransaction {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(cat.Name))
		c.byName[name] = cat.ID
		c.rules = append(c.rules, Rule{
			Keyword:             name,
			CategoryID:          cat.ID,
			MatchType:           MatchFuzzy,
			SimilarityThreshold: DefaultSimilarityThreshold,
		})
	}
	for _, r := range extra {
		if r.MatchType == MatchRegex {
			re, err := regexp.Compile(r.Keyword)
			if err != nil {
				continue
			}
			c.regex[r.Keyword] = re
		}
		c.rules = append(c.rules, r)
	}
	return c
}

// Categorize returns the category for an imported row: the named category if
// it exists, else the best rule match, else uuid.Nil.
func (c *Categorizer) Categorize(categoryName, description string) uuid.UUID {
	if id, ok := c.byName[strings.ToLower(strings.TrimSpace(categoryName))]; ok {
		return id
	}
	return c.matchDescription(description, c.rules)
}

// matchDescription finds the best matching rule for a description
func (c *Categorizer) matchDescription(description string, rules []Rule) uuid.UUID {
	descLower := strings.ToLower(strings.TrimSpace(description))
	if descLower == "" {
		return uuid.Nil
	}

	bestMatch := uuid.Nil
	highestPriority := -1
	highestScore := 0.0

	for _, rule := range rules {
		matched, score := c.matchRule(descLower, rule)
		if !matched {
			continue
		}
		// Higher priority wins, then the higher score
		if rule.Priority > highestPriority || (rule.Priority == highestPriority && score > highestScore) {
			bestMatch = rule.CategoryID
			highestPriority = rule.Priority
			highestScore = score
		}
	}

	return bestMatch
}

func (c *Categorizer) matchRule(description string, rule Rule) (bool, float64) {
	keyword := strings.ToLower(rule.Keyword)
	switch rule.MatchType {
	case MatchExact:
		return c.matchExact(description, keyword)
	case MatchRegex:
		return c.matchRegex(description, rule.Keyword)
	case MatchFuzzy:
		threshold := rule.SimilarityThreshold
		if threshold <= 0 {
			threshold = DefaultSimilarityThreshold
		}
		return c.matchFuzzy(description, keyword, threshold)
	default:
		return c.matchSubstring(description, keyword)
	}
}

func (c *Categorizer) matchExact(description, keyword string) (bool, float64) {
	if description == keyword {
		return true, 1.0
	}
	return false, 0.0
}

// matchSubstring scores by how much of the description the keyword covers
func (c *Categorizer) matchSubstring(description, keyword string) (bool, float64) {
	if keyword != "" && strings.Contains(description, keyword) {
		return true, float64(len(keyword)) / float64(len(description))
	}
	return false, 0.0
}

func (c *Categorizer) matchRegex(description, pattern string) (bool, float64) {
	re, ok := c.regex[pattern]
	if !ok {
		return false, 0.0
	}
	if re.MatchString(description) {
		return true, 0.8
	}
	return false, 0.0
}

// matchFuzzy compares the keyword against the whole description and each of
// its words using Levenshtein similarity.
func (c *Categorizer) matchFuzzy(description, keyword string, threshold float64) (bool, float64) {
	if keyword == "" {
		return false, 0.0
	}
	if strings.Contains(description, keyword) {
		return true, 1.0
	}

	if similarity := calculateSimilarity(description, keyword); similarity >= threshold {
		return true, similarity
	}

	maxSimilarity := 0.0
	for _, word := range strings.Fields(description) {
		similarity := calculateSimilarity(word, keyword)
		if similarity >= threshold {
			return true, similarity
		}
		maxSimilarity = max(maxSimilarity, similarity)
	}
	return false, maxSimilarity
}

// calculateSimilarity returns 1 for identical strings and 0 for entirely
// different ones.
func calculateSimilarity(s1, s2 string) float64 {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 && len(r2) == 0 {
		return 1.0
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}
	distance := levenshteinDistance(r1, r2)
	return 1.0 - float64(distance)/float64(max(len(r1), len(r2)))
}

func levenshteinDistance(s1, s2 []rune) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
