// Package classify annotates free text with a category and an amount tier.
// Everything here is a deterministic lookup; there is no model behind it.
package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// Category is one of a fixed set of topics.
type Category string

const (
	Research    Category = "research"
	Arts        Category = "arts"
	Community   Category = "community"
	Business    Category = "business"
	Education   Category = "education"
	Environment Category = "environment"
	Other       Category = "other"
)

// Tier buckets the largest amount mentioned in the text.
type Tier string

const (
	TierLarge   Tier = "large"
	TierMedium  Tier = "medium"
	TierSmall   Tier = "small"
	TierUnknown Tier = "unknown"
)

// Tier thresholds, in the unit the amount was written in.
const (
	largeThreshold  = 1_000_000
	mediumThreshold = 100_000
)

// Classification is the result of Classify.
type Classification struct {
	Category  Category
	Tier      Tier
	Amount    float64
	HasAmount bool
}

// categoryKeywords is checked in order; the first category with a matching
// keyword wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{Research, []string{"research", "science", "scientific", "study", "laboratory", "研究", "科学"}},
	{Arts, []string{"arts", "artist", "culture", "cultural", "music", "film", "theatre", "theater", "芸術", "文化"}},
	{Education, []string{"education", "school", "student", "scholarship", "teacher", "教育", "奨学", "学校"}},
	{Environment, []string{"environment", "climate", "carbon", "energy", "conservation", "環境", "気候", "エネルギー"}},
	{Business, []string{"business", "startup", "enterprise", "innovation", "commercial", "small firm", "起業", "事業", "企業"}},
	{Community, []string{"community", "nonprofit", "non-profit", "neighborhood", "volunteer", "地域", "福祉"}},
}

// Classify returns the category and tier of text. Text without a
// recognizable amount gets TierUnknown; text without a known keyword gets
// Other.
func Classify(text string) Classification {
	result := Classification{
		Category: categorize(text),
		Tier:     TierUnknown,
	}

	if amount, ok := ParseAmount(text); ok {
		result.Amount = amount
		result.HasAmount = true
		result.Tier = tierFor(amount)
	}

	return result
}

func categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.category
			}
		}
	}
	return Other
}

func tierFor(amount float64) Tier {
	switch {
	case amount >= largeThreshold:
		return TierLarge
	case amount >= mediumThreshold:
		return TierMedium
	case amount > 0:
		return TierSmall
	default:
		return TierUnknown
	}
}

// amountPattern finds a number that is marked as money by a currency
// symbol or code before it, or by a currency or multiplier word after it.
var amountPattern = regexp.MustCompile(
	`(?i)(?:(?P<prefix>[$€£¥]|\b(?:usd|eur|gbp|jpy))\s*)?` +
		`(?P<number>\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)` +
		`\s*(?P<suffix>(?:billion|million|thousand|dollars|usd|eur|gbp|bn|m|k)\b|億円|億|万円|万|千円|円)?`,
)

var multipliers = map[string]float64{
	"billion":  1e9,
	"bn":       1e9,
	"million":  1e6,
	"m":        1e6,
	"thousand": 1e3,
	"k":        1e3,
	"億円":       1e8,
	"億":        1e8,
	"万円":       1e4,
	"万":        1e4,
	"千円":       1e3,
}

// ParseAmount returns the largest money amount found in text. A bare number
// with neither a currency marker nor a multiplier (a year, a count) is not
// an amount.
func ParseAmount(text string) (float64, bool) {
	prefixIdx := amountPattern.SubexpIndex("prefix")
	numberIdx := amountPattern.SubexpIndex("number")
	suffixIdx := amountPattern.SubexpIndex("suffix")

	var best float64
	found := false
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		prefix, suffix := m[prefixIdx], strings.ToLower(m[suffixIdx])
		if prefix == "" && suffix == "" {
			continue
		}

		value, err := strconv.ParseFloat(strings.ReplaceAll(m[numberIdx], ",", ""), 64)
		if err != nil {
			continue
		}
		if mult, ok := multipliers[suffix]; ok {
			value *= mult
		}

		if !found || value > best {
			best = value
			found = true
		}
	}

	return best, found
}
