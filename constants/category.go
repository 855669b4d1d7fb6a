package constants

import "strings"

// Category is a legal risk category produced by the analyzers.
type Category string

const (
	CategoryContract    Category = "Договор"
	CategoryLitigation  Category = "Суд и процесс"
	CategoryPretrial    Category = "Досудебка"
	CategoryDeadlines   Category = "Сроки"
	CategoryDebt        Category = "Задолженность"
	CategoryObligations Category = "Обязательства"
	CategoryCompliance  Category = "Комплаенс"
	CategoryAuthorities Category = "Госорганы"
	CategoryEvidence    Category = "Доказательства"
	CategoryEnforcement Category = "Исполнение"
	CategoryLaw         Category = "Норма права"
	CategoryGeneral     Category = "Общее"
)

var allCategories = []Category{
	CategoryContract,
	CategoryLitigation,
	CategoryPretrial,
	CategoryDeadlines,
	CategoryDebt,
	CategoryObligations,
	CategoryCompliance,
	CategoryAuthorities,
	CategoryEvidence,
	CategoryEnforcement,
	CategoryLaw,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form category labels (as returned by a model)
// onto a known category. Unknown labels are kept verbatim.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return CategoryGeneral, false
	}
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return Category(strings.TrimSpace(input)), false
}

// Level is used both for risk severity and overall urgency.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// ParseLevel normalizes a level; anything unknown becomes MEDIUM.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelLow:
		return LevelLow
	case LevelHigh:
		return LevelHigh
	case LevelMedium:
		return LevelMedium
	}
	return LevelMedium
}
