package classify

// Style is how a category is shown to people.
type Style struct {
	Icon  string
	Color string // hex RGB
	Label string
}

var styles = map[Category]Style{
	Research:    {Icon: "🔬", Color: "#3b82f6", Label: "Research"},
	Arts:        {Icon: "🎨", Color: "#d946ef", Label: "Arts & Culture"},
	Community:   {Icon: "🤝", Color: "#f97316", Label: "Community"},
	Business:    {Icon: "💼", Color: "#64748b", Label: "Business"},
	Education:   {Icon: "🎓", Color: "#eab308", Label: "Education"},
	Environment: {Icon: "🌱", Color: "#22c55e", Label: "Environment"},
	Other:       {Icon: "📄", Color: "#9ca3af", Label: "Other"},
}

// StyleFor returns the style of category. Unknown or empty categories get
// the style of Other.
func StyleFor(category Category) Style {
	if s, ok := styles[category]; ok {
		return s
	}
	return styles[Other]
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Research, Arts, Community, Business, Education, Environment, Other}
}

// ParseCategory converts s to a Category. It reports false for names
// outside the fixed set.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := styles[c]
	return c, ok
}
