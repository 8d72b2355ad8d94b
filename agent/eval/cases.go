package eval

// DefaultCases are the knowledge questions scored by the judge. The last one
// asks about a dish the knowledge base does not carry, so a faithful answer
// must decline rather than invent.
var DefaultCases = []string{
	"Do you have vegan options?",
	"What are the opening hours on weekends?",
	"Is the chicken grilled or fried?",
	"Where are your branches?",
	"Do you host birthday events?",
	"What is included in the premium catering package?",
	"Do you have parking?",
	"Do you serve sushi?",
}
