package query

// ExampleCategory groups sample questions by topic.
type ExampleCategory struct {
	Category string   `json:"category"`
	Queries  []string `json:"queries"`
}

// ExampleCatalog is the static set of sample questions shown to users.
type ExampleCatalog struct {
	Examples []ExampleCategory `json:"examples"`
	Tips     []string          `json:"tips"`
}

// Examples returns a fresh copy of the example catalog.
func Examples() ExampleCatalog {
	return ExampleCatalog{
		Examples: []ExampleCategory{
			{
				Category: "Safety & Contaminants",
				Queries: []string{
					"What fish have the lowest mercury levels?",
					"Is it safe to eat tuna during pregnancy?",
					"Which vegetables have the most pesticide residue?",
					"What are the health effects of methylmercury?",
				},
			},
			{
				Category: "Recalls",
				Queries: []string{
					"Are there any recalls for chicken?",
					"What products were recalled for salmonella?",
					"Show me critical food recalls this month",
					"Has romaine lettuce been recalled recently?",
				},
			},
			{
				Category: "Sustainability",
				Queries: []string{
					"Which seafood is most sustainable?",
					"What fish should I avoid for environmental reasons?",
					"Is farmed salmon sustainable?",
					"What are the most overfished species?",
				},
			},
			{
				Category: "State Advisories",
				Queries: []string{
					"Are there fish advisories in California?",
					"What fish are safe to eat from Florida waters?",
					"Which states have mercury warnings for bass?",
					"Can I eat fish from Lake Michigan?",
				},
			},
			{
				Category: "Nutrition",
				Queries: []string{
					"What are the health benefits of salmon?",
					"Which foods are high in omega-3?",
					"What's the nutritional value of kale?",
					"Compare nutrition between wild and farmed fish",
				},
			},
		},
		Tips: []string{
			"Be specific about what you want to know",
			"Mention specific foods, contaminants, or locations",
			"Ask about safety, nutrition, recalls, or sustainability",
			"The AI will search the database and provide evidence-based answers",
		},
	}
}
