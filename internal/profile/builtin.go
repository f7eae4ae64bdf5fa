package profile

const (
	Generic  = "generic"
	Quebec   = "quebec"
	Business = "business"
)

var baseAnalysisAsks = []string{
	"Document type (formal, informal, technical, creative, etc.)",
	"Content sections (introduction, body, conclusion, etc.)",
	"Special formatting elements (tables, lists, headers, etc.)",
}

var baseReviewAsks = []string{
	"Overall quality assessment (1-10)",
	"Accuracy assessment (1-10)",
	"Fluency assessment (1-10)",
	"Style preservation assessment (1-10)",
}

func init() {
	Register(genericProfile())
	Register(quebecProfile())
	Register(businessProfile())
}

func genericProfile() *Profile {
	return &Profile{
		Name:          Generic,
		Description:   "Any target language; neutral register, formatting preserved",
		DefaultTarget: "French",

		AnalysisSystem: "You are a document analysis expert. Your task is to analyze the document's structure " +
			"and report its format, content type, sections, and any special formatting that must be " +
			"preserved during translation.",
		AnalysisIntro: "Please analyze the following document content:",
		AnalysisAsks: append(append([]string{}, baseAnalysisAsks...),
			"Technical terminology that should be preserved",
			"Overall complexity level for translation (low, medium, high)",
		),

		TranslationSystem: "You are an expert translator specialized in {{.DocType}} documents with {{.Complexity}} " +
			"complexity. Translate accurately while preserving the original formatting, tone, and style. " +
			"Pay special attention to technical terminology.",
		TranslationIntro: "Please translate the following text from English to {{.Target}}.\n" +
			"Maintain the original formatting, paragraphs, and style:",
		TermsHeading:   "Technical terms to preserve or handle with care:",
		TranslationCue: "Translation:",
		ImageNote: "Images are attached. After the translated text, describe each image in {{.Target}} " +
			"and translate any visible text.",

		ReviewSystem: "You are an expert translation reviewer specialized in English to {{.Target}} translations. " +
			"Your task is to review the translation for accuracy, fluency, and preservation of meaning and style.",
		ReviewAsks: append(append([]string{}, baseReviewAsks...),
			"Specific issues found (if any)",
			"Suggested corrections (if any)",
		),

		CorrectionIntro: "Please correct the following translation based on these issues:",
		IssuesKey:       "specific_issues",
		CorrectionCue:   "Please provide the improved translation:",

		EnhanceSystem: "You are an expert in language localization and translation refinement. Your task is to " +
			"improve the given translation while preserving tone and style, adapting for {{.Target}} " +
			"regional usage where applicable.",
		EnhanceIntro: "Enhance the following translation to better match the intended tone, style, and " +
			"regional nuances of {{.Target}}:",
		EnhanceCue: "Provide an improved translation that better preserves meaning, style, and tone. " +
			"Output only the translation.\n\nImproved Translation:",

		GateExpr: "overall_quality < threshold",
	}
}

func quebecProfile() *Profile {
	return &Profile{
		Name:          Quebec,
		Description:   "Quebec French localization with authenticity scoring and a dynamic glossary",
		DefaultTarget: "Quebec French",

		AnalysisSystem: "You are a document analysis expert specializing in content that will be translated to " +
			"Quebec French (Canadian French). Analyze the document's structure and report its format, " +
			"content type, sections, and any special formatting that must be preserved. Pay special " +
			"attention to elements that may need adaptation for the Quebec cultural context.",
		AnalysisIntro: "Please analyze the following document content with Quebec French translation in mind:",
		AnalysisAsks: append(append([]string{}, baseAnalysisAsks...),
			"Technical terminology that should be preserved or properly localized to Quebec French",
			"Cultural references that might need adaptation for Quebec audiences",
			"English expressions that have specific Quebec French equivalents",
			"Overall complexity level for translation (low, medium, high)",
		),
		AnalysisFields: []Field{
			{Key: "cultural_references", Description: "Cultural references to adapt for Quebec audiences", List: true},
			{Key: "quebec_expressions", Description: "English expressions with specific Quebec French equivalents", List: true},
		},

		TranslationSystem: "You are an expert Quebec French translator specialized in {{.DocType}} documents with " +
			"{{.Complexity}} complexity. You are translating for a Quebec audience and must use Quebec French " +
			"vocabulary, expressions, and grammar patterns. Translate accurately while preserving the original " +
			"formatting, tone, and style.\n\n" +
			"Quebec French translation guidelines:\n" +
			"1. Use Quebec French terminology and expressions rather than International French\n" +
			"2. Apply Quebec grammar conventions, including informal contractions where the register allows\n" +
			"3. Use Quebec idioms and colloquialisms where appropriate for the context\n" +
			"4. Adapt cultural references for a Quebec audience\n" +
			"5. For technical content, use terms familiar to Quebec professionals in that field\n" +
			"6. Preserve the original formatting, paragraph structure, and style\n" +
			"7. For informal content, joual expressions are acceptable if the context allows it",
		TranslationIntro: "Please translate the following text from English to {{.Target}}.\n" +
			"This translation is intended for a Quebec audience, not a general French-speaking audience.",
		TermsHeading:   "Technical terms to localize to Quebec French:",
		NotesHeading:   "Cultural references to adapt for Quebec audience:",
		TranslationCue: "Translation (in Quebec French):",
		ImageNote: "Images are attached. After the translated text, describe each image in Quebec French " +
			"and translate any visible text.",

		ReviewSystem: "You are an expert Quebec French reviewer with deep knowledge of Quebec language and culture. " +
			"Review translations for accuracy, fluency, and whether they reflect Quebec French rather than " +
			"International French. Identify terms or expressions that sound like International French and " +
			"provide Quebec alternatives.",
		ReviewAsks: []string{
			"Overall quality assessment (1-10)",
			"Quebec French authenticity (1-10, where 10 means perfectly Quebec French)",
			"Accuracy assessment (1-10)",
			"Fluency assessment (1-10)",
			"Style preservation assessment (1-10)",
			"International French terms that should be replaced with Quebec equivalents",
			"Cultural adaptations assessment",
			"Suggested corrections to make the text more authentically Quebec French",
		},
		ReviewScores: []Field{
			{Key: "quebec_french_authenticity", Description: "Quebec French authenticity, 10 means perfectly Quebec French"},
		},
		ReviewFields: []Field{
			{Key: "international_french_terms", Description: "International French terms to replace with Quebec equivalents", List: true},
			{Key: "cultural_adaptations", Description: "Assessment of cultural adaptations", List: true},
		},

		CorrectionIntro: "Please correct the following translation based on these issues to make it more authentic Quebec French:",
		IssuesKey:       "international_french_terms",
		IssuesLabel:     "International French terms: ",
		CorrectionCue:   "Please provide the improved Quebec French translation:",

		EnhanceSystem: "You are an expert in Quebec French localization and cultural adaptation. Enhance translations " +
			"so they are culturally authentic and linguistically appropriate for a Quebec audience, taking into " +
			"account vocabulary, grammar patterns, expressions, and cultural references.",
		EnhanceIntro: "Enhance the following translation to better match Quebec French regional dialect, " +
			"expressions, and cultural nuances:",
		EnhanceSteps: []string{
			"Replace any International French terms with Quebec French equivalents",
			"Add Quebec-specific expressions where appropriate",
			"Adjust any cultural references to resonate with a Quebec audience",
			"Ensure grammar patterns follow Quebec French conventions",
			"Make the text sound natural to Quebec French speakers",
		},
		EnhanceCue: "Provide an improved translation that sounds authentically Quebec French. " +
			"Output only the translation.\n\nImproved Translation:",

		Glossary: &GlossaryPrompt{
			System: "You are a Quebec French language specialist. Create glossaries of terms that differ " +
				"between International French and Quebec French.",
			Prompt: "Create a glossary of common terms that differ between International French and Quebec French. " +
				"Include technical terms, common expressions, and everyday vocabulary. Format the response as a " +
				"JSON object where keys are English terms and values are their Quebec French equivalents.\n\n" +
				"Focus on terms that:\n" +
				"1. Are uniquely Québécois\n" +
				"2. Have different meanings or usages in Quebec vs. International French\n" +
				"3. Represent important cultural concepts in Quebec\n" +
				"4. Are commonly used in business, technology, and everyday communication\n\n" +
				"Return only the JSON object without additional explanation.",
		},

		GateExpr: "overall_quality < threshold || quebec_french_authenticity < 8",
	}
}

func businessProfile() *Profile {
	p := genericProfile()
	p.Name = Business
	p.Description = "Business and financial documents for a Canadian French readership; images described"
	p.DefaultTarget = "Canadian French"

	p.AnalysisAsks = append(append([]string{}, baseAnalysisAsks...),
		"Business and financial terminology that should be preserved",
		"Numerical values, currencies and units that must stay exactly as written",
		"Overall complexity level for translation (low, medium, high)",
	)
	p.AnalysisFields = []Field{
		{Key: "numeric_elements", Description: "Numbers, currencies and units that must be kept verbatim", List: true},
	}

	p.TranslationSystem = "You are a professional translator specializing in business and financial documents " +
		"({{.DocType}}, {{.Complexity}} complexity). Translate the provided content from English to {{.Target}} " +
		"while maintaining:\n" +
		"1. Professional terminology and business language\n" +
		"2. Numerical values and formatting exactly as shown\n" +
		"3. Technical terms appropriately translated\n" +
		"4. Document structure and formatting\n" +
		"5. Cultural adaptation for the Canadian French context\n\n" +
		"Provide only the translated text without explanations or metadata."
	p.TermsHeading = "Business terms to translate consistently:"
	p.NotesHeading = "Numbers, currencies and units to keep exactly as written:"
	p.ImageNote = "Images are attached. After the translated text, analyze each image and provide a description " +
		"in {{.Target}}. If an image contains text, charts, graphs, or diagrams, describe the content and " +
		"translate any visible text."

	p.ReviewAsks = append(append([]string{}, baseReviewAsks...),
		"Number and unit fidelity (1-10)",
		"Specific issues found (if any)",
		"Suggested corrections (if any)",
	)
	p.ReviewScores = []Field{
		{Key: "numeric_fidelity", Description: "Numbers, currencies and units preserved exactly"},
	}
	return p
}
