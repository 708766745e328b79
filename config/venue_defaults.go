package config

import "venue-analyze-go/internal/model"

// BuiltinMappingSource 内置兜底规则的来源标识
const BuiltinMappingSource = "builtin"

var defaultStripPatterns = []string{
	`\s*(?:…|\.\.\.)\s*$`,
	`,?\s*\b\d+\s*\(\d+(?:\s*-\s*\d+)?\)`,
	`,?\s*\bpp?\.?\s*\d+(?:\s*-\s*\d+)?`,
	`(?:[\s,]+(?:vol\.?|no\.?)?\s*\d+(?:\s*-\s*\d+)?)+\s*$`,
	`,?\s*\b(?:19|20)\d{2}\b`,
}

var defaultWorkshopPatterns = []string{
	`\bworkshops?\b`,
	`\bwksps?\b`,
}

var defaultGenericTerms = []string{
	"the", "proceedings", "proc", "proc.", "journal", "conference",
	"symposium", "transactions", "ieee", "acm", "preprint",
}

var defaultFallbackPrefixes = []string{
	"proceedings of the", "proceedings of", "proceedings", "proc.", "proc", "the",
}

var defaultFallbackSuffixes = []string{
	"proceedings", "proc.", "proc",
}

// BuiltinVenueMapping 映射文件加载失败时使用的兜底规则，只覆盖最高频的venue
func BuiltinVenueMapping() *VenueMapping {
	enabled := true
	conf := func(label string, patterns ...string) VenueDef {
		return VenueDef{Label: label, Type: model.VenueConference, Patterns: patterns}
	}
	journal := func(label string, patterns ...string) VenueDef {
		return VenueDef{Label: label, Type: model.VenueJournal, Patterns: patterns}
	}

	return &VenueMapping{
		Version: 1,
		Preprocessing: PreprocessingConfig{
			StripPatterns: append([]string(nil), defaultStripPatterns...),
		},
		MinLength:    DefaultMinLength,
		GenericTerms: append([]string(nil), defaultGenericTerms...),
		Workshop: WorkshopConfig{
			Enabled:  &enabled,
			Suffix:   DefaultWorkshopSuffix,
			Patterns: append([]string(nil), defaultWorkshopPatterns...),
		},
		Fallback: FallbackConfig{
			Prefixes: append([]string(nil), defaultFallbackPrefixes...),
			Suffixes: append([]string(nil), defaultFallbackSuffixes...),
		},
		Categories: []VenueCategory{
			{
				Name: "Computer Vision",
				Venues: []VenueDef{
					conf("CVPR", `computer vision and pattern recognition`, `\bcvprw?\b`),
					{
						Label:    "ICCV",
						Type:     model.VenueConference,
						Patterns: []string{`international conference on computer vision`, `\biccvw?\b`},
						Negative: []string{`theory and applications`, `\bvisapp\b`},
					},
					conf("ECCV", `european conference on computer vision`, `\beccvw?\b`),
				},
			},
			{
				Name: "Machine Learning",
				Venues: []VenueDef{
					conf("NeurIPS", `neural information processing systems`, `\bneurips\b`, `\bnips\b`),
					conf("ICML", `international conference on machine learning`, `\bicml\b`),
					conf("ICLR", `international conference on learning representations`, `\biclr\b`),
					conf("AAAI", `\baaai\b`, `advancement of artificial intelligence`),
					conf("IJCAI", `international joint conferences? on artificial intelligence`, `\bijcai\b`),
				},
			},
			{
				Name: "Natural Language Processing",
				Venues: []VenueDef{
					conf("NAACL", `north american chapter`, `\bnaacl\b`),
					conf("EMNLP", `empirical methods in natural language processing`, `\bemnlp\b`),
					conf("ACL", `association for computational linguistics`, `\bacl\b`),
				},
			},
			{
				Name: "Data Mining",
				Venues: []VenueDef{
					conf("KDD", `\bsigkdd\b`, `knowledge discovery and data mining`, `\bkdd\b`),
					conf("WWW", `world wide web conference`, `\bwww\b`),
				},
			},
			{
				Name: "Journals",
				Venues: []VenueDef{
					journal("IEEE TPAMI", `transactions on pattern analysis and machine intelligence`, `\btpami\b`),
					journal("IJCV", `international journal of computer vision`, `\bijcv\b`),
					journal("JMLR", `journal of machine learning research`, `\bjmlr\b`),
				},
			},
			{
				Name: "Preprints",
				Venues: []VenueDef{
					{Label: "arXiv", Type: model.VenuePreprint, Patterns: []string{`\barxiv\b`, `\bcorr\b`}},
				},
			},
		},
	}
}
