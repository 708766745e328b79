package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-analyze-go/config"
	"venue-analyze-go/internal/model"
	"venue-analyze-go/internal/testutil"
)

func newTestMatcher(t *testing.T) *VenueMatcher {
	t.Helper()
	m := LoadVenueMatcher("", testutil.NewTestLogger(t))
	require.Equal(t, config.EmbeddedMappingSource, m.Source())
	return m
}

func TestNormalize_Rules(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"Proc. CVPR 2021", "CVPR"},
		{"CVPR 2019", "CVPR"},
		{"2021 IEEE/CVF CVPR", "CVPR"},
		{"Proceedings of the IEEE/CVF Conference on Computer Vision and Pattern Recognition, 2020", "CVPR"},
		{"IEEE/CVF Conference on Computer Vision and Pattern Recognition Workshops (CVPRW)", "CVPR Workshop"},
		{"ICCV Workshops", "ICCV Workshop"},
		{"European conference on computer vision, 213-229", "ECCV"},
		{"Advances in neural information processing systems 33, 1877-1901", "NeurIPS"},
		{"International conference on machine learning, 8748-8763", "ICML"},
		{"NAACL 2020 Workshop on X", "NAACL Workshop"},
		{"ACL 2019", "ACL"},
		{"Proceedings of the 58th Annual Meeting of the Association for Computational Linguistics, 7871-7880", "ACL"},
		{"Findings of the Association for Computational Linguistics: EMNLP 2020", "EMNLP"},
		{"Transactions of the Association for Computational Linguistics 8, 64-77", "TACL"},
		{"Proceedings of the 26th ACM SIGKDD International Conference on Knowledge Discovery & Data Mining", "KDD"},
		{"Pacific-Asia Conference on Knowledge Discovery and Data Mining, 2019", "PAKDD"},
		{"SIAM International Conference on Data Mining (SDM)", "SDM"},
		{"IEEE Robotics and Automation Letters 5 (2), 3019-3026", "IEEE RA-L"},
		{"2020 IEEE International Conference on Robotics and Automation (ICRA)", "ICRA"},
		{"SIGGRAPH Asia 2020 Technical Papers", "SIGGRAPH Asia"},
		{"ACM SIGGRAPH 2019", "SIGGRAPH"},
		{"Pattern Recognition Letters 138, 1-8", "Pattern Recognition Letters"},
		{"Pattern Recognition 110, 107-120", "Pattern Recognition"},
		{"IEEE transactions on pattern analysis and machine intelligence 43 (1), 172-186", "IEEE TPAMI"},
		{"IEEE Transactions on Image Processing 29, 4651-4664", "IEEE TIP"},
		{"Science Advances 6 (12)", "Science Advances"},
		{"Science 367 (6480), 1-5", "Science"},
		{"Nature 521 (7553), 436-444", "Nature"},
		{"Nature Communications 11 (1), 1-12", "Nature Communications"},
		{"arXiv preprint arXiv:2010.11929", "arXiv"},
		{"CoRR abs/1512.03385", "arXiv"},
		{"US Patent 10,123,456", "US Patents"},
		{"Lecture Notes in Computer Science", "Springer"},
		{"Workshop on Foo Bar", "Workshop"},
		{"Workshop track, arXiv preprint", "arXiv"},
		{"ＩＣＭＬ 2020", "ICML"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			label, skip := m.Normalize(tt.raw)
			assert.Equal(t, model.SkipNone, skip)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestNormalize_NegativePatterns(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		raw     string
		notWant string
	}{
		{"International Conference on Machine Learning and Applications (ICMLA)", "ICML"},
		{"International Conference on Computer Vision Theory and Applications", "ICCV"},
		{"The ACL-deficient knee: anterior cruciate ligament", "ACL"},
		{"Vis Comput Ind Biomed Art", "IEEE VIS"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := m.Explain(tt.raw)
			assert.NotEqual(t, tt.notWant, res.Rule)
			assert.NotEqual(t, tt.notWant, res.Label)
		})
	}
}

// "vis " 也会出现在无关期刊缩写里，这里固定当前行为
func TestNormalize_VisOverlap(t *testing.T) {
	m := newTestMatcher(t)

	label, _ := m.Normalize("Vis Neurosci 12")
	assert.Equal(t, "IEEE VIS", label)
}

func TestNormalize_Fallback(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"Proceedings of the 2020 Conference on Foo Bar, pages 1-10", "Conference on Foo Bar"},
		{"Proc. ICMLA 2020", "ICMLA"},
		{"Journal of Foo Studies 12 (3), 45-67", "Journal of Foo Studies"},
		{"Foo Symposium Proceedings", "Foo Symposium"},
		{"Theoretical Computer Science 800, 1-10", "Theoretical Computer Science"},
		{"Foo Bar 7 (Special issue)", "Foo Bar"},
		{"International Conference on Machine Learning and Applications (ICMLA)", "International Conference on Machine Learning and Applications"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := m.Explain(tt.raw)
			assert.True(t, res.Fallback)
			assert.False(t, res.Skipped())
			assert.Equal(t, tt.want, res.Label)
		})
	}
}

func TestNormalize_Skips(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		raw  string
		want model.SkipReason
	}{
		{"", model.SkipEmpty},
		{"   ", model.SkipEmpty},
		{" ", model.SkipEmpty},
		{"the", model.SkipGeneric},
		{"Proceedings", model.SkipGeneric},
		{"Proc. 12", model.SkipGeneric},
		{"ab", model.SkipTooShort},
		{"2021", model.SkipTooShort},
		{"(12)", model.SkipUnmatched},
		{"The Proceedings, 2020", model.SkipUnmatched},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			label, skip := m.Normalize(tt.raw)
			assert.Equal(t, tt.want, skip)
			assert.Empty(t, label)
		})
	}
}

func TestNormalize_LabelsAreIdempotent(t *testing.T) {
	m := newTestMatcher(t)

	for _, rule := range m.Rules() {
		label, skip := m.Normalize(rule.Label)
		require.Equal(t, model.SkipNone, skip, rule.Label)
		assert.Equal(t, rule.Label, label, "re-normalizing %q", rule.Label)

		if rule.IsConference() && rule.Matches(rule.Label) {
			ws := rule.Label + " Workshop"
			again, _ := m.Normalize(ws)
			assert.Equal(t, ws, again)
		}
	}

	fallbackInputs := []string{
		"Proc. ICMLA 2020",
		"Journal of Foo Studies 12 (3), 45-67",
		"Proceedings of the 2020 Conference on Foo Bar, pages 1-10",
	}
	for _, raw := range fallbackInputs {
		first, _ := m.Normalize(raw)
		second, _ := m.Normalize(first)
		assert.Equal(t, first, second, "fallback label %q", first)
	}
}

func TestExplain(t *testing.T) {
	m := newTestMatcher(t)

	res := m.Explain("NAACL 2020 Workshop on X")
	assert.Equal(t, "NAACL 2020 Workshop on X", res.Raw)
	assert.Equal(t, "NAACL Workshop on X", res.Cleaned)
	assert.Equal(t, "NAACL", res.Rule)
	assert.Equal(t, "Natural Language Processing", res.Category)
	assert.Equal(t, model.VenueConference, res.Type)
	assert.True(t, res.Workshop)
	assert.False(t, res.Fallback)
	assert.Equal(t, "NAACL Workshop", res.Label)

	// workshop后缀只加在会议类规则上
	res = m.Explain("Workshop track, arXiv preprint")
	assert.True(t, res.Workshop)
	assert.Equal(t, model.VenuePreprint, res.Type)
	assert.Equal(t, "arXiv", res.Label)
}

func customMapping(workshop bool) *config.VenueMapping {
	return &config.VenueMapping{
		MinLength:    3,
		GenericTerms: []string{"the"},
		Workshop: config.WorkshopConfig{
			Enabled:  &workshop,
			Suffix:   " (W)",
			Patterns: []string{`\bworkshop\b`},
		},
		Fallback: config.FallbackConfig{Prefixes: []string{"the"}},
		Categories: []config.VenueCategory{{
			Name: "Test",
			Venues: []config.VenueDef{
				{Label: "NAACL", Type: model.VenueConference, Patterns: []string{`\bnaacl\b`}},
				{Label: "ACL", Type: model.VenueConference, Patterns: []string{`acl`}},
			},
		}},
	}
}

func TestNewVenueMatcher_WorkshopConfig(t *testing.T) {
	on, err := NewVenueMatcher(customMapping(true), "test")
	require.NoError(t, err)
	label, _ := on.Normalize("NAACL workshop")
	assert.Equal(t, "NAACL (W)", label)

	off, err := NewVenueMatcher(customMapping(false), "test")
	require.NoError(t, err)
	label, _ = off.Normalize("NAACL workshop")
	assert.Equal(t, "NAACL", label)
}

func TestNewVenueMatcher_FirstMatchWins(t *testing.T) {
	mapping := customMapping(true)
	m, err := NewVenueMatcher(mapping, "test")
	require.NoError(t, err)

	label, _ := m.Normalize("NAACL-HLT")
	assert.Equal(t, "NAACL", label)

	// 顺序反过来，宽泛的 ACL 规则会吃掉 NAACL
	venues := mapping.Categories[0].Venues
	venues[0], venues[1] = venues[1], venues[0]
	m, err = NewVenueMatcher(mapping, "test")
	require.NoError(t, err)
	label, _ = m.Normalize("NAACL-HLT")
	assert.Equal(t, "ACL", label)
}

func TestNewVenueMatcher_BadPattern(t *testing.T) {
	mapping := customMapping(true)
	mapping.Categories[0].Venues[0].Patterns = []string{`(unclosed`}
	_, err := NewVenueMatcher(mapping, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NAACL")

	_, err = NewVenueMatcher(nil, "test")
	require.Error(t, err)
}

func TestLoadVenueMatcher_FallsBackToBuiltin(t *testing.T) {
	m := LoadVenueMatcher("/nonexistent/venue_mapping.yaml", testutil.NewTestLogger(t))
	require.NotNil(t, m)
	assert.Equal(t, config.BuiltinMappingSource, m.Source())

	label, _ := m.Normalize("NAACL 2020 Workshop on X")
	assert.Equal(t, "NAACL Workshop", label)
	label, _ = m.Normalize("ACL 2019")
	assert.Equal(t, "ACL", label)
	label, _ = m.Normalize("Proc. CVPR 2021")
	assert.Equal(t, "CVPR", label)
}

func TestBuiltinMatcher_LabelsAreIdempotent(t *testing.T) {
	m := builtinVenueMatcher()
	for _, rule := range m.Rules() {
		label, _ := m.Normalize(rule.Label)
		assert.Equal(t, rule.Label, label)
	}
}
