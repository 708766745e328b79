package fetcher

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-analyze-go/internal/model"
)

// row 一行论文，venue为空时只有作者片段
func row(title, venue string) string {
	if venue == "" {
		return fmt.Sprintf(`<tr class="gsc_a_tr"><td class="gsc_a_t"><a href="/citations?view_op=view_citation&amp;citation_for_view=x" class="gsc_a_at">%s</a><div class="gs_gray">A Author, B Author</div></td><td class="gsc_a_c">10</td><td class="gsc_a_y"><span>2020</span></td></tr>`, title)
	}
	return fmt.Sprintf(`<tr class="gsc_a_tr"><td class="gsc_a_t"><a href="/citations?view_op=view_citation&amp;citation_for_view=x" class="gsc_a_at">%s</a><div class="gs_gray">A Author, B Author</div><div class="gs_gray">%s</div></td><td class="gsc_a_c">10</td><td class="gsc_a_y"><span>2020</span></td></tr>`, title, venue)
}

func scholarPage(name string, rows []string, button string) string {
	return fmt.Sprintf(`<html><body>
<div id="gsc_prf_in">%s</div>
<table id="gsc_a_t"><tbody id="gsc_a_b">%s</tbody></table>
<div id="gsc_lwp">%s</div>
<a href="/intl/en/scholar/about.html">About</a>
</body></html>`, name, strings.Join(rows, "\n"), button)
}

const (
	moreButton     = `<button type="button" id="gsc_bpf_more" class="gs_btnPD"><span class="gs_wr"><span class="gs_lbl">Show more</span></span></button>`
	disabledButton = `<button type="button" id="gsc_bpf_more" class="gs_btnPD" disabled=""><span class="gs_wr"><span class="gs_lbl">Show more</span></span></button>`
)

func TestParse_Rows(t *testing.T) {
	html := scholarPage("Ada Lovelace", []string{
		row("Paper 1", "CVPR 2021"),
		row("Paper 2", ""),
		`<tr class="gsc_a_tr"><td class="gsc_a_t"><a class="gsc_a_at">Paper 3</a></td></tr>`,
		`<tr class="gsc_a_tr"><td></td><td></td><td><span class="gsc_a_j">Nature 521</span></td></tr>`,
	}, moreButton)

	page, err := NewScholarParser().Parse(html)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", page.Profile)
	assert.Equal(t, []model.RawVenueEntry{
		{Text: "CVPR 2021", Found: true},
		{Text: "A Author, B Author", Found: true},
		{},
		{Text: "Nature 521", Found: true},
	}, page.Entries)
}

func TestParse_Trigger(t *testing.T) {
	tests := []struct {
		name     string
		button   string
		want     bool
		selector string
	}{
		{"enabled", moreButton, true, "#gsc_bpf_more"},
		{"disabled", disabledButton, false, ""},
		{"missing", "", false, ""},
		{"hidden", `<div style="display: none">` + moreButton + `</div>`, false, ""},
		{"empty text", `<button id="gsc_bpf_more"></button>`, false, ""},
		{"text fallback", `<span role="button">Show more</span>`, true, "span"},
		{"text fallback exact", `<a href="#">More</a>`, true, "a"},
		{"unrelated link", `<a href="#">Learn more about Scholar</a>`, false, ""},
		{"pager", `<button class="gsc_pgn_pnx" onclick="gsc_pgn()">Next</button>`, true, ".gsc_pgn_pnx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := NewScholarParser().Parse(scholarPage("X", []string{row("P", "ACL")}, tt.button))
			require.NoError(t, err)
			if !tt.want {
				assert.Nil(t, page.Trigger)
				return
			}
			require.NotNil(t, page.Trigger)
			assert.Equal(t, tt.selector, page.Trigger.Selector)
		})
	}
}

func TestParse_TriggerIgnoresRowsAndCitationLinks(t *testing.T) {
	rows := []string{
		`<tr class="gsc_a_tr"><td><button>Show more</button><div class="gs_gray">a</div><div class="gs_gray">ACL</div></td></tr>`,
	}
	button := `<a href="/citations?view_op=view_citation&amp;user=x">more</a>`
	page, err := NewScholarParser().Parse(scholarPage("X", rows, button))
	require.NoError(t, err)
	assert.Nil(t, page.Trigger)
}

func TestIsMoreText(t *testing.T) {
	assert.True(t, IsMoreText("  SHOW MORE "))
	assert.True(t, IsMoreText("Show more articles"))
	assert.True(t, IsMoreText("more"))
	assert.True(t, IsMoreText("Show"))
	assert.False(t, IsMoreText("Moreover"))
	assert.False(t, IsMoreText(""))
}

func TestCountRows(t *testing.T) {
	n, err := CountRows(scholarPage("X", []string{row("a", "ACL"), row("b", "EMNLP")}, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFindTriggerScript(t *testing.T) {
	script := findTriggerScript()
	for _, sel := range TriggerSelectors {
		assert.Contains(t, script, strings.ReplaceAll(sel, `"`, `\"`))
	}
	assert.Contains(t, script, triggerAttr)
	assert.Contains(t, script, "view_op=view_citation")
}
