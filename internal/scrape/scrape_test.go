package scrape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopgeek-data/internal/model"
)

func TestLoadProjections(t *testing.T) {
	t.Parallel()

	in := `[
	  {"Name": "Nikola Jokic", "Team": "DEN", "Position": "C",
	   "2025 Statistics": {"GP": "70", "PTS": "29.6"},
	   "2026 Projections": {"PTS": "28.5", "REB": "12.1"},
	   "2026 Outlook": "Still the best."},
	  {"Team": "FA"}
	]`
	recs, err := LoadProjections(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Nikola Jokic", recs[0].Name)
	assert.Equal(t, SourceESPN, recs[0].Source)
	assert.Equal(t, "C", recs[0].Position)
	assert.Equal(t, "28.5", recs[0].Fields.Section("2026 Projections")["PTS"])
	assert.Equal(t, "Still the best.", recs[0].Fields["2026 Outlook"])
	assert.Empty(t, recs[1].Name)
}

func TestLoadProjectionsRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := LoadProjections(strings.NewReader(`{"Name":`))
	require.Error(t, err)
}

func TestLoadSalaries(t *testing.T) {
	t.Parallel()

	in := `[{"Name": "Stephen Curry", "Team": "Golden State Warriors", "2025-26": "$59,606,817", "2026-27": "$62,587,158", "2027/28": null, "Rank": "1"},
	        {"Name": "James Harden", "Team": "LA Clippers", "2025-26": "$36,000,000"}]`
	recs, err := LoadSalaries(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, model.Fields{"2025-26": "$59,606,817", "2026-27": "$62,587,158", "2027-28": nil}, recs[0].Fields)
	assert.Equal(t, "Los Angeles Clippers", recs[1].Team)
}

const salaryPage = `<html><body>
<table class="bserqJ__bserqJ">
  <thead><tr><th>#</th><th>Player</th><th>2025/26</th><th>2026/27</th><th>2027/28</th><th>2028/29</th></tr></thead>
  <tbody>
    <tr>
      <td>1</td>
      <td><img src="https://cdn.hoopshype.com/nba/logos/9.png"><a href="/player/stephen-curry"><div>Stephen Curry</div></a></td>
      <td><span>$59,606,817</span></td>
      <td><span><sup>P</sup>$0</span><span>$62,587,158</span></td>
      <td>-</td>
      <td>-</td>
    </tr>
    <tr>
      <td>2</td>
      <td><img src="https://cdn.hoopshype.com/nba/logos/5312.png"><a>Free Person</a></td>
      <td>$1,000,000</td>
      <td>-</td><td>-</td><td>-</td>
    </tr>
    <tr><td>3</td><td></td><td>-</td><td>-</td><td>-</td><td>-</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseSalaryHTML(t *testing.T) {
	t.Parallel()

	recs, err := ParseSalaryHTML(strings.NewReader(salaryPage))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	curry := recs[0]
	assert.Equal(t, "Stephen Curry", curry.Name)
	assert.Equal(t, "Golden State Warriors", curry.Team)
	assert.Equal(t, "$59,606,817", curry.Fields["2025-26"])
	assert.Equal(t, "$62,587,158", curry.Fields["2026-27"])
	assert.Nil(t, curry.Fields["2027-28"])
	assert.Contains(t, curry.Fields, "2028-29")

	assert.Equal(t, "Free Agent", recs[1].Team)
	assert.Equal(t, "$1,000,000", recs[1].Fields["2025-26"])
}

func TestParseSalaryHTMLWithoutTable(t *testing.T) {
	t.Parallel()

	_, err := ParseSalaryHTML(strings.NewReader(`<html><body><p>blocked</p></body></html>`))
	require.Error(t, err)
}

func TestSeasonKey(t *testing.T) {
	t.Parallel()

	key, ok := SeasonKey("2025/26")
	require.True(t, ok)
	assert.Equal(t, "2025-26", key)

	_, ok = SeasonKey("Player")
	assert.False(t, ok)
}

func TestNormalizeTeam(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Los Angeles Clippers", NormalizeTeam("LA Clippers"))
	assert.Equal(t, "Free Agent", NormalizeTeam("Team 5312"))
	assert.Equal(t, "Denver Nuggets", NormalizeTeam(" Denver Nuggets "))
}
