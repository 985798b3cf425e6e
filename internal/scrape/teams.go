// Package scrape loads player records saved by the ESPN projection and
// HoopsHype salary scrapers.
package scrape

import (
	"regexp"
	"strings"
)

// teamAliases maps scraped team labels to the registry's team_name values.
var teamAliases = map[string]string{
	"LA Clippers": "Los Angeles Clippers",
	"LA Lakers":   "Los Angeles Lakers",
	"Team 5312":   "Free Agent",
}

// hoopsHypeTeams maps the numeric logo ids HoopsHype uses in its tables.
var hoopsHypeTeams = map[string]string{
	"1":  "Atlanta Hawks",
	"2":  "Boston Celtics",
	"3":  "Brooklyn Nets",
	"4":  "Charlotte Hornets",
	"5":  "Cleveland Cavaliers",
	"6":  "Los Angeles Lakers",
	"7":  "Denver Nuggets",
	"8":  "Detroit Pistons",
	"9":  "Golden State Warriors",
	"10": "Phoenix Suns",
	"11": "Houston Rockets",
	"12": "LA Clippers",
	"13": "Los Angeles Lakers",
	"14": "Indiana Pacers",
	"15": "Milwaukee Bucks",
	"16": "Miami Heat",
	"17": "Minnesota Timberwolves",
	"18": "Minnesota Timberwolves",
	"19": "New Orleans Pelicans",
	"20": "Philadelphia 76ers",
	"21": "Phoenix Suns",
	"22": "Portland Trail Blazers",
	"23": "Chicago Bulls",
	"24": "Sacramento Kings",
	"25": "San Antonio Spurs",
	"26": "Utah Jazz",
	"27": "Orlando Magic",
	"28": "Washington Wizards",
	"29": "Toronto Raptors",
	"30": "New York Knicks",
}

// NormalizeTeam maps a scraped team label to the registry's naming.
func NormalizeTeam(name string) string {
	name = strings.TrimSpace(name)
	if mapped, ok := teamAliases[name]; ok {
		return mapped
	}
	return name
}

// teamFromLogo resolves a HoopsHype logo URL such as
// ".../nba/logos/7.png" to a team name. Unknown ids become "Team <id>".
func teamFromLogo(src string) string {
	_, rest, ok := strings.Cut(src, "nba/logos/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, ".")
	if name, ok := hoopsHypeTeams[id]; ok {
		return name
	}
	return "Team " + id
}

var seasonPattern = regexp.MustCompile(`^(\d{4})[-/](\d{2})$`)

// SeasonKey canonicalizes a season label ("2025/26" or "2025-26") to
// "2025-26". ok is false for anything else.
func SeasonKey(label string) (key string, ok bool) {
	m := seasonPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", false
	}
	return m[1] + "-" + m[2], true
}
