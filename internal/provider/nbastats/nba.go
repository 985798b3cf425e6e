package nbastats

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/albapepper/hoopgeek-data/internal/model"
)

// SeasonTypeRegular is the SeasonType value for regular-season data.
const SeasonTypeRegular = "Regular Season"

// CareerStats holds the regular-season tables of playercareerstats.
type CareerStats struct {
	Career  []model.Fields
	Seasons []model.Fields
}

// AllPlayers returns every player the league has on record, current and
// historical, as seen from season (e.g. "2024-25").
func (c *Client) AllPlayers(ctx context.Context, season string) ([]model.Fields, error) {
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("Season", season)
	params.Set("IsOnlyCurrentSeason", "0")

	resp, err := c.get(ctx, "commonallplayers", params)
	if err != nil {
		return nil, err
	}
	rs, ok := resp.Set("CommonAllPlayers")
	if !ok {
		return nil, fmt.Errorf("commonallplayers: no CommonAllPlayers result set")
	}
	return rs.Records(), nil
}

// PlayerCareerStats returns season-by-season and career regular-season
// totals for one player.
func (c *Client) PlayerCareerStats(ctx context.Context, personID int) (CareerStats, error) {
	params := url.Values{}
	params.Set("PlayerID", strconv.Itoa(personID))
	params.Set("PerMode", "Totals")
	params.Set("LeagueID", "00")

	resp, err := c.get(ctx, "playercareerstats", params)
	if err != nil {
		return CareerStats{}, err
	}

	var out CareerStats
	if rs, ok := resp.Set("CareerTotalsRegularSeason"); ok {
		out.Career = rs.Records()
	}
	if rs, ok := resp.Set("SeasonTotalsRegularSeason"); ok {
		out.Seasons = rs.Records()
	}
	return out, nil
}

// PlayerGameLogs returns every player game log of a season.
func (c *Client) PlayerGameLogs(ctx context.Context, season, seasonType string) ([]model.Fields, error) {
	if seasonType == "" {
		seasonType = SeasonTypeRegular
	}
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("Season", season)
	params.Set("SeasonType", seasonType)

	resp, err := c.get(ctx, "playergamelogs", params)
	if err != nil {
		return nil, err
	}
	rs, ok := resp.Set("PlayerGameLogs")
	if !ok {
		return nil, fmt.Errorf("playergamelogs: no PlayerGameLogs result set")
	}
	return rs.Records(), nil
}

// LeagueGames returns leaguegamefinder team rows for a season: one row per
// team per game, so every game appears twice.
func (c *Client) LeagueGames(ctx context.Context, season, seasonType string) ([]model.Fields, error) {
	if seasonType == "" {
		seasonType = SeasonTypeRegular
	}
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("PlayerOrTeam", "T")
	params.Set("SeasonNullable", season)
	params.Set("SeasonTypeNullable", seasonType)

	resp, err := c.get(ctx, "leaguegamefinder", params)
	if err != nil {
		return nil, err
	}
	rs, ok := resp.Set("LeagueGameFinderResults")
	if !ok {
		return nil, fmt.Errorf("leaguegamefinder: no LeagueGameFinderResults result set")
	}
	return rs.Records(), nil
}

// TeamDetails holds the teamdetails tables the team import reads.
type TeamDetails struct {
	Background  model.Fields
	SocialSites []model.Fields
}

// TeamDetails returns the background row and social links of one franchise.
func (c *Client) TeamDetails(ctx context.Context, teamID int) (TeamDetails, error) {
	params := url.Values{}
	params.Set("TeamID", strconv.Itoa(teamID))

	resp, err := c.get(ctx, "teamdetails", params)
	if err != nil {
		return TeamDetails{}, err
	}

	var out TeamDetails
	if rs, ok := resp.Set("TeamBackground"); ok {
		if recs := rs.Records(); len(recs) > 0 {
			out.Background = recs[0]
		}
	}
	if rs, ok := resp.Set("TeamSocialSites"); ok {
		out.SocialSites = rs.Records()
	}
	return out, nil
}

// Franchise ids are contiguous: 1610612737 (ATL) through 1610612766 (CHA).
const (
	firstTeamID = 1610612737
	teamCount   = 30
)

// TeamIDs returns the ids of the current franchises.
func TeamIDs() []int {
	ids := make([]int, teamCount)
	for i := range ids {
		ids[i] = firstTeamID + i
	}
	return ids
}
