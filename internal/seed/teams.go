package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/albapepper/hoopgeek-data/internal/config"
	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/provider/nbastats"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// ImportTeams fetches teamdetails for each franchise and writes it through
// the upsert_nba_team procedure. An empty teamIDs means every current
// franchise. A team already in nba_teams counts as updated.
func (im *Importer) ImportTeams(ctx context.Context, teamIDs []int) (Result, error) {
	var res Result
	if err := im.requireStats(); err != nil {
		return res, err
	}
	if len(teamIDs) == 0 {
		teamIDs = nbastats.TeamIDs()
	}
	p := im.pipeline("teams")

	for i, id := range teamIDs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		im.pace(ctx, i)
		label := fmt.Sprintf("team %d", id)

		d, err := im.stats.TeamDetails(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.AddFetchErrorf("teamdetails %d: %v", id, err)
			im.logger.Warn("team details fetch failed", "team_id", id, "error", err)
			continue
		}
		p.add(&res, im.writeTeam(ctx, label, d), config.TeamsTable)
	}
	return res, nil
}

func (im *Importer) writeTeam(ctx context.Context, label string, d nbastats.TeamDetails) RecordResult {
	bg := d.Background
	if bg == nil {
		return RecordResult{Key: label, Outcome: OutcomeSkipped, Reason: "no TeamBackground row"}
	}
	teamID := normalize.ToInt(bg["TEAM_ID"])
	if teamID == nil {
		return RecordResult{Key: label, Outcome: OutcomeSkipped, Reason: "missing TEAM_ID"}
	}

	existed, err := im.store.Exists(ctx, config.TeamsTable, map[string]any{"team_id": *teamID})
	if err != nil {
		return RecordResult{Key: label, Outcome: OutcomeError, Err: fmt.Errorf("exists %s: %w", config.TeamsTable, err)}
	}
	if _, err := im.store.Call(ctx, config.TeamProcedure, teamArgs(*teamID, bg, d.SocialSites)...); err != nil {
		return RecordResult{Key: label, Outcome: OutcomeError, Err: err}
	}
	return RecordResult{Key: label, Outcome: insertOutcome(!existed)}
}

// teamArgs lists the procedure arguments in declaration order: id,
// abbreviation, nickname, city, year founded, arena, capacity, owner, general
// manager, head coach, G League affiliate, then the five social links.
func teamArgs(teamID int, bg model.Fields, sites []model.Fields) []any {
	text := func(key string, maxLen int) any { return store.Deref(normalize.ToCleanString(bg[key], maxLen)) }
	num := func(key string) any { return store.Deref(normalize.ToInt(bg[key])) }

	links := socialLinks(sites)
	args := []any{
		teamID,
		text("ABBREVIATION", 10),
		text("NICKNAME", 100),
		text("CITY", 100),
		num("YEARFOUNDED"),
		text("ARENA", 200),
		num("ARENACAPACITY"),
		text("OWNER", 200),
		text("GENERALMANAGER", 200),
		text("HEADCOACH", 200),
		text("DLEAGUEAFFILIATION", 200),
	}
	for _, kind := range socialKinds {
		args = append(args, links[kind])
	}
	return args
}

var socialKinds = []string{"website", "twitter", "instagram", "facebook", "youtube"}

// socialLinks sorts TeamSocialSites rows by ACCOUNTTYPE. Missing kinds are
// nil.
func socialLinks(sites []model.Fields) map[string]any {
	out := make(map[string]any, len(socialKinds))
	for _, kind := range socialKinds {
		out[kind] = nil
	}
	for _, site := range sites {
		kindPtr := normalize.ToCleanString(site["ACCOUNTTYPE"], 0)
		link := normalize.ToCleanString(site["WEBSITE_LINK"], 500)
		if kindPtr == nil || link == nil {
			continue
		}
		kind := strings.ToLower(*kindPtr)
		switch {
		case strings.Contains(kind, "website"), strings.Contains(kind, "official"):
			out["website"] = *link
		default:
			for _, k := range socialKinds[1:] {
				if strings.Contains(kind, k) {
					out[k] = *link
					break
				}
			}
		}
	}
	return out
}
