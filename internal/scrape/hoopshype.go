package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/albapepper/hoopgeek-data/internal/model"
)

// LoadSalaries reads the HoopsHype salary export: a JSON array of
// {Name, Team, "2025-26": "$1,234", ...}. Season keys are canonicalized and
// team labels normalized.
func LoadSalaries(r io.Reader) ([]model.ExternalRecord, error) {
	objs, err := decodeArray(r)
	if err != nil {
		return nil, fmt.Errorf("load salaries: %w", err)
	}
	out := make([]model.ExternalRecord, 0, len(objs))
	for _, obj := range objs {
		fields := model.Fields{}
		for k, v := range obj {
			if season, ok := SeasonKey(k); ok {
				fields[season] = v
			}
		}
		out = append(out, model.ExternalRecord{
			Source: SourceHoopsHype,
			Name:   text(obj["Name"]),
			Team:   NormalizeTeam(text(obj["Team"])),
			Fields: fields,
		})
	}
	return out, nil
}

// ParseSalaryHTML extracts salary rows from a saved HoopsHype salaries page.
// The first table is used; its header row names the season columns and each
// body row holds rank, player and one cell per season.
func ParseSalaryHTML(r io.Reader) ([]model.ExternalRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse salary html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("parse salary html: no table found")
	}

	seasons := map[int]string{}
	table.Find("thead tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		if key, ok := SeasonKey(th.Text()); ok {
			seasons[i] = key
		}
	})
	if len(seasons) == 0 {
		return nil, fmt.Errorf("parse salary html: no season columns in header")
	}

	var out []model.ExternalRecord
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return
		}
		playerCell := cells.Eq(1)
		name := strings.TrimSpace(playerCell.Find("a").First().Text())
		if name == "" {
			name = strings.TrimSpace(playerCell.Text())
		}
		if name == "" {
			return
		}

		team := ""
		if src, ok := playerCell.Find("img").First().Attr("src"); ok {
			team = teamFromLogo(src)
		}

		fields := model.Fields{}
		for i, season := range seasons {
			if i >= cells.Length() {
				continue
			}
			fields[season] = salaryCell(cells.Eq(i))
		}
		out = append(out, model.ExternalRecord{
			Source: SourceHoopsHype,
			Name:   name,
			Team:   NormalizeTeam(team),
			Fields: fields,
		})
	})
	return out, nil
}

// salaryCell returns the dollar amount of a cell, skipping option markers
// (spans containing <sup>). A "-" cell has no salary.
func salaryCell(td *goquery.Selection) any {
	var amount any
	td.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if span.Find("sup").Length() > 0 {
			return true
		}
		if s := strings.TrimSpace(span.Text()); strings.HasPrefix(s, "$") {
			amount = s
			return false
		}
		return true
	})
	if amount != nil {
		return amount
	}
	if s := strings.TrimSpace(td.Text()); strings.HasPrefix(s, "$") {
		return s
	}
	return nil
}
