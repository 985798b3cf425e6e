package nbastats

import "github.com/albapepper/hoopgeek-data/internal/model"

// Response is the stats.nba.com envelope. Most endpoints return a list of
// result sets; a few return a single "resultSet".
type Response struct {
	ResultSets []ResultSet `json:"resultSets"`
	ResultSet  *ResultSet  `json:"resultSet"`
}

// ResultSet is one named table.
type ResultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

// Set returns the result set called name.
func (r *Response) Set(name string) (ResultSet, bool) {
	for _, rs := range r.ResultSets {
		if rs.Name == name {
			return rs, true
		}
	}
	if r.ResultSet != nil && r.ResultSet.Name == name {
		return *r.ResultSet, true
	}
	return ResultSet{}, false
}

// Records zips each row with the headers. Short rows leave trailing
// headers unset.
func (rs ResultSet) Records() []model.Fields {
	out := make([]model.Fields, 0, len(rs.RowSet))
	for _, row := range rs.RowSet {
		f := make(model.Fields, len(rs.Headers))
		for i, h := range rs.Headers {
			if i >= len(row) {
				break
			}
			f[h] = row[i]
		}
		out = append(out, f)
	}
	return out
}
