package scrape

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/albapepper/hoopgeek-data/internal/model"
)

// Source labels carried on ExternalRecord.Source.
const (
	SourceESPN      = "espn"
	SourceHoopsHype = "hoopshype"
)

// LoadProjections reads the ESPN projections export: a JSON array of
// objects with Name, Team, Position and per-season stat sections.
func LoadProjections(r io.Reader) ([]model.ExternalRecord, error) {
	objs, err := decodeArray(r)
	if err != nil {
		return nil, fmt.Errorf("load projections: %w", err)
	}
	out := make([]model.ExternalRecord, 0, len(objs))
	for _, obj := range objs {
		out = append(out, model.ExternalRecord{
			Source:   SourceESPN,
			Name:     text(obj["Name"]),
			Team:     text(obj["Team"]),
			Position: text(obj["Position"]),
			Fields:   model.Fields(obj),
		})
	}
	return out, nil
}

func decodeArray(r io.Reader) ([]map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var objs []map[string]any
	if err := sonic.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return objs, nil
}

func text(v any) string {
	s, _ := v.(string)
	return s
}
