// Package reconcile resolves free-text player names from external sources
// to registry players.
package reconcile

import (
	"strings"

	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/normalize"
)

// DefaultAliases maps abbreviated forms seen in scraped sources to the
// registry's canonical key. Keys and values are normalized names.
var DefaultAliases = map[string]string{
	"g antetokounmpo": "giannis antetokounmpo",
	"k towns":         "karl-anthony towns",
	"k caldwell-pope": "kentavious caldwell-pope",
	"dj murray":       "dejounte murray",
	"nic claxton":     "nicolas claxton",
	"herb jones":      "herbert jones",
}

// Index maps normalized names to registry players. It is immutable after
// BuildIndex returns and safe for concurrent lookups.
type Index struct {
	byKey   map[string]model.Player
	byToken map[string][]int64
	players map[int64]model.Player
	aliases map[string]string
}

// BuildIndex indexes every name variant of every player. When two players
// share a key the later one wins.
func BuildIndex(players []model.Player, aliases map[string]string) *Index {
	idx := &Index{
		byKey:   make(map[string]model.Player, len(players)*2),
		byToken: make(map[string][]int64),
		players: make(map[int64]model.Player, len(players)),
		aliases: make(map[string]string, len(aliases)),
	}
	for k, v := range aliases {
		idx.aliases[normalize.Name(k)] = normalize.Name(v)
	}

	for _, p := range players {
		keys := normalize.Variants(p.Name)
		if len(keys) == 0 {
			continue
		}
		for _, k := range keys {
			idx.byKey[k] = p
		}
		if _, seen := idx.players[p.ID]; !seen {
			for _, tok := range strings.Fields(normalize.Name(p.Name)) {
				idx.byToken[tok] = appendUnique(idx.byToken[tok], p.ID)
			}
		}
		idx.players[p.ID] = p
	}
	return idx
}

// Len returns the number of distinct keys.
func (idx *Index) Len() int { return len(idx.byKey) }

// Players returns the number of distinct players indexed.
func (idx *Index) Players() int { return len(idx.players) }

// Lookup finds a player by exact normalized name. The folded full name is
// tried before the suffix-stripped key so "Gary Trent Jr." prefers the
// registry entry that carries the suffix.
func (idx *Index) Lookup(name string) (model.Player, bool) {
	for _, key := range idx.keys(name) {
		if p, ok := idx.byKey[key]; ok {
			return p, true
		}
	}
	return model.Player{}, false
}

// LookupLastName returns the single player whose name contains the last-name
// token of name as a whole word. Ambiguous or empty results do not match.
func (idx *Index) LookupLastName(name string) (model.Player, bool) {
	key := normalize.Name(name)
	if alias, ok := idx.aliases[key]; ok {
		key = alias
	}
	toks := strings.Fields(key)
	if len(toks) == 0 {
		return model.Player{}, false
	}
	last := toks[len(toks)-1]
	if len([]rune(last)) < 2 {
		return model.Player{}, false
	}
	ids := idx.byToken[last]
	if len(ids) != 1 {
		return model.Player{}, false
	}
	return idx.players[ids[0]], true
}

func (idx *Index) keys(name string) []string {
	full := normalize.Fold(name)
	stripped := normalize.Name(name)
	if full == "" {
		return nil
	}
	out := make([]string, 0, 3)
	for _, k := range []string{full, stripped} {
		if alias, ok := idx.aliases[k]; ok {
			k = alias
		}
		if k != "" && (len(out) == 0 || out[len(out)-1] != k) {
			out = append(out, k)
		}
	}
	return out
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
