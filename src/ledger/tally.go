package ledger

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postScopes lists every counter set a post at (domain, section, depth) feeds:
// protocol, domain, section for its domain, and section across all domains.
func postScopes(domain Domain, key SectionKey) []TallyRef {
	return []TallyRef{
		{Scope: ScopeProtocol},
		{Scope: ScopeDomain, Domain: domain},
		{Scope: ScopeSection, Key: key.String(), Domain: domain},
		{Scope: ScopeSection, Key: key.String()},
	}
}

func (t Tally) columns() map[string]any {
	cols := map[string]any{}
	add := func(name string, n int64) {
		if n != 0 {
			cols[name] = gorm.Expr(name+" + ?", n)
		}
	}
	add("posts", t.Posts)
	add("edits", t.Edits)
	add("deletes", t.Deletes)
	add("stars", t.Stars)
	add("flags", t.Flags)
	add("up_vote_count", t.UpVoteCount)
	add("up_vote_score", t.UpVoteScore)
	add("down_vote_count", t.DownVoteCount)
	add("down_vote_score", t.DownVoteScore)
	return cols
}

const tallyWhere = "scope = ? AND scope_key = ? AND domain = ? AND depth = ?"

// addChecked sums two tallies, failing if any counter would wrap.
func (t Tally) addChecked(o Tally) (Tally, error) {
	pairs := []struct {
		dst   *int64
		delta int64
	}{
		{&t.Posts, o.Posts}, {&t.Edits, o.Edits}, {&t.Deletes, o.Deletes},
		{&t.Stars, o.Stars}, {&t.Flags, o.Flags},
		{&t.UpVoteCount, o.UpVoteCount}, {&t.UpVoteScore, o.UpVoteScore},
		{&t.DownVoteCount, o.DownVoteCount}, {&t.DownVoteScore, o.DownVoteScore},
	}
	for _, p := range pairs {
		if err := addScore(p.dst, p.delta); err != nil {
			return Tally{}, err
		}
	}
	return t, nil
}

// bump adds delta to the depth row and the depth-0 total row of every scope,
// so each total stays the sum of its levels.
func (tx *Tx) bump(scopes []TallyRef, depth Depth, delta Tally) error {
	cols := delta.columns()
	if len(cols) == 0 {
		return nil
	}
	for _, ref := range scopes {
		for _, d := range []Depth{depth, 0} {
			row := tallyRow{Scope: ref.Scope, ScopeKey: ref.Key, Domain: ref.Domain, Depth: d}
			if err := tx.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
			args := []any{ref.Scope, ref.Key, ref.Domain, d}
			var cur tallyRow
			if err := tx.locked().Where(tallyWhere, args...).First(&cur).Error; err != nil {
				return err
			}
			if _, err := cur.Tally.addChecked(delta); err != nil {
				return err
			}
			if err := tx.db.Model(&tallyRow{}).Where(tallyWhere, args...).Updates(cols).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func readTally(db *gorm.DB, ref TallyRef) (Tally, error) {
	var rows []tallyRow
	err := db.Where(tallyWhere, ref.Scope, ref.Key, ref.Domain, ref.Depth).
		Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return Tally{}, err
	}
	return rows[0].Tally, nil
}

func sumLevels(db *gorm.DB, ref TallyRef) (Tally, error) {
	var rows []tallyRow
	err := db.Where("scope = ? AND scope_key = ? AND domain = ? AND depth > 0", ref.Scope, ref.Key, ref.Domain).
		Find(&rows).Error
	var sum Tally
	for _, r := range rows {
		sum = sum.Add(r.Tally)
	}
	return sum, err
}
