package server

import (
	"sort"

	"github.com/tomz197/clicktest/internal/store"
)

// TopScoreEntry represents a single entry on the leaderboard.
type TopScoreEntry struct {
	FirstName  string  `json:"first_name"`
	Score      int     `json:"score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	seq        int     // Arrival order, earlier wins ties
}

// Stats accumulates finished sessions. Owned by the Server under its lock.
type Stats struct {
	Finished  int
	Passed    int
	TopScores []TopScoreEntry
	nextSeq   int
}

// Add records a finished session and keeps the best limit entries.
func (st *Stats) Add(rec store.Record, limit int) {
	st.Finished++
	if rec.Passed {
		st.Passed++
	}
	st.nextSeq++
	st.TopScores = append(st.TopScores, TopScoreEntry{
		FirstName:  rec.FirstName,
		Score:      rec.TotalScore,
		Percentage: rec.Percentage,
		Passed:     rec.Passed,
		seq:        st.nextSeq,
	})
	sort.SliceStable(st.TopScores, func(i, j int) bool {
		a, b := st.TopScores[i], st.TopScores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.seq < b.seq
	})
	if len(st.TopScores) > limit {
		st.TopScores = st.TopScores[:limit]
	}
}

// Snapshot is an immutable view of the server for rendering.
type Snapshot struct {
	Players   int
	Finished  int
	Passed    int
	TopScores []TopScoreEntry // Best results since start, highest first
}
