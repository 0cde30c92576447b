package catalog

import "github.com/dom/squad-roster/internal/domain"

// BurstGenScorer scores a squad as the sum of its members' burst gen numbers
// divided by ten. Ids missing from the index contribute nothing.
type BurstGenScorer struct {
	Index *Index
}

func NewBurstGenScorer(idx *Index) *BurstGenScorer {
	return &BurstGenScorer{Index: idx}
}

func (s *BurstGenScorer) ScoreSquad(squad *domain.Squad) float64 {
	if s == nil || s.Index == nil {
		return 0
	}
	total := 0
	for _, slot := range squad.Slots {
		if slot.IsEmpty() {
			continue
		}
		if rec, ok := s.Index.ByID(slot.CharacterID); ok {
			total += rec.Number
		}
	}
	return float64(total) / 10
}
