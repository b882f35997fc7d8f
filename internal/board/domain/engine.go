package domain

import (
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

// MoveInput describes a drag-reorder. SourceIndex is a client hint only; the
// card is located in the source column by id.
type MoveInput struct {
	CardID              string
	SourceColumnID      carddomain.ColumnID
	DestinationColumnID carddomain.ColumnID
	SourceIndex         int
	DestinationIndex    int
}

// Insert appends cardID to the tail of column col. Any stale reference
// elsewhere on the board is dropped first so the id appears exactly once.
func (b *Board) Insert(cardID string, col carddomain.ColumnID) error {
	dest := b.Column(col)
	if dest == nil {
		return invalidColumn(col)
	}
	b.removeEverywhere(cardID)
	dest.CardOrder = append(dest.CardOrder, cardID)
	return nil
}

// Move removes in.CardID from the source column and inserts it into the
// destination column at the clamped destination index. It reports whether the
// card changed columns, in which case the caller must update the card record.
func (b *Board) Move(in MoveInput) (columnChanged bool, err error) {
	src := b.Column(in.SourceColumnID)
	if src == nil {
		return false, invalidColumn(in.SourceColumnID)
	}
	dest := b.Column(in.DestinationColumnID)
	if dest == nil {
		return false, invalidColumn(in.DestinationColumnID)
	}
	remaining, found := src.CardOrder.Without(in.CardID)
	if !found {
		return false, apperrors.New(apperrors.CodeCardNotInColumn, "Card not found in source column").
			WithMetadata("card_id", in.CardID).
			WithMetadata("column", string(in.SourceColumnID))
	}
	// src and dest may point at the same column.
	src.CardOrder = remaining
	dest.CardOrder = dest.CardOrder.InsertAt(in.DestinationIndex, in.CardID)
	return in.SourceColumnID != in.DestinationColumnID, nil
}

// Relocate is the edit-driven move: the card is removed from every column it
// appears in and appended to the tail of col.
func (b *Board) Relocate(cardID string, col carddomain.ColumnID) error {
	return b.Insert(cardID, col)
}

// Remove drops cardID from whichever columns hold it and reports whether it was present.
func (b *Board) Remove(cardID string) bool {
	return b.removeEverywhere(cardID) > 0
}

func (b *Board) removeEverywhere(cardID string) int {
	removed := 0
	for i := range b.Columns {
		var n int
		b.Columns[i].CardOrder, n = b.Columns[i].CardOrder.WithoutAll(cardID)
		removed += n
	}
	return removed
}

// ReconcileResult lists what a read repair changed.
type ReconcileResult struct {
	// CardsRealigned are cards whose column/status was rewritten to match the board.
	CardsRealigned []*carddomain.Card
	// OrphansPlaced are card ids that were on no column and got appended to their own column.
	OrphansPlaced []string
	// DanglingRemoved are ids in card order with no matching card record.
	DanglingRemoved []string
	// Deduplicated are ids that appeared more than once and were collapsed to the first position.
	Deduplicated []string
}

// BoardChanged reports whether the board itself needs saving.
func (r ReconcileResult) BoardChanged() bool {
	return len(r.OrphansPlaced) > 0 || len(r.DanglingRemoved) > 0 || len(r.Deduplicated) > 0
}

// Changed reports whether anything was repaired.
func (r ReconcileResult) Changed() bool {
	return r.BoardChanged() || len(r.CardsRealigned) > 0
}

// Reconcile restores the partition and column/status invariants between the
// board and its cards, treating the board's card order as authoritative. Cards
// in CardsRealigned are modified in place.
func (b *Board) Reconcile(cards []*carddomain.Card) ReconcileResult {
	var res ReconcileResult
	byID := make(map[string]*carddomain.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	seen := make(map[string]bool)
	for i := range b.Columns {
		col := &b.Columns[i]
		kept := make(CardOrder, 0, len(col.CardOrder))
		for _, id := range col.CardOrder {
			switch {
			case seen[id]:
				res.Deduplicated = append(res.Deduplicated, id)
				continue
			case byID[id] == nil:
				res.DanglingRemoved = append(res.DanglingRemoved, id)
				continue
			}
			seen[id] = true
			kept = append(kept, id)
			if c := byID[id]; c.ColumnID != col.ID || c.Status != col.ID {
				c.SetColumn(col.ID)
				res.CardsRealigned = append(res.CardsRealigned, c)
			}
		}
		col.CardOrder = kept
	}

	for _, c := range cards {
		if seen[c.ID] {
			continue
		}
		dest := b.Column(c.ColumnID)
		if dest == nil {
			dest = b.Column(carddomain.ColumnTodo)
			c.SetColumn(carddomain.ColumnTodo)
			res.CardsRealigned = append(res.CardsRealigned, c)
		}
		dest.CardOrder = append(dest.CardOrder, c.ID)
		seen[c.ID] = true
		res.OrphansPlaced = append(res.OrphansPlaced, c.ID)
	}
	return res
}
