package mutate

import (
	"strings"

	"github.com/boardmd/boardmd/internal/board"
	"github.com/boardmd/boardmd/internal/domain"
	"github.com/boardmd/boardmd/internal/settings"
)

// MoveToLane moves the card to the end of the destination lane, which is
// named by lane id or title. Structural moves go through the full
// parse, splice, and serialize path, so the document is normalized as a
// side effect. Cards in the archive can be moved back out this way.
func MoveToLane(p *board.Parser, text string, ref CardRef, laneKey string) (string, error) {
	b, eff := p.Parse(text)

	dest := findLane(b, laneKey)
	if dest == nil {
		return text, NotFoundError{Kind: "lane", Key: laneKey}
	}
	card, err := takeCard(b, ref, eff)
	if err != nil {
		return text, err
	}

	if dest.ShouldMarkItemsComplete && card.CheckChar != "" {
		card.Checked = true
		card.CheckChar = "x"
	}
	anchorCard(card, p.IDs)
	dest.Cards = append(dest.Cards, card)
	return board.Serialize(b, eff), nil
}

// ArchiveCard moves the card into the archive section, creating the
// section if the document has none. Archiving an already archived card
// is a no-op.
func ArchiveCard(p *board.Parser, text string, ref CardRef) (string, error) {
	b, eff := p.Parse(text)

	for _, c := range b.Archive {
		if refMatches(c, ref, eff) {
			return text, nil
		}
	}
	card, err := takeCard(b, ref, eff)
	if err != nil {
		return text, err
	}
	anchorCard(card, p.IDs)
	b.Archive = append(b.Archive, card)
	return board.Serialize(b, eff), nil
}

// anchorCard gives a structurally moved card a block id if it has none,
// so the card stays addressable after it leaves its original line.
func anchorCard(card *domain.Card, ids board.IDGenerator) {
	if card.BlockID == "" {
		card.BlockID = ids.BlockID()
	}
}

func findLane(b *domain.Board, key string) *domain.Lane {
	if l := b.FindLane(key); l != nil {
		return l
	}
	for _, l := range b.Lanes {
		if l.Title == key {
			return l
		}
	}
	return nil
}

// refMatches mirrors locateLine's identity rules on parsed cards: block
// id when the ref carries one, otherwise containment of the stripped
// title in the card's stripped title.
func refMatches(c *domain.Card, ref CardRef, cfg settings.Settings) bool {
	if ref.BlockID != "" {
		return c.BlockID == ref.BlockID
	}
	base := strippedBase(ref.Title, cfg)
	if base == "" {
		return false
	}
	return strings.Contains(strippedBase(c.Title, cfg), base)
}

// takeCard removes the referenced card from its lane or the archive and
// returns it. Fallback matching requires a single candidate; several
// candidates are an error, never a guess.
func takeCard(b *domain.Board, ref CardRef, cfg settings.Settings) (*domain.Card, error) {
	type slot struct {
		cards *[]*domain.Card
		idx   int
	}
	var found []slot

	scan := func(cards *[]*domain.Card) {
		for i, c := range *cards {
			if refMatches(c, ref, cfg) {
				found = append(found, slot{cards, i})
			}
		}
	}
	for _, l := range b.Lanes {
		scan(&l.Cards)
	}
	scan(&b.Archive)

	switch len(found) {
	case 0:
		return nil, NotFoundError{Kind: "card", Key: ref.key()}
	case 1:
		s := found[0]
		card := (*s.cards)[s.idx]
		*s.cards = append((*s.cards)[:s.idx], (*s.cards)[s.idx+1:]...)
		return card, nil
	default:
		var lines []int
		for _, s := range found {
			lines = append(lines, (*s.cards)[s.idx].Position.StartLine)
		}
		return nil, AmbiguousMatchError{Title: ref.Title, Lines: lines}
	}
}
