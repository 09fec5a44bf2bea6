package deck

import rand "math/rand/v2"

// Deck holds the undealt portion of a 52-card deck.
type Deck struct {
	cards []Card
}

// NewShuffled builds a full 52-card deck shuffled with the provided RNG.
func NewShuffled(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 52)}
	for i := range d.cards {
		d.cards[i] = Card(i)
	}
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// Deal removes and returns the top card. The second return is false when
// the deck is exhausted.
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return 0, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Clone returns an independent copy of the deck in the same order.
func (d *Deck) Clone() *Deck {
	return &Deck{cards: append([]Card(nil), d.cards...)}
}
