package exchange

import (
	"sort"

	"github.com/KirkDiggler/giftswap/internal/models"
)

// IsActive reports whether a participant currently holds an actionable slot.
//
// Done participants are never active. Victims always are, and each active victim
// takes one of the ActivePlayerCount slots away from the waiting queue.
func IsActive(game *models.Game, participantID string) bool {
	p := game.FindParticipant(participantID)
	if p == nil || p.IsDone() {
		return false
	}
	if p.IsVictim {
		return true
	}

	for _, q := range activeQueue(game) {
		if q.ID == participantID {
			return true
		}
	}
	return false
}

// ActiveParticipants returns everyone who may act right now: victims first,
// then the selected queue slice, each ordered by sequence number.
func ActiveParticipants(game *models.Game) []*models.Participant {
	victims := ActiveVictims(game)
	active := make([]*models.Participant, 0, len(victims)+game.Settings.ActivePlayerCount)
	active = append(active, victims...)
	active = append(active, activeQueue(game)...)
	return active
}

// ActiveVictims returns victims that are not done, ordered by sequence number
func ActiveVictims(game *models.Game) []*models.Participant {
	var victims []*models.Participant
	for _, p := range game.Participants {
		if p.IsVictim && !p.IsDone() {
			victims = append(victims, p)
		}
	}
	sortBySequence(victims)
	return victims
}

// WaitingQueue returns the non-victim waiting participants at or after the
// current turn, in turn order
func WaitingQueue(game *models.Game) []*models.Participant {
	var queue []*models.Participant
	for _, p := range game.Participants {
		if p.Status == models.ParticipantStatusWaiting && !p.IsVictim && p.Sequence >= game.CurrentTurn {
			queue = append(queue, p)
		}
	}
	sortBySequence(queue)
	return queue
}

func activeQueue(game *models.Game) []*models.Participant {
	slots := game.Settings.ActivePlayerCount - len(ActiveVictims(game))
	if slots <= 0 {
		return nil
	}

	queue := WaitingQueue(game)
	if len(queue) > slots {
		queue = queue[:slots]
	}
	return queue
}

func sortBySequence(participants []*models.Participant) {
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Sequence < participants[j].Sequence
	})
}
