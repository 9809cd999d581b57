package states

import (
	"fmt"

	"github.com/pkg/errors"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
)

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrUnknownStatus = errors.New("unknown status")

var transitionTable = map[entities.DraftQuoteStatus][]entities.DraftQuoteStatus{
	entities.DraftStatus:      {entities.InProgressStatus, entities.CancelledStatus},
	entities.InProgressStatus: {entities.FinalizedStatus, entities.CancelledStatus},
	entities.FinalizedStatus:  {},
	entities.CancelledStatus:  {},
}

// Next returns the statuses reachable in one step from the given status.
func Next(from entities.DraftQuoteStatus) []entities.DraftQuoteStatus {
	targets := transitionTable[from]
	result := make([]entities.DraftQuoteStatus, len(targets))
	copy(result, targets)
	return result
}

func CanTransition(from, to entities.DraftQuoteStatus) bool {
	for _, target := range transitionTable[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Transition checks the from -> to edge and returns the new status when it is allowed.
func Transition(from, to entities.DraftQuoteStatus) (entities.DraftQuoteStatus, error) {
	if !from.IsValid() {
		return from, errors.Wrap(ErrUnknownStatus, string(from))
	}
	if !to.IsValid() {
		return from, errors.Wrap(ErrUnknownStatus, string(to))
	}
	if !CanTransition(from, to) {
		return from, errors.Wrap(ErrInvalidTransition, fmt.Sprintf("%s -> %s", from, to))
	}
	return to, nil
}
