package infrastructure

import (
	"fmt"

	"stakehouse/domain/events"
)

// EventSubjectMapper maps domain event types to NATS subjects and back.
type EventSubjectMapper struct{}

func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// GetSubject returns the NATS subject for a given event type
func (m *EventSubjectMapper) GetSubject(eventType events.EventType) (string, error) {
	switch eventType {
	case events.EventTypeBalanceChange:
		return "stakehouse.balance.changed", nil
	case events.EventTypeRoundResolved:
		return "stakehouse.round.resolved", nil
	case events.EventTypeTableFinished:
		return "stakehouse.table.finished", nil
	case events.EventTypeTournamentDisbursed:
		return "stakehouse.tournament.disbursed", nil
	case events.EventTypeRewardClaimState:
		return "stakehouse.reward.claimstate", nil
	default:
		return "", fmt.Errorf("unknown event type: %s", eventType)
	}
}

// MapSubjectToEventType returns the event type carried on a subject
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) (events.EventType, error) {
	switch subject {
	case "stakehouse.balance.changed":
		return events.EventTypeBalanceChange, nil
	case "stakehouse.round.resolved":
		return events.EventTypeRoundResolved, nil
	case "stakehouse.table.finished":
		return events.EventTypeTableFinished, nil
	case "stakehouse.tournament.disbursed":
		return events.EventTypeTournamentDisbursed, nil
	case "stakehouse.reward.claimstate":
		return events.EventTypeRewardClaimState, nil
	default:
		return "", fmt.Errorf("unknown subject: %s", subject)
	}
}

// GetAllSubjects returns every subject the mapper knows about
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"stakehouse.balance.changed",
		"stakehouse.round.resolved",
		"stakehouse.table.finished",
		"stakehouse.tournament.disbursed",
		"stakehouse.reward.claimstate",
	}
}
