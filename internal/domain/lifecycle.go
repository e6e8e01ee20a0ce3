package domain

import (
	"math"
	"time"
)

// allowedTransitions є графом статусів місії. Термінальні статуси не мають
// вихідних ребер.
var allowedTransitions = map[MissionStatus][]MissionStatus{
	MissionStatusPending:   {MissionStatusActive, MissionStatusCancelled},
	MissionStatusActive:    {MissionStatusCompleted, MissionStatusFailed, MissionStatusCancelled},
	MissionStatusCompleted: {},
	MissionStatusFailed:    {},
	MissionStatusCancelled: {},
}

// CanTransition перевіряє, чи має граф ребро from -> to
func CanTransition(from, to MissionStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal перевіряє, чи неможливі подальші переходи
func (s MissionStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Transition переводить копію місії у запитаний статус та проставляє
// часові мітки життєвого циклу:
//   - active встановлює StartedAt, якщо його ще немає;
//   - completed або failed встановлює CompletedAt і, якщо відомий StartedAt,
//     Duration у хвилинах з округленням половини вгору;
//   - cancelled змінює лише статус.
//
// Вхідна місія не змінюється.
func Transition(m Mission, requested string, now time.Time) (Mission, error) {
	to, err := ParseMissionStatus(requested)
	if err != nil {
		return m, err
	}

	if !CanTransition(m.Status, to) {
		return m, &TransitionError{MissionID: m.ID, From: m.Status, To: to}
	}

	m.Status = to

	switch to {
	case MissionStatusActive:
		if m.StartedAt == nil {
			startedAt := now
			m.StartedAt = &startedAt
		}
	case MissionStatusCompleted, MissionStatusFailed:
		completedAt := now
		m.CompletedAt = &completedAt
		if m.StartedAt != nil {
			duration := DurationMinutes(*m.StartedAt, completedAt)
			m.Duration = &duration
		}
	}

	return m, nil
}

// DurationMinutes повертає end - start у цілих хвилинах з округленням половини вгору
func DurationMinutes(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Minutes() + 0.5))
}
