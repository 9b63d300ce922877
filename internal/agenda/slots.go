package agenda

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSlot é derivado sob demanda e nunca persistido.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// GenerateSlots produz os horários de meia em meia hora entre a abertura e
// o fechamento (exclusivo), em ordem cronológica, marcando como indisponível
// todo rótulo presente em booked.
//
// Apenas a hora cheia da abertura é considerada (07:30 gera a partir de
// 07:00) e a última hora de expediente não recebe o horário de meia hora.
// Abertura igual ou posterior ao fechamento produz lista vazia.
func GenerateSlots(opensAt, closesAt string, booked []string) []TimeSlot {
	startHour, ok := hourOf(opensAt)
	if !ok {
		return nil
	}
	endHour, ok := hourOf(closesAt)
	if !ok {
		return nil
	}
	if endHour <= startHour {
		return nil
	}

	taken := make(map[string]struct{}, len(booked))
	for _, label := range booked {
		taken[label] = struct{}{}
	}

	slots := make([]TimeSlot, 0, (endHour-startHour)*2)
	for hour := startHour; hour < endHour; hour++ {
		label := fmt.Sprintf("%02d:00", hour)
		slots = append(slots, TimeSlot{Time: label, Available: !contains(taken, label)})

		if hour < endHour-1 {
			half := fmt.Sprintf("%02d:30", hour)
			slots = append(slots, TimeSlot{Time: half, Available: !contains(taken, half)})
		}
	}

	return slots
}

func contains(set map[string]struct{}, label string) bool {
	_, ok := set[label]
	return ok
}

func hourOf(clock string) (int, bool) {
	head, _, found := strings.Cut(clock, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
