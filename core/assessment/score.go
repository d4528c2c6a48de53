package assessment

import "math"

// Unanswered is the selection sent for a question the learner skipped.
const Unanswered = -1

type Score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Grade compares selected option indices with the correct ones, position by position.
// Missing or out of range selections are wrong; selections past the last question are ignored.
func Grade(selected, correct []int) Score {
	s := Score{Total: len(correct)}
	for i, want := range correct {
		if i < len(selected) && selected[i] == want {
			s.Correct++
		}
	}
	s.Percentage = percentage(s.Correct, s.Total)
	return s
}

func percentage(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}
