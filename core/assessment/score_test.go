package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		name     string
		selected []int
		correct  []int
		want     Score
	}{
		{name: "all correct", selected: []int{1, 0, 2}, correct: []int{1, 0, 2}, want: Score{Correct: 3, Total: 3, Percentage: 100}},
		{name: "none correct", selected: []int{0, 1, 0}, correct: []int{1, 0, 2}, want: Score{Correct: 0, Total: 3, Percentage: 0}},
		{name: "rounds down", selected: []int{1, 9, 9}, correct: []int{1, 0, 2}, want: Score{Correct: 1, Total: 3, Percentage: 33}},
		{name: "rounds up", selected: []int{1, 0, 9}, correct: []int{1, 0, 2}, want: Score{Correct: 2, Total: 3, Percentage: 67}},
		{name: "half", selected: []int{1, 1}, correct: []int{1, 0}, want: Score{Correct: 1, Total: 2, Percentage: 50}},
		{name: "missing selections are wrong", selected: []int{1}, correct: []int{1, 0, 2, 3}, want: Score{Correct: 1, Total: 4, Percentage: 25}},
		{name: "unanswered is wrong", selected: []int{Unanswered, 0}, correct: []int{1, 0}, want: Score{Correct: 1, Total: 2, Percentage: 50}},
		{name: "out of range is wrong", selected: []int{-7, 42}, correct: []int{1, 0}, want: Score{Correct: 0, Total: 2, Percentage: 0}},
		{name: "extra selections are ignored", selected: []int{1, 0, 2, 2, 2}, correct: []int{1, 0}, want: Score{Correct: 2, Total: 2, Percentage: 100}},
		{name: "no questions", selected: []int{1}, correct: nil, want: Score{}},
		{name: "nothing", want: Score{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.selected, tt.correct))
		})
	}
}

func TestAssessment_Public(t *testing.T) {
	a := Assessment{
		ID:           "a1",
		ModuleID:     "m1",
		Title:        "Check",
		PassingScore: 70,
		Questions: []Question{
			{ID: "q1", Prompt: "?", Options: []string{"a", "b"}, CorrectOption: 1, Explanation: "because", Position: 1},
		},
	}
	assert.Equal(t, PublicAssessment{
		ID:           "a1",
		ModuleID:     "m1",
		Title:        "Check",
		PassingScore: 70,
		Questions:    []PublicQuestion{{ID: "q1", Prompt: "?", Options: []string{"a", "b"}, Position: 1}},
	}, a.Public())
}

func TestAssessment_Feedback(t *testing.T) {
	a := Assessment{Questions: []Question{
		{ID: "q1", Prompt: "one", CorrectOption: 0},
		{ID: "q2", Prompt: "two", CorrectOption: 1, Explanation: "why"},
	}}
	assert.Equal(t, []Feedback{
		{QuestionID: "q1", Prompt: "one", Selected: 0, CorrectOption: 0, Correct: true},
		{QuestionID: "q2", Prompt: "two", Selected: Unanswered, CorrectOption: 1, Correct: false, Explanation: "why"},
	}, a.Feedback([]int{0}))
}
