package quizrunner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestions() []Question {
	return []Question{
		{Prompt: "Q1", Options: []string{"a", "b", "c"}, Correct: 1, Hint: "first hint"},
		{Prompt: "Q2", Options: []string{"a", "b", "c"}, Correct: 0, Hint: "second hint"},
		{Prompt: "Q3", Options: []string{"a", "b", "c", "d"}, Correct: 2},
	}
}

func TestStartValidation(t *testing.T) {
	_, err := Start([]Question{{Prompt: "bad", Options: []string{"a"}, Correct: 3}})
	assert.ErrorIs(t, err, ErrBadQuestion)

	_, err = Start([]Question{{Prompt: "bad", Options: nil, Correct: 0}})
	assert.ErrorIs(t, err, ErrBadQuestion)
}

func TestStartEmptyListIsTerminal(t *testing.T) {
	s, err := Start(nil)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, s.State())

	rep, ok := s.Report()
	require.True(t, ok)
	assert.Equal(t, 0, rep.Score)
	assert.Equal(t, 0, rep.TotalQuestions)
	assert.Empty(t, rep.IncorrectPrompts)
}

func TestSelectCorrectIncrementsScoreOnce(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)

	require.NoError(t, s.SelectAnswer(1))
	assert.Equal(t, 1, s.Score())

	// wrong selection leaves the score unchanged on the next question
	s.Advance()
	require.NoError(t, s.SelectAnswer(2))
	assert.Equal(t, 1, s.Score())
}

func TestReselectionNeverDoubleCounts(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)

	require.NoError(t, s.SelectAnswer(1)) // correct
	require.NoError(t, s.SelectAnswer(1)) // correct again, still one point
	assert.Equal(t, 1, s.Score())

	require.NoError(t, s.SelectAnswer(0)) // change of mind, point revoked
	assert.Equal(t, 0, s.Score())

	require.NoError(t, s.SelectAnswer(1))
	assert.Equal(t, 1, s.Score())
}

func TestSelectOutOfRangeRejectedWithoutMutation(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)
	require.NoError(t, s.SelectAnswer(1))

	assert.ErrorIs(t, s.SelectAnswer(3), ErrInvalidOption)
	assert.ErrorIs(t, s.SelectAnswer(-1), ErrInvalidOption)
	assert.Equal(t, 1, s.Score())

	cur, _ := s.Progress()
	assert.Equal(t, 0, cur)
}

func TestHints(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)

	hint, err := s.RequestHint()
	require.NoError(t, err)
	assert.Equal(t, "first hint", hint)

	// repeat requests for the same question count once
	_, err = s.RequestHint()
	require.NoError(t, err)
	assert.Equal(t, 1, s.HintsUsed())

	s.Advance()
	s.Advance()
	hint, err = s.RequestHint() // Q3 has no hint text
	require.NoError(t, err)
	assert.Empty(t, hint)
	assert.Equal(t, 2, s.HintsUsed())

	assert.Equal(t, 0, s.Score(), "hints must not affect the score")
}

func TestAdvanceClampsAtEnd(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		s.Advance()
	}
	cur, total := s.Progress()
	assert.Equal(t, total, cur)

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestPrematureFinishRejected(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)
	require.NoError(t, s.SelectAnswer(1))
	s.Advance()

	_, err = s.Finish()
	assert.ErrorIs(t, err, ErrPrematureFinish)

	// nothing changed: still on question 2, score intact
	assert.Equal(t, StateInProgress, s.State())
	assert.Equal(t, 1, s.Score())
	cur, _ := s.Progress()
	assert.Equal(t, 1, cur)
}

// The scripted scenario from the quiz pages: three questions with correct
// answers [1,0,2], taker picks [1,1,2] and asks one hint on question 2.
func TestFullAttemptScenario(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)

	require.NoError(t, s.SelectAnswer(1))
	s.Advance()

	_, err = s.RequestHint()
	require.NoError(t, err)
	require.NoError(t, s.SelectAnswer(1))
	s.Advance()

	require.NoError(t, s.SelectAnswer(2))
	s.Advance()

	rep, err := s.Finish()
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Score)
	assert.Equal(t, 3, rep.TotalQuestions)
	assert.Equal(t, []string{"Q2"}, rep.IncorrectPrompts)
	assert.Equal(t, 1, rep.HintsUsed)
	assert.True(t, rep.Elapsed >= 0)
}

func TestUnansweredQuestionsCountAsIncorrect(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)

	s.Advance() // skip Q1
	require.NoError(t, s.SelectAnswer(0))
	s.Advance()
	s.Advance() // skip Q3

	rep, err := s.Finish()
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Score)
	assert.Equal(t, []string{"Q1", "Q3"}, rep.IncorrectPrompts)
}

func TestCompletedSessionIsFrozen(t *testing.T) {
	s, err := Start(threeQuestions())
	require.NoError(t, err)
	for range threeQuestions() {
		s.Advance()
	}
	first, err := s.Finish()
	require.NoError(t, err)

	assert.ErrorIs(t, s.SelectAnswer(0), ErrCompleted)
	_, err = s.RequestHint()
	assert.ErrorIs(t, err, ErrCompleted)
	s.Advance() // no-op

	// re-reading the report stays valid and stable
	again, err := s.Finish()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestZeroSessionRejectsEverything(t *testing.T) {
	var s Session
	assert.Equal(t, StateNotStarted, s.State())
	assert.ErrorIs(t, s.SelectAnswer(0), ErrNotStarted)
	_, err := s.Finish()
	assert.ErrorIs(t, err, ErrNotStarted)
}
