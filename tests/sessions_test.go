package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"quizhub/backend/models"
	"quizhub/backend/quizrunner"
	"quizhub/backend/sessionstore"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func startSession(t *testing.T, quizID uint) string {
	t.Helper()
	resp := doJSON(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/sessions", quizID), nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return data(resp)["session"].(string)
}

func TestStartSessionReturnsFirstQuestion(t *testing.T) {
	quizID := createPublicQuiz(t, "Session Quiz", threeQuestionInputs())

	resp := doJSON(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/sessions", quizID), nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	d := data(resp)
	assert.NotEmpty(t, d["session"])

	question := d["question"].(map[string]interface{})
	assert.Equal(t, "Q1", question["prompt"])
	assert.Equal(t, float64(0), question["position"])
	assert.Equal(t, float64(3), question["total"])
	assert.NotContains(t, question, "correct")
	assert.NotContains(t, question, "hint")
}

func TestStartSessionRejectsPrivateQuiz(t *testing.T) {
	resp := doJSON(http.MethodPost, "/api/admin/quizzes", map[string]string{
		"title": "Members Only",
	}, adminToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	quiz := decode(resp)["quiz"].(map[string]interface{})
	quizID := uint(quiz["ID"].(float64))

	resp = doJSON(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/sessions", quizID), nil, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestStartSessionRejectsEmptyQuiz(t *testing.T) {
	quizID := createPublicQuiz(t, "Empty Quiz", nil)

	resp := doJSON(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/sessions", quizID), nil, userToken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAnswerOutOfRangeRejected(t *testing.T) {
	quizID := createPublicQuiz(t, "Range Quiz", threeQuestionInputs())
	token := startSession(t, quizID)

	resp := doJSON(http.MethodPost, "/api/sessions/"+token+"/answer", map[string]int{"option": 7}, userToken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// session still usable afterwards
	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/answer", map[string]int{"option": 1}, userToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPrematureFinishRejectedOverHTTP(t *testing.T) {
	quizID := createPublicQuiz(t, "Early Finish Quiz", threeQuestionInputs())
	token := startSession(t, quizID)

	resp := doJSON(http.MethodPost, "/api/sessions/"+token+"/answer", map[string]int{"option": 1}, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/finish", nil, userToken)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// still alive and on the same question
	resp = doJSON(http.MethodGet, "/api/sessions/"+token, nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	question := data(resp)["question"].(map[string]interface{})
	assert.Equal(t, float64(0), question["position"])
}

func TestSessionBelongsToItsUser(t *testing.T) {
	quizID := createPublicQuiz(t, "Ownership Quiz", threeQuestionInputs())
	token := startSession(t, quizID)

	resp := doJSON(http.MethodGet, "/api/sessions/"+token, nil, adminToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

// Full pass: correct answers [1,0,2], taker picks [1,1,2] with a hint on Q2.
func TestFullAttemptFlow(t *testing.T) {
	quizID := createPublicQuiz(t, "Flow Quiz", threeQuestionInputs())
	token := startSession(t, quizID)

	resp := doJSON(http.MethodPost, "/api/sessions/"+token+"/answer", map[string]int{"option": 1}, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/advance", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/hint", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	hint := data(resp)
	assert.Equal(t, "second hint", hint["hint"])
	assert.Equal(t, float64(1), hint["hints_used"])

	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/answer", map[string]int{"option": 1}, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/advance", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/answer", map[string]int{"option": 2}, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/advance", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, data(resp)["finishable"])

	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/finish", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	report := data(resp)
	assert.Equal(t, float64(2), report["score"])
	assert.Equal(t, float64(3), report["total_questions"])
	assert.Equal(t, float64(1), report["hints_used"])
	incorrect := report["incorrect_prompts"].([]interface{})
	require.Len(t, incorrect, 1)
	assert.Equal(t, "Q2", incorrect[0])
	assert.GreaterOrEqual(t, report["elapsed_seconds"].(float64), float64(0))

	// the live session is gone once finished
	resp = doJSON(http.MethodGet, "/api/sessions/"+token, nil, userToken)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// the attempt was persisted
	var attempt models.QuizAttempt
	require.NoError(t, db.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&attempt).Error)
	assert.Equal(t, 2, attempt.Score)
	assert.Equal(t, 3, attempt.TotalQuestions)
	assert.Equal(t, 1, attempt.HintsUsed)
	assert.False(t, attempt.Relayed)

	// and the result view is now open
	resp = doJSON(http.MethodGet, fmt.Sprintf("/api/quizzes/%d/result", quizID), nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decode(resp)["result"].(map[string]interface{})
	assert.Equal(t, float64(2), result["best_score"])
	assert.Equal(t, float64(1), result["attempts_used"])
}

func TestReselectionDoesNotDoubleCountOverHTTP(t *testing.T) {
	quizID := createPublicQuiz(t, "Reselect Quiz", []questionInput{
		{Prompt: "only", Options: []string{"a", "b"}, CorrectAnswer: 0},
	})
	token := startSession(t, quizID)

	for _, option := range []int{0, 0, 1, 0} {
		resp := doJSON(http.MethodPost, "/api/sessions/"+token+"/answer", map[string]int{"option": option}, userToken)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp := doJSON(http.MethodPost, "/api/sessions/"+token+"/advance", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/finish", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), data(resp)["score"])
}

// A finish that resolves an already-completed session (the losing side of two
// racing finish requests) must only re-read the report, never persist or
// count another attempt.
func TestFinishOnCompletedSessionPersistsNothing(t *testing.T) {
	quizID := createPublicQuiz(t, "Replayed Finish Quiz", []questionInput{
		{Prompt: "only", Options: []string{"a", "b"}, CorrectAnswer: 0},
	})

	runner, err := quizrunner.Start([]quizrunner.Question{
		{Prompt: "only", Options: []string{"a", "b"}, Correct: 0},
	})
	require.NoError(t, err)
	require.NoError(t, runner.SelectAnswer(0))
	runner.Advance()
	_, err = runner.Finish()
	require.NoError(t, err)

	token := store.Put(&sessionstore.Attempt{
		UserID:    userID,
		QuizID:    quizID,
		QuizTitle: "Replayed Finish Quiz",
		Runner:    runner,
	})

	resp := doJSON(http.MethodPost, "/api/sessions/"+token+"/finish", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), data(resp)["score"])

	var count int64
	db.Model(&models.QuizAttempt{}).Where("user_id = ? AND quiz_id = ?", userID, quizID).Count(&count)
	assert.Equal(t, int64(0), count)

	var progress models.UserQuizProgress
	err = db.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&progress).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	resp = doJSON(http.MethodGet, "/api/sessions/"+token, nil, userToken)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStartSessionPlayerNameFallback(t *testing.T) {
	quizID := createPublicQuiz(t, "Nameless Quiz", threeQuestionInputs())

	ghost := models.User{Username: "ghost", Email: "ghost@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&ghost).Error)
	token, err := utils.GenerateJWTToken(ghost.ID, cfg)
	require.NoError(t, err)

	resp := doJSON(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/sessions", quizID), nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	attempt, ok := store.Get(data(resp)["session"].(string))
	require.True(t, ok)
	assert.Equal(t, "Quiz taker", attempt.PlayerName)
}

func TestStartSessionHonorsDateWindow(t *testing.T) {
	quizID := createPublicQuiz(t, "Windowed Quiz", threeQuestionInputs())
	settingsPath := fmt.Sprintf("/api/admin/quizzes/%d/settings", quizID)
	sessionsPath := fmt.Sprintf("/api/quizzes/%d/sessions", quizID)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	nextMonth := time.Now().AddDate(0, 1, 0).Format("2006-01-02")

	// already closed
	resp := doJSON(http.MethodPut, settingsPath, map[string]interface{}{
		"end_date": yesterday,
	}, adminToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(http.MethodPost, sessionsPath, nil, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// not open yet
	resp = doJSON(http.MethodPut, settingsPath, map[string]interface{}{
		"start_date": tomorrow,
		"end_date":   nextMonth,
	}, adminToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(http.MethodPost, sessionsPath, nil, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// inside the window
	resp = doJSON(http.MethodPut, settingsPath, map[string]interface{}{
		"start_date": yesterday,
	}, adminToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(http.MethodPost, sessionsPath, nil, userToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAttemptLimitEnforced(t *testing.T) {
	quizID := createPublicQuiz(t, "Limited Quiz", []questionInput{
		{Prompt: "only", Options: []string{"a", "b"}, CorrectAnswer: 0},
	})
	resp := doJSON(http.MethodPut, fmt.Sprintf("/api/admin/quizzes/%d/settings", quizID), map[string]interface{}{
		"attempts_allowed": 1,
	}, adminToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	token := startSession(t, quizID)
	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/advance", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = doJSON(http.MethodPost, "/api/sessions/"+token+"/finish", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(http.MethodPost, fmt.Sprintf("/api/quizzes/%d/sessions", quizID), nil, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
