package relay

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizhub/backend/config"
	"quizhub/backend/quizrunner"
)

func testClient(endpoint string) *Client {
	return New(&config.Config{
		RelayURL:   endpoint,
		RelayEmail: "results@example.com",
	}, log.New(os.Stderr, "", 0))
}

func TestSendPostsResultForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
	}))
	defer srv.Close()

	rep := quizrunner.Report{
		Score:            2,
		TotalQuestions:   3,
		IncorrectPrompts: []string{"Q2"},
		HintsUsed:        1,
		Elapsed:          90 * time.Second,
	}

	err := testClient(srv.URL).Send(context.Background(), "lena", "Vocabulary 7", rep)
	require.NoError(t, err)

	assert.Equal(t, "lena", got.Get("name"))
	assert.Equal(t, "results@example.com", got.Get("email"))
	assert.Equal(t, "2/3", got.Get("score"))
	assert.Equal(t, "Q2", got.Get("incorrectAnswers"))
	assert.Equal(t, "1", got.Get("hintsUsed"))
	assert.Equal(t, "1m30s", got.Get("completionTime"))
	assert.Equal(t, "Quiz results: Vocabulary 7", got.Get("_subject"))
}

func TestSendPerfectScore(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
	}))
	defer srv.Close()

	rep := quizrunner.Report{Score: 3, TotalQuestions: 3, Elapsed: time.Second}
	require.NoError(t, testClient(srv.URL).Send(context.Background(), "lena", "demo", rep))
	assert.Equal(t, "none", got.Get("incorrectAnswers"))
}

func TestSendRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := testClient(srv.URL).Send(context.Background(), "lena", "demo", quizrunner.Report{})
	assert.Error(t, err)
}

func TestDisabledClientIsNoop(t *testing.T) {
	c := testClient("")
	assert.False(t, c.Enabled())
	// must not panic or block
	c.Submit("lena", "demo", quizrunner.Report{})
}
