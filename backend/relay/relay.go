// Package relay delivers finished quiz reports to the external form-relay
// service that emails them out. The relay is an opaque collaborator: we post
// a form, log failures and move on. No retries.
package relay

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quizhub/backend/config"
	"quizhub/backend/quizrunner"
)

const submitTimeout = 10 * time.Second

// Client posts result forms to the configured relay endpoint.
type Client struct {
	Endpoint  string
	Recipient string
	HTTPC     *http.Client
	Logger    *log.Logger
}

// New builds a client from config. With no endpoint configured the client is
// disabled and Submit becomes a no-op.
func New(cfg *config.Config, logger *log.Logger) *Client {
	return &Client{
		Endpoint:  cfg.RelayURL,
		Recipient: cfg.RelayEmail,
		HTTPC:     &http.Client{Timeout: submitTimeout},
		Logger:    logger,
	}
}

// Enabled reports whether a relay endpoint is configured.
func (c *Client) Enabled() bool { return c.Endpoint != "" }

// Submit delivers the report in the background. The caller never waits on or
// learns about the outcome; a failed delivery is only logged.
func (c *Client) Submit(name, quizTitle string, rep quizrunner.Report) {
	if !c.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		if err := c.Send(ctx, name, quizTitle, rep); err != nil {
			c.Logger.Printf("relay: submit for %q failed: %v", quizTitle, err)
		}
	}()
}

// Send posts the result form synchronously. Submit uses it under the hood;
// tests call it directly.
func (c *Client) Send(ctx context.Context, name, quizTitle string, rep quizrunner.Report) error {
	incorrect := "none"
	if len(rep.IncorrectPrompts) > 0 {
		incorrect = strings.Join(rep.IncorrectPrompts, "; ")
	}

	form := url.Values{}
	form.Set("name", name)
	form.Set("email", c.Recipient)
	form.Set("score", fmt.Sprintf("%d/%d", rep.Score, rep.TotalQuestions))
	form.Set("incorrectAnswers", incorrect)
	form.Set("hintsUsed", strconv.Itoa(rep.HintsUsed))
	form.Set("completionTime", rep.Elapsed.Round(time.Second).String())
	form.Set("_subject", "Quiz results: "+quizTitle)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("relay responded with %s", resp.Status)
	}
	return nil
}
