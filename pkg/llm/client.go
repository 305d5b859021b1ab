package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// ErrInvalidCredential is returned when the AI service rejects the API key.
var ErrInvalidCredential = errors.New("invalid API key")

// Client runs the tailoring and cover-letter calls over a Generator.
type Client struct {
	gen Generator
}

// NewClient wraps gen.
func NewClient(gen Generator) (client *Client) {
	client = &Client{gen: gen}
	return client
}

// Tailor makes one call and returns the normalized suggestion set. There are no retries.
func (c *Client) Tailor(ctx context.Context, job, resume string) (result TailoringResult, err error) {
	var text string
	text, err = c.gen.Generate(ctx, buildTailorPrompt(job, resume))
	if err != nil {
		err = errors.Wrap(err, "tailoring request failed")
		return result, err
	}

	result, err = ParseTailoringResult(text)
	if err != nil {
		err = errors.Wrap(err, "failed to parse tailoring response")
		return result, err
	}

	return result, err
}

// CoverLetter drafts a letter from the job and the current tailored résumé.
func (c *Client) CoverLetter(ctx context.Context, job, tailoredResume string) (letter string, err error) {
	var text string
	text, err = c.gen.Generate(ctx, buildCoverLetterPrompt(job, tailoredResume))
	if err != nil {
		err = errors.Wrap(err, "cover letter request failed")
		return letter, err
	}

	letter = strings.TrimSpace(text)
	if letter == "" {
		err = errors.Wrap(ErrMalformedResponse, "empty cover letter")
		return letter, err
	}

	return letter, err
}

// CheckCredential sends a tiny prompt to prove the configured key is accepted.
func (c *Client) CheckCredential(ctx context.Context) (err error) {
	_, err = c.gen.Generate(ctx, credentialCheckPrompt)
	if err != nil {
		err = errors.Wrap(err, "credential check failed")
		return err
	}
	return err
}

// classifyError marks authentication failures with ErrInvalidCredential.
func classifyError(cause error) (err error) {
	err = cause
	if isCredentialError(cause) {
		err = errors.Wrap(ErrInvalidCredential, cause.Error())
	}
	return err
}

func isCredentialError(err error) (ok bool) {
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) && isAuthStatus(geminiErr.Code) {
		ok = true
		return ok
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) && isAuthStatus(anthropicErr.StatusCode) {
		ok = true
		return ok
	}

	ok = strings.Contains(err.Error(), "API_KEY")
	return ok
}

func isAuthStatus(code int) (ok bool) {
	ok = code == http.StatusUnauthorized || code == http.StatusForbidden
	return ok
}
