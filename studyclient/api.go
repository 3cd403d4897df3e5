package studyclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
)

// API is the server half of a study session as seen by the client.
type API interface {
	// ActiveSession returns nil without error when the user has no active session.
	ActiveSession(ctx context.Context) (*models.StudySession, error)
	StartSession(ctx context.Context, deckID uuid.UUID, goalMinutes int) (*models.StudySession, error)
	Cards(ctx context.Context, deckID uuid.UUID) ([]models.Flashcard, error)
	RecordReview(ctx context.Context, sessionID, cardID uuid.UUID, difficulty string) error
	FinishSession(ctx context.Context, sessionID uuid.UUID, cardsStudied int) (*models.StudySession, error)
	CancelSession(ctx context.Context, sessionID uuid.UUID) error
}

// sessionNotFound is the server's message when the user has no open session.
const sessionNotFound = "study session not found"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("study api: %d %s", e.Status, e.Message)
}

// HTTPClient talks to the study routes. BaseURL is the API root, for
// example https://api.example.com/api/v1.
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPClient) ActiveSession(ctx context.Context) (*models.StudySession, error) {
	var session models.StudySession
	err := h.do(ctx, http.MethodGet, "/study/sessions/active", nil, &session)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound && apiErr.Message == sessionNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (h *HTTPClient) StartSession(ctx context.Context, deckID uuid.UUID, goalMinutes int) (*models.StudySession, error) {
	body := map[string]interface{}{"deck_id": deckID, "session_goal": goalMinutes}
	var session models.StudySession
	err := h.do(ctx, http.MethodPost, "/study/sessions", body, &session)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return nil, fmt.Errorf("%w: %s", ErrSessionAlreadyActive, apiErr.Message)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (h *HTTPClient) Cards(ctx context.Context, deckID uuid.UUID) ([]models.Flashcard, error) {
	var cards []models.Flashcard
	if err := h.do(ctx, http.MethodGet, "/study/decks/"+deckID.String()+"/cards", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (h *HTTPClient) RecordReview(ctx context.Context, sessionID, cardID uuid.UUID, difficulty string) error {
	body := map[string]interface{}{"card_id": cardID, "difficulty": difficulty}
	return h.do(ctx, http.MethodPost, "/study/sessions/"+sessionID.String()+"/reviews", body, nil)
}

func (h *HTTPClient) FinishSession(ctx context.Context, sessionID uuid.UUID, cardsStudied int) (*models.StudySession, error) {
	body := map[string]interface{}{"cards_studied": cardsStudied}
	var session models.StudySession
	if err := h.do(ctx, http.MethodPost, "/study/sessions/"+sessionID.String()+"/finish", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (h *HTTPClient) CancelSession(ctx context.Context, sessionID uuid.UUID) error {
	return h.do(ctx, http.MethodPost, "/study/sessions/"+sessionID.String()+"/cancel", nil, nil)
}

func (h *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = sonic.Unmarshal(raw, &body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
