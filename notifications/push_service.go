package notifications

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/bytedance/sonic"
)

// ChunkSize is the provider's maximum number of messages per request.
const ChunkSize = 100

var tokenPattern = regexp.MustCompile(`^Expo(nent)?PushToken\[.+\]$`)

type Message struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type Receipt struct {
	Status  string                 `json:"status"`
	ID      string                 `json:"id,omitempty"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type pushPayload struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Sound string                 `json:"sound"`
}

type pushResponse struct {
	Data   []Receipt `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Sender delivers one chunk of tokens.
type Sender interface {
	SendBatch(ctx context.Context, tokens []string, msg Message) ([]Receipt, error)
}

type PushService struct {
	URL         string
	AccessToken string
	Client      *http.Client
}

func NewPushService(url, accessToken string) *PushService {
	return &PushService{
		URL:         url,
		AccessToken: accessToken,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}

// FilterTokens drops malformed and duplicate tokens, keeping order.
func FilterTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !ValidToken(t) {
			log.Printf("⚠️ Skipping malformed push token %q", t)
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func Chunk(tokens []string, size int) [][]string {
	if size < 1 {
		size = ChunkSize
	}
	var chunks [][]string
	for len(tokens) > 0 {
		n := size
		if len(tokens) < n {
			n = len(tokens)
		}
		chunks = append(chunks, tokens[:n])
		tokens = tokens[n:]
	}
	return chunks
}

func (s *PushService) SendBatch(ctx context.Context, tokens []string, msg Message) ([]Receipt, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if len(tokens) > ChunkSize {
		return nil, fmt.Errorf("batch of %d exceeds chunk size %d", len(tokens), ChunkSize)
	}

	payload := make([]pushPayload, 0, len(tokens))
	for _, t := range tokens {
		payload = append(payload, pushPayload{To: t, Title: msg.Title, Body: msg.Body, Data: msg.Data, Sound: "default"})
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	if s.AccessToken != "" {
		req.Header.Set("authorization", "Bearer "+s.AccessToken)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed pushResponse
	if err := sonic.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("push API rejected batch: %s", parsed.Errors[0].Message)
	}
	return parsed.Data, nil
}

// Result summarises one fan-out over many chunks.
type Result struct {
	Chunks   int
	Failed   int
	Receipts []Receipt
	Errors   []error
}

// SendAll sends tokens chunk by chunk. A failed chunk is logged and the
// remaining chunks are still sent.
func SendAll(ctx context.Context, sender Sender, tokens []string, msg Message) Result {
	var res Result
	for i, chunk := range Chunk(FilterTokens(tokens), ChunkSize) {
		res.Chunks++
		receipts, err := sender.SendBatch(ctx, chunk, msg)
		if err != nil {
			log.Printf("🔥 Push chunk %d (%d tokens) failed: %v", i, len(chunk), err)
			res.Failed++
			res.Errors = append(res.Errors, err)
			continue
		}
		for _, r := range receipts {
			if r.Status != "ok" {
				log.Printf("⚠️ Push receipt error: %s", r.Message)
			}
		}
		res.Receipts = append(res.Receipts, receipts...)
	}
	return res
}
