package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTokens(t *testing.T) {
	in := []string{
		"ExponentPushToken[abc]",
		"ExpoPushToken[def]",
		"ExponentPushToken[abc]",
		"not-a-token",
		"ExpoPushToken[]",
		"",
	}
	assert.Equal(t, []string{"ExponentPushToken[abc]", "ExpoPushToken[def]"}, FilterTokens(in))
}

func TestChunk(t *testing.T) {
	tokens := make([]string, 250)
	chunks := Chunk(tokens, ChunkSize)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)

	assert.Empty(t, Chunk(nil, ChunkSize))
}

func TestPushServiceSendBatch(t *testing.T) {
	var got []pushPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		resp := pushResponse{}
		for range got {
			resp.Data = append(resp.Data, Receipt{Status: "ok", ID: "r"})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := NewPushService(srv.URL, "secret")
	receipts, err := svc.SendBatch(context.Background(), []string{"ExpoPushToken[a]", "ExpoPushToken[b]"}, Message{Title: "New activity", Body: "Fractions"})
	require.NoError(t, err)
	assert.Len(t, receipts, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "ExpoPushToken[b]", got[1].To)
	assert.Equal(t, "New activity", got[0].Title)
}

func TestPushServiceSendBatchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors":[{"code":"RATE","message":"slow down"}]}`))
	}))
	defer srv.Close()

	svc := NewPushService(srv.URL, "")
	_, err := svc.SendBatch(context.Background(), []string{"ExpoPushToken[a]"}, Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = svc.SendBatch(context.Background(), make([]string, ChunkSize+1), Message{})
	assert.Error(t, err)
}

type flakySender struct {
	calls  [][]string
	failOn int
}

func (f *flakySender) SendBatch(ctx context.Context, tokens []string, msg Message) ([]Receipt, error) {
	f.calls = append(f.calls, tokens)
	if len(f.calls)-1 == f.failOn {
		return nil, errors.New("provider unavailable")
	}
	out := make([]Receipt, len(tokens))
	for i := range out {
		out[i] = Receipt{Status: "ok"}
	}
	return out, nil
}

func TestSendAllContinuesAfterFailedChunk(t *testing.T) {
	tokens := make([]string, 0, 230)
	for i := 0; i < 230; i++ {
		tokens = append(tokens, fmt.Sprintf("ExpoPushToken[%d]", i))
	}
	sender := &flakySender{failOn: 0}

	res := SendAll(context.Background(), sender, tokens, Message{Title: "t"})

	assert.Len(t, sender.calls, 3)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Receipts, 130)
}
