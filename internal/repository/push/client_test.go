package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/domain/notification"
	"github.com/calmerhq/calmer/internal/domain/user"
)

func recipients(n int, url string) []notification.Recipient {
	out := make([]notification.Recipient, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, notification.Recipient{
			FID:     int64(i + 1),
			Details: user.NotificationDetails{Token: "tok", URL: url},
		})
	}
	return out
}

func newTestClient(target string) *Client {
	return New(Config{TargetURL: target}, zap.NewNop())
}

func TestSend_PostsPayload(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"result":{"successfulTokens":["tok"]}}`))
	}))
	defer srv.Close()

	c := newTestClient("https://calmer.fyi")
	err := c.Send(context.Background(), recipients(3, srv.URL), "Calmer in the morning", "Start your day with a calm mind")
	require.NoError(t, err)

	require.NotEmpty(t, got.NotificationID)
	require.Equal(t, "Calmer in the morning", got.Title)
	require.Equal(t, "Start your day with a calm mind", got.Body)
	require.Equal(t, "https://calmer.fyi", got.TargetURL)
	require.Len(t, got.Tokens, 3)
}

func TestSend_EmptyBatchIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	require.NoError(t, newTestClient("x").Send(context.Background(), nil, "t", "b"))
	require.False(t, called)
}

func TestSend_OversizedBatchRejected(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	err := newTestClient("x").Send(context.Background(), recipients(101, srv.URL), "t", "b")
	require.Error(t, err)
	require.False(t, called, "limit is checked before any request goes out")
}

func TestSend_GroupsByNotificationURL(t *testing.T) {
	counts := map[string]int{}
	mkSrv := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req request
			_ = json.NewDecoder(r.Body).Decode(&req)
			counts[name] += len(req.Tokens)
			_, _ = w.Write([]byte(`{}`))
		}))
	}
	a := mkSrv("a")
	defer a.Close()
	b := mkSrv("b")
	defer b.Close()

	batch := append(recipients(2, a.URL), recipients(3, b.URL)...)
	require.NoError(t, newTestClient("x").Send(context.Background(), batch, "t", "b"))
	require.Equal(t, map[string]int{"a": 2, "b": 3}, counts)
}

func TestSend_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newTestClient("x").Send(context.Background(), recipients(1, srv.URL), "t", "b")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 502")
}

func TestSend_EmptyResponseBodyIsDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient("x").Send(context.Background(), recipients(1, srv.URL), "t", "b"))
}
