package sheets_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/sheets"
)

func TestClient_Enabled(t *testing.T) {
	assert.False(t, sheets.New(sheets.Config{}).Enabled())
	assert.False(t, sheets.New(sheets.Config{WebhookURL: "   "}).Enabled())
	assert.True(t, sheets.New(sheets.Config{WebhookURL: "https://hooks.example/append"}).Enabled())
}

func TestClient_Append(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := sheets.New(sheets.Config{WebhookURL: srv.URL})

	err := c.Append(context.Background(), domain.Submission{
		Name:       "Ann",
		Activity:   domain.ActivityGuestbook,
		Data:       map[string]any{"message": "Congrats!"},
		CreateTime: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "guestbook", got["activityType"])
	assert.Equal(t, "Ann", got["name"])
	assert.Equal(t, "Congrats!", got["data"].(map[string]any)["message"])
}

func TestClient_Append_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := sheets.New(sheets.Config{WebhookURL: srv.URL})

	err := c.Append(context.Background(), domain.Submission{Activity: domain.ActivityQuiz})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}
