package grading

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
)

func TestGrade_Approved(t *testing.T) {
	var received Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"approved": true, "message": "Принято!"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	verdict, err := client.Grade(context.Background(), Request{
		LessonID:       7,
		Question:       "Что такое юнит-экономика?",
		UserAnswer:     "Доход и расход на одного клиента",
		TelegramUserID: 123456,
	})

	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Equal(t, "Принято!", verdict.Message)
	assert.Equal(t, uint(7), received.LessonID)
	assert.Equal(t, int64(123456), received.TelegramUserID)
}

func TestGrade_DefaultMessages(t *testing.T) {
	approved := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"approved": approved})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	verdict, err := client.Grade(context.Background(), Request{LessonID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Отличная работа! Урок засчитан.", verdict.Message)

	approved = false
	verdict, err = client.Grade(context.Background(), Request{LessonID: 1})
	require.NoError(t, err)
	assert.False(t, verdict.Approved)
	assert.NotEmpty(t, verdict.Message)
}

func TestGrade_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Grade(context.Background(), Request{LessonID: 1})
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestGrade_NotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.Grade(context.Background(), Request{LessonID: 1})
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}
