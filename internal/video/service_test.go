package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
)

func kinescopeStub(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc := NewService(NewKinescopeClient(server.URL, "test-token"))
	svc.retryDelay = time.Millisecond
	return svc
}

func writeVideo(w http.ResponseWriter, id, status string) {
	_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
		"id":       id,
		"title":    "Урок 1. Введение",
		"duration": 420.5,
		"status":   status,
		"poster":   map[string]any{"original": "https://cdn.kinescope.io/poster.jpg"},
	}})
}

func TestResolve_Ready(t *testing.T) {
	svc := kinescopeStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/videos/abc123", r.URL.Path)
		writeVideo(w, "abc123", StatusDone)
	})

	info, err := svc.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://kinescope.io/embed/abc123", info.EmbedURL)
	assert.Equal(t, "abc123", info.VideoID)
	assert.Equal(t, "Урок 1. Введение", info.Title)
	assert.Equal(t, 420.5, info.Duration)
	assert.Equal(t, "https://cdn.kinescope.io/poster.jpg", info.Thumbnail)
}

func TestResolve_ProcessingThenReady(t *testing.T) {
	var calls atomic.Int32
	svc := kinescopeStub(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writeVideo(w, "abc123", StatusProcessing)
			return
		}
		writeVideo(w, "abc123", StatusDone)
	})

	info, err := svc.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, info.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolve_StillProcessingAfterRetries(t *testing.T) {
	var calls atomic.Int32
	svc := kinescopeStub(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeVideo(w, "abc123", StatusProcessing)
	})

	info, err := svc.Resolve(context.Background(), "abc123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrVideoProcessing))
	require.NotNil(t, info)
	assert.Equal(t, StatusProcessing, info.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolve_NotFound(t *testing.T) {
	svc := kinescopeStub(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := svc.Resolve(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestResolve_EmptyID(t *testing.T) {
	svc := NewService(NewKinescopeClient("", ""))
	_, err := svc.Resolve(context.Background(), "")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestExtractVideoID(t *testing.T) {
	assert.Equal(t, "abc123", ExtractVideoID("videos/course-1/abc123"))
	assert.Equal(t, "abc123", ExtractVideoID("/abc123/"))
	assert.Equal(t, "abc123", ExtractVideoID("abc123"))
	assert.Equal(t, "", ExtractVideoID("  "))
}
