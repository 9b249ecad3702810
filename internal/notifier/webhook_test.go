package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nishantkapps/feedback/internal/models"
)

func sampleAlertEvent() *models.PainAlertEvent {
	return &models.PainAlertEvent{
		EventID:     uuid.New().String(),
		EventType:   models.EventTypeCriticalPain,
		PainLevel:   4,
		PainScore:   92.5,
		Source:      models.SourceFused,
		Confidence:  0.95,
		TriggeredAt: time.Now(),
		CreatedAt:   time.Now(),
	}
}

func TestPostAlert_Success(t *testing.T) {
	var received AlertPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, zap.NewNop())
	event := sampleAlertEvent()

	require.NoError(t, n.PostAlert(event))

	assert.Equal(t, event.EventID, received.EventID)
	assert.Equal(t, models.EventTypeCriticalPain, received.EventType)
	assert.Equal(t, 4, received.PainLevel)
	assert.Equal(t, "CRITICAL", received.PainLevelName)
	assert.Equal(t, 92.5, received.PainScore)
}

func TestPostAlert_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, zap.NewNop())

	err := n.PostAlert(sampleAlertEvent())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestPostAlert_RetriesOnTransientError(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, zap.NewNop())

	require.NoError(t, n.PostAlert(sampleAlertEvent()))
	assert.Equal(t, 3, attempts)
}
