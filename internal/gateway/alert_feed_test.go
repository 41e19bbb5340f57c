package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertFeedPublish(t *testing.T) {
	feed := NewAlertFeed(nil)

	first, cancelFirst := feed.Subscribe()
	second, cancelSecond := feed.Subscribe()
	assert.Equal(t, 2, feed.Subscribers())

	feed.Publish(&models.Alert{ID: "a1"})
	assert.Equal(t, "a1", (<-first).ID)
	assert.Equal(t, "a1", (<-second).ID)

	cancelFirst()
	cancelFirst()
	assert.Equal(t, 1, feed.Subscribers())
	_, open := <-first
	assert.False(t, open, "cancel closes the channel")

	feed.Publish(&models.Alert{ID: "a2"})
	assert.Equal(t, "a2", (<-second).ID)
	cancelSecond()
	assert.Zero(t, feed.Subscribers())
}

func TestAlertFeedDropsForSlowSubscriber(t *testing.T) {
	feed := NewAlertFeed(nil)
	events, cancel := feed.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < feedBuffer*2; i++ {
			feed.Publish(&models.Alert{ID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, events, feedBuffer)
}

func TestStreamAlerts(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	staff := env.user(models.RoleHospital, "hospital@test.com")
	caller := env.user(models.RolePublic, "public@test.com")
	env.predictor.results["predict_sos_severity"] = map[string]any{"severity_level": "High"}

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/alerts"

	t.Run("public callers are refused", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+env.token(caller), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("staff receive new alerts", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+env.token(staff), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return env.handler.feed.Subscribers() == 1 },
			2*time.Second, 10*time.Millisecond)

		w := env.do(http.MethodPost, "/api/alerts", env.token(caller), map[string]any{
			"locationDetails": "Market", "message": "Accident",
		})
		requireStatus(t, w, http.StatusCreated)
		alertID := decode[AlertResponse](t, w).AlertID

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var event struct {
			Type string       `json:"type"`
			Data models.Alert `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, "alert", event.Type)
		assert.Equal(t, alertID, event.Data.ID)
		assert.Equal(t, "High", event.Data.EmergencyType)
	})
}
