package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
	"github.com/yunhdeng/job-bot/internal/notify"
)

func testPosting() model.Posting {
	return model.Posting{
		ID:          "j1",
		Title:       "Go工程师",
		CompanyName: "Acme",
		City:        "上海",
		SalaryMin:   15,
		SalaryMax:   25,
	}
}

func TestDeliveredPublishesRedisEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sub := rdb.Subscribe(context.Background(), notify.EventChannel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	n := notify.New("", rdb, zap.NewNop())
	n.Delivered(context.Background(), "boss", testPosting(), model.OutcomeDelivered)

	select {
	case msg := <-sub.Channel():
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
		assert.Equal(t, "boss", payload["platform"])
		assert.Equal(t, "j1", payload["jobId"])
		assert.Equal(t, string(model.OutcomeDelivered), payload["outcome"])
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery event published")
	}
}

func TestDeliveredPushesWebhook(t *testing.T) {
	got := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		got <- payload
	}))
	t.Cleanup(srv.Close)

	n := notify.New(srv.URL, nil, zap.NewNop())
	n.Delivered(context.Background(), "boss", testPosting(), model.OutcomeFailed)

	select {
	case payload := <-got:
		assert.Equal(t, "text", payload["msgtype"])
		text := payload["text"].(map[string]any)["content"].(string)
		assert.Contains(t, text, "Go工程师")
		assert.Contains(t, text, "❌")
	case <-time.After(2 * time.Second):
		t.Fatal("no webhook received")
	}
}

// A dead webhook endpoint must not panic or error the pipeline.
func TestDeliveredToleratesDeadSinks(t *testing.T) {
	n := notify.New("http://127.0.0.1:1/hook", nil, zap.NewNop())
	n.Delivered(context.Background(), "boss", testPosting(), model.OutcomeDelivered)
}
