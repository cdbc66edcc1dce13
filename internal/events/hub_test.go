package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/pushbridge/internal/webhook"
)

func TestHubRingKeepsNewest(t *testing.T) {
	h := NewHub(2)
	h.Publish("a", nil)
	h.Publish("b", nil)
	h.Publish("c", nil)

	all := h.SnapshotSince(0)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Type)
	assert.Equal(t, "c", all[1].Type)
	assert.Equal(t, []byte("{}"), all[0].Data)

	since := h.SnapshotSince(2)
	require.Len(t, since, 1)
	assert.Equal(t, int64(3), since[0].ID)
}

func TestHubSubscribeAndCancel(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	h.Publish("x", map[string]int{"n": 1})

	select {
	case ev := <-ch:
		assert.Equal(t, "x", ev.Type)
		assert.JSONEq(t, `{"n":1}`, string(ev.Data))
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}

func TestHubRecordDelivery(t *testing.T) {
	h := NewHub(4)
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.RecordDelivery(context.Background(), webhook.Delivery{FeedID: "42", Accepted: true, BodyBytes: 7, ReceivedAt: at}))
	require.NoError(t, h.RecordDelivery(context.Background(), webhook.Delivery{FeedID: "9", Reason: "Unknown feed#9."}))

	evs := h.SnapshotSince(0)
	require.Len(t, evs, 2)
	assert.Equal(t, TypeDeliveryAccepted, evs[0].Type)
	assert.Equal(t, TypeDeliveryRejected, evs[1].Type)

	var p DeliveryPayload
	require.NoError(t, json.Unmarshal(evs[0].Data, &p))
	assert.Equal(t, DeliveryPayload{FeedID: "42", Accepted: true, BodyBytes: 7, ReceivedAt: at}, p)
}

func TestHubDeliversConcurrentPublishesInIDOrder(t *testing.T) {
	h := NewHub(8)
	ch, cancel := h.Subscribe()

	received := make(chan []int64, 1)
	go func() {
		var ids []int64
		for ev := range ch {
			ids = append(ids, ev.ID)
		}
		received <- ids
	}()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h.Publish("tick", nil)
			}
		}()
	}
	wg.Wait()
	cancel()

	ids := <-received
	require.NotEmpty(t, ids)
	for i := 1; i < len(ids); i++ {
		require.Greater(t, ids[i], ids[i-1], "event %d arrived after %d", ids[i], ids[i-1])
	}
}
