package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, opts Options) (*Hub, string) {
	t.Helper()
	hub := NewHub(opts, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, TopicBooks, Identity{UserID: r.URL.Query().Get("user")})
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount(TopicBooks) == want },
		time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	hub, url := startHub(t, Options{})
	a := dial(t, hub, url, 1)
	b := dial(t, hub, url+"?user=7", 2)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	hub.Publish(context.Background(), BookEvent(ActionAdd, 3, at))

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		assert.Equal(t, BookUpdate, ev.Type)
		assert.Equal(t, ActionAdd, ev.Action)
		assert.Equal(t, "book", ev.Entity)
		assert.EqualValues(t, 3, ev.ID)
		assert.True(t, at.Equal(ev.Timestamp))
	}
}

func TestHubEventWireFormat(t *testing.T) {
	hub, url := startHub(t, Options{})
	conn := dial(t, hub, url, 1)

	hub.Publish(context.Background(), GenreEvent(ActionDelete, 9, time.Now()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "genre_update", raw["type"])
	assert.Equal(t, "delete", raw["action"])
	assert.Equal(t, "genre", raw["entity"])
	assert.EqualValues(t, 9, raw["id"])
	_, err = time.Parse(time.RFC3339, raw["timestamp"].(string))
	assert.NoError(t, err)
}

func TestHubUnsubscribesOnDisconnect(t *testing.T) {
	hub, url := startHub(t, Options{})
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	_ = conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(TopicBooks) == 0 },
		2*time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), BookEvent(ActionDelete, 1, time.Now()))
}

func TestHubIgnoresClientMessages(t *testing.T) {
	hub, url := startHub(t, Options{})
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`)))
	hub.Publish(context.Background(), BookEvent(ActionUpdate, 5, time.Now()))

	ev := readEvent(t, conn)
	assert.Equal(t, ActionUpdate, ev.Action)
	assert.Equal(t, 1, hub.ClientCount(TopicBooks))
}

func TestHubDropsOversizedClientMessage(t *testing.T) {
	hub, url := startHub(t, Options{MaxMessageSize: 16})
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64))))
	require.Eventually(t, func() bool { return hub.ClientCount(TopicBooks) == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub, url := startHub(t, Options{})
	conn := dial(t, hub, url, 1)

	hub.Close()
	assert.Zero(t, hub.ClientCount(TopicBooks))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		defer late.Close()
		require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = late.ReadMessage()
		require.Error(t, err, "closed hub refuses new subscribers")
	}
	assert.Zero(t, hub.ClientCount(TopicBooks))
}

func TestClientTrySendDropsWhenFull(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	assert.True(t, c.trySend([]byte("a")))
	assert.False(t, c.trySend([]byte("b")))

	c.closeSend()
	c.closeSend()
	assert.False(t, c.trySend([]byte("c")))
}

func TestHubBroadcastSkipsSlowClient(t *testing.T) {
	hub := NewHub(Options{SendBuffer: 1}, nil)
	slow := &Client{hub: hub, topic: TopicBooks, send: make(chan []byte, 1)}
	require.True(t, hub.register(slow))

	hub.Broadcast(TopicBooks, []byte("1"))
	hub.Broadcast(TopicBooks, []byte("2"))

	assert.Equal(t, []byte("1"), <-slow.send)
	select {
	case msg := <-slow.send:
		t.Fatalf("unexpected message %q", msg)
	default:
	}

	hub.unregister(slow)
	hub.unregister(slow)
	assert.Zero(t, hub.ClientCount(TopicBooks))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestFanout(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	ev := BookEvent(ActionAdd, 1, time.Now())

	Fanout{a, nil, b}.Publish(context.Background(), ev)

	assert.Equal(t, []Event{ev}, a.events)
	assert.Equal(t, []Event{ev}, b.events)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
	done chan struct{}
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	f.msgs = append(f.msgs, msgs...)
	f.mu.Unlock()
	f.done <- struct{}{}
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisherWritesEvent(t *testing.T) {
	w := &fakeWriter{done: make(chan struct{}, 1)}
	p := &KafkaPublisher{w: w, logger: NewHub(Options{}, nil).logger}

	ev := BookEvent(ActionUpdate, 42, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	p.Publish(context.Background(), ev)

	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("message not written")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "book:42", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "type", Value: []byte("book_update")},
		{Key: "action", Value: []byte("update")},
	}, msg.Headers)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.Action, got.Action)
	require.NoError(t, p.Close())
}

func TestKafkaPublisherSwallowsErrors(t *testing.T) {
	w := &fakeWriter{done: make(chan struct{}, 1), err: errors.New("broker down")}
	p := &KafkaPublisher{w: w, logger: NewHub(Options{}, nil).logger}

	p.Publish(context.Background(), GenreEvent(ActionAdd, 1, time.Now()))

	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("message not attempted")
	}
}
