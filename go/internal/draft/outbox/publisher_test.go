package outbox

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/champdraft/go/internal/draft/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	assert.Equal(t, "draft.ClaimAccepted", cfg.Subject(events.TypeClaimAccepted))
}

func TestIsStreamConfigEqual(t *testing.T) {
	p := &JetStreamPublisher{config: DefaultJetStreamConfig()}
	a := p.streamConfig()
	assert.True(t, isStreamConfigEqual(a, p.streamConfig()))

	b := a
	b.MaxAge = time.Hour
	assert.False(t, isStreamConfigEqual(a, b))

	c := a
	c.Subjects = []string{"other.>"}
	assert.False(t, isStreamConfigEqual(a, c))
}

// TestJetStreamPublisher runs against a live server when OUTBOX_NATS_URL is set.
func TestJetStreamPublisher(t *testing.T) {
	url := os.Getenv("OUTBOX_NATS_URL")
	if url == "" {
		t.Skip("OUTBOX_NATS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := DefaultJetStreamConfig()
	cfg.URL = url
	cfg.StreamName = "DRAFT_EVENTS_TEST"
	cfg.SubjectPrefix = "drafttest." + uuid.NewString()[:8]

	pub, err := NewJetStreamPublisher(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pub.js.DeleteStream(context.Background(), cfg.StreamName)
		_ = pub.Close()
	})
	assert.True(t, pub.Connected())

	e := events.New(uuid.New(), events.TypeClaimAccepted, time.Now(), map[string]string{"item": "Ahri"})
	require.NoError(t, pub.Publish(ctx, e))
	require.NoError(t, pub.Publish(ctx, e), "republishing the same id is deduplicated, not rejected")

	stream, err := pub.js.Stream(ctx, cfg.StreamName)
	require.NoError(t, err)
	msg, err := stream.GetLastMsgForSubject(ctx, cfg.Subject(events.TypeClaimAccepted))
	require.NoError(t, err)

	var got struct {
		ID   uuid.UUID   `json:"event_id"`
		Type events.Type `json:"event_type"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, events.TypeClaimAccepted, got.Type)

	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.State.Msgs)
}
