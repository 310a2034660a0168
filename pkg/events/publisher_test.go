package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

type published struct {
	channel string
	payload []byte
}

type fakeRedis struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.sent = append(f.sent, published{channel: channel, payload: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestBaseEvent(t *testing.T) {
	event := NewBaseEvent("test.event", "sess-1")

	assert.Equal(t, "test.event", event.EventType)
	assert.Equal(t, "sess-1", event.SessionID)
	assert.Equal(t, "audiencia", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "events.audiencia.record.edited", (*Publisher)(nil).Channel(TypeRecordEdited))

	p := NewPublisher(&fakeRedis{}, "court.", logging.NewNopLogger())
	assert.Equal(t, "court.speaker.renamed", p.Channel(TypeSpeakerRenamed))
}

func TestPublishRecordEdited(t *testing.T) {
	fake := &fakeRedis{}
	p := NewPublisher(fake, "", nil)

	change := transcript.Change{
		ID:       "c-1",
		RecordID: 7,
		Kind:     transcript.ChangeText,
		User:     "escrivao",
		Previous: "antes",
		Next:     "depois",
	}
	require.NoError(t, p.PublishRecordEdited(context.Background(), "sess-1", change))

	require.Len(t, fake.sent, 1)
	assert.Equal(t, "events.audiencia.record.edited", fake.sent[0].channel)

	var got RecordEditedEvent
	require.NoError(t, json.Unmarshal(fake.sent[0].payload, &got))
	assert.Equal(t, TypeRecordEdited, got.EventType)
	assert.Equal(t, 7, got.RecordID)
	assert.Equal(t, "text", got.Kind)
	assert.Equal(t, "depois", got.Next)
	require.NotNil(t, got.CorrelationID)
	assert.Equal(t, "c-1", *got.CorrelationID)
}

func TestPublishOtherEvents(t *testing.T) {
	fake := &fakeRedis{}
	p := NewPublisher(fake, "", logging.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, p.PublishTranscriptLoaded(ctx, TranscriptLoadedParams{SessionID: "s", Records: 3, Speakers: 2}))
	require.NoError(t, p.PublishRecordAnnotated(ctx, "s", transcript.Record{ID: 2, Note: "ver", Marked: true}, "u"))
	require.NoError(t, p.PublishSpeakerRenamed(ctx, SpeakerRenamedParams{SessionID: "s", OldName: "A", NewName: "B", RecordsUpdated: 4}))

	require.Len(t, fake.sent, 3)
	assert.Equal(t, "events.audiencia.transcript.loaded", fake.sent[0].channel)
	assert.Equal(t, "events.audiencia.record.annotated", fake.sent[1].channel)
	assert.Equal(t, "events.audiencia.speaker.renamed", fake.sent[2].channel)

	var renamed SpeakerRenamedEvent
	require.NoError(t, json.Unmarshal(fake.sent[2].payload, &renamed))
	assert.Equal(t, 4, renamed.RecordsUpdated)
	assert.Equal(t, "B", renamed.NewName)
}

func TestPublishError(t *testing.T) {
	p := NewPublisher(&fakeRedis{err: errors.New("connection refused")}, "", nil)

	err := p.PublishTranscriptLoaded(context.Background(), TranscriptLoadedParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events.audiencia.transcript.loaded")
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	ctx := context.Background()

	assert.NoError(t, p.PublishTranscriptLoaded(ctx, TranscriptLoadedParams{}))
	assert.NoError(t, p.PublishRecordEdited(ctx, "s", transcript.Change{}))
	assert.NoError(t, p.PublishRecordAnnotated(ctx, "s", transcript.Record{}, ""))
	assert.NoError(t, p.PublishSpeakerRenamed(ctx, SpeakerRenamedParams{}))
	assert.NoError(t, p.Close())
}

func TestClose(t *testing.T) {
	fake := &fakeRedis{}
	require.NoError(t, NewPublisher(fake, "", nil).Close())
	assert.True(t, fake.closed)
}
