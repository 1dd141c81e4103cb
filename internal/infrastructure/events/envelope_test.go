package events

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgevents "github.com/narwhalmedia/ottcore/pkg/events"
)

func TestNewEnvelope(t *testing.T) {
	event := pkgevents.NewAggregateEvent(pkgevents.ProgressRecorded, "profile-1", map[string]interface{}{
		"content_id": "c-1",
	})

	envelope := NewEnvelope(event)
	other := NewEnvelope(event)

	assert.NotEmpty(t, envelope.ID)
	assert.NotEqual(t, envelope.ID, other.ID)
	assert.Equal(t, "progress.recorded", envelope.EventType)
	assert.Equal(t, "profile-1", envelope.AggregateID)
	assert.Equal(t, time.UTC, envelope.OccurredAt.Location())
	assert.Equal(t, event.Time, envelope.OccurredAt.UnixNano())

	data, err := envelope.Marshal()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "progress.recorded", decoded["event_type"])
	assert.Equal(t, map[string]interface{}{"content_id": "c-1"}, decoded["data"])
}

func TestEnvelope_OmitsEmptyAggregate(t *testing.T) {
	data, err := NewEnvelope(pkgevents.NewEvent(pkgevents.AccountCreated, nil)).Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "aggregate_id")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "ott.profile.created", Subject("ott", "profile.created"))
	assert.Equal(t, "ott.profile.created", Subject("ott.", "profile.created"))
}
