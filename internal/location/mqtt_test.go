package location

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestMQTTSource_HandleMessage(t *testing.T) {
	tr := NewTracker()
	src := NewMQTTSource("tcp://localhost:1883", "test", "placenotes/location", tr)

	src.handleMessage(nil, fakeMessage{
		topic:   "placenotes/location",
		payload: []byte(`{"lat":40.4168,"lon":-3.7038,"accuracy":8,"timestamp":"2024-05-01T12:00:00Z"}`),
	})

	cur := tr.Current()
	require.NotNil(t, cur)
	assert.Equal(t, 40.4168, cur.Location.Lat)
	assert.Equal(t, -3.7038, cur.Location.Lon)
	assert.Equal(t, 8.0, cur.Accuracy)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), cur.Timestamp.UTC())
}

func TestMQTTSource_DropsBadPayloads(t *testing.T) {
	tr := NewTracker()
	src := NewMQTTSource("tcp://localhost:1883", "test", "placenotes/location", tr)

	src.handleMessage(nil, fakeMessage{topic: "t", payload: []byte("not json")})
	assert.Nil(t, tr.Current())

	src.handleMessage(nil, fakeMessage{topic: "t", payload: []byte(`{"lat":123,"lon":0}`)})
	assert.Nil(t, tr.Current())
}

func TestMQTTSource_StartFailsWithoutBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	src := NewMQTTSource("tcp://127.0.0.1:1", "test", "t", NewTracker())
	assert.Error(t, src.Start())
}

func TestMQTTSource_LateMessageKeepsNewerFix(t *testing.T) {
	tr := NewTracker()
	src := NewMQTTSource("tcp://localhost:1883", "test", "placenotes/location", tr)

	src.handleMessage(nil, fakeMessage{topic: "t", payload: []byte(`{"lat":1,"lon":1,"timestamp":"2024-05-01T12:00:05Z"}`)})
	src.handleMessage(nil, fakeMessage{topic: "t", payload: []byte(`{"lat":9,"lon":9,"timestamp":"2024-05-01T12:00:00Z"}`)})

	require.NotNil(t, tr.Current())
	assert.Equal(t, 1.0, tr.Current().Location.Lat)
}
