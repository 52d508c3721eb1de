package location

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/models"
)

const mqttTimeout = 10 * time.Second

// FixMessage is the JSON payload devices publish on the location topic.
type FixMessage struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Fix converts the message to a tracker fix.
func (m FixMessage) Fix() Fix {
	return Fix{
		Location:  models.Location{Lat: m.Lat, Lon: m.Lon},
		Accuracy:  m.Accuracy,
		Timestamp: m.Timestamp,
	}
}

// MQTTSource subscribes to a broker topic and forwards every fix to a Tracker.
type MQTTSource struct {
	client  mqtt.Client
	topic   string
	tracker *Tracker
}

// NewMQTTSource prepares a source; call Start to connect.
func NewMQTTSource(broker, clientID, topic string, tracker *Tracker) *MQTTSource {
	s := &MQTTSource{topic: topic, tracker: tracker}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		}).
		// Subscriptions are not kept across reconnects with a clean session.
		SetOnConnectHandler(func(c mqtt.Client) {
			if err := s.subscribe(c); err != nil {
				log.WithError(err).Error("MQTT subscribe failed")
			}
		})
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker. Subscription happens in the connect handler.
func (s *MQTTSource) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt connect: timed out after %s", mqttTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	log.WithField("topic", s.topic).Info("Listening for location fixes over MQTT")
	return nil
}

// Stop disconnects, waiting briefly for in-flight work.
func (s *MQTTSource) Stop() {
	s.client.Disconnect(250)
}

func (s *MQTTSource) subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.topic, 1, s.handleMessage)
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("subscribe %s: timed out", s.topic)
	}
	return token.Error()
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var m FixMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping malformed location message")
		return
	}
	if err := s.tracker.Update(m.Fix()); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping invalid location fix")
	}
}
