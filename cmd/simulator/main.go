package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/location"
	"github.com/ukydev/placenotes/internal/models"
	"github.com/ukydev/placenotes/internal/nearby"
)

// Starting points for a walk.
var cities = map[string]models.Location{
	"madrid":    {Lat: 40.4168, Lon: -3.7038},
	"london":    {Lat: 51.5074, Lon: -0.1278},
	"paris":     {Lat: 48.8566, Lon: 2.3522},
	"bogota":    {Lat: 4.7110, Lon: -74.0721},
	"berlin":    {Lat: 52.5200, Lon: 13.4050},
	"tokyo":     {Lat: 35.6762, Lon: 139.6503},
	"sydney":    {Lat: -33.8688, Lon: 151.2093},
	"sao-paulo": {Lat: -23.5505, Lon: -46.6333},
}

var seedNames = []string{
	"Corner café", "Old bookshop", "Rooftop bar", "Street market", "Hidden garden",
	"Taco stand", "Viewpoint", "Bakery", "Jazz club", "Riverside bench",
}

func jitterLocation(base models.Location, meters float64) models.Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return models.Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

// --- API client ---

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) do(method, path string, body, out interface{}, wantStatus int) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func (c *apiClient) login(username, password string) error {
	var resp models.LoginResponse
	if err := c.do(http.MethodPost, "/auth/login", models.LoginRequest{Username: username, Password: password}, &resp, http.StatusOK); err != nil {
		return err
	}
	c.token = resp.Token
	log.WithFields(log.Fields{"user": resp.User.Username, "role": resp.User.Role}).Info("Logged in")
	return nil
}

func (c *apiClient) listPlaces() ([]models.Place, error) {
	var places []models.Place
	err := c.do(http.MethodGet, "/places", nil, &places, http.StatusOK)
	return places, err
}

func (c *apiClient) createPlace(req models.PlaceRequest) (models.Place, error) {
	var place models.Place
	err := c.do(http.MethodPost, "/places", req, &place, http.StatusCreated)
	return place, err
}

// seedPlaces creates n random places within radius meters of center.
func seedPlaces(c *apiClient, center models.Location, n int, radius float64) []models.Place {
	created := make([]models.Place, 0, n)
	for i := 0; i < n; i++ {
		req := models.PlaceRequest{
			Name:        fmt.Sprintf("%s #%d", seedNames[rand.Intn(len(seedNames))], i+1),
			Description: "Seeded by the simulator",
			Location:    jitterLocation(center, radius),
			Rating:      math.Round(rand.Float64()*models.MaxRating*2) / 2,
		}
		place, err := c.createPlace(req)
		if err != nil {
			log.WithError(err).Error("Failed to seed place")
			continue
		}
		created = append(created, place)
	}
	log.WithField("count", len(created)).Info("Seeded places")
	return created
}

// --- Publishing fixes ---

type fixPublisher interface {
	Publish(msg location.FixMessage) error
}

type httpPublisher struct {
	client *apiClient
}

func (p *httpPublisher) Publish(msg location.FixMessage) error {
	return p.client.do(http.MethodPost, "/location", msg, nil, http.StatusAccepted)
}

type mqttPublisher struct {
	client mqtt.Client
	topic  string
}

func newMQTTPublisher(broker, clientID, topic string) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect: timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &mqttPublisher{client: client, topic: topic}, nil
}

func (p *mqttPublisher) Publish(msg location.FixMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt publish: timed out")
	}
	return token.Error()
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(250)
}

// --- Routing & movement ---

type walkRoute struct {
	Points    []models.Location
	SegIndex  int
	SegOffset float64 // meters along current segment
}

type walkerState struct {
	Position models.Location
	SpeedKmh float64
	Route    *walkRoute
	// OSRMURL enables street routing when set.
	OSRMURL string
}

func lerp(a, b models.Location, t float64) models.Location {
	return models.Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
}

func fetchOSRMRoute(baseURL string, start, end models.Location) ([]models.Location, error) {
	url := fmt.Sprintf("%s/route/v1/foot/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		baseURL, start.Lon, start.Lat, end.Lon, end.Lat)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm status %d", resp.StatusCode)
	}

	var obj struct {
		Routes []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, err
	}
	if len(obj.Routes) == 0 || len(obj.Routes[0].Geometry.Coordinates) < 2 {
		return nil, fmt.Errorf("no route")
	}
	coords := obj.Routes[0].Geometry.Coordinates
	pts := make([]models.Location, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		pts = append(pts, models.Location{Lat: c[1], Lon: c[0]})
	}
	return pts, nil
}

func planNewRoute(s *walkerState) {
	start := s.Position
	end := jitterLocation(start, 1500)
	if s.OSRMURL != "" {
		pts, err := fetchOSRMRoute(s.OSRMURL, start, end)
		if err == nil {
			s.Route = &walkRoute{Points: pts}
			return
		}
		log.WithError(err).Debug("OSRM routing failed, walking straight")
	}
	s.Route = &walkRoute{Points: []models.Location{start, end}}
}

func stepAlongRoute(s *walkerState, tickSec float64) {
	if s.Route == nil || len(s.Route.Points) < 2 {
		planNewRoute(s)
	}
	remM := s.SpeedKmh * 1000 * (tickSec / 3600.0)
	for remM > 0 && s.Route.SegIndex < len(s.Route.Points)-1 {
		a := s.Route.Points[s.Route.SegIndex]
		b := s.Route.Points[s.Route.SegIndex+1]
		segLen := nearby.Distance(a, b)
		leftOnSeg := segLen - s.Route.SegOffset
		if remM >= leftOnSeg {
			s.Position = b
			s.Route.SegIndex++
			s.Route.SegOffset = 0
			remM -= leftOnSeg
			continue
		}
		t := (s.Route.SegOffset + remM) / segLen
		s.Position = lerp(a, b, math.Min(math.Max(t, 0), 1))
		s.Route.SegOffset += remM
		remM = 0
	}
	if s.Route.SegIndex >= len(s.Route.Points)-1 {
		planNewRoute(s)
	}
}

// logNearest reports the closest known place to the walker.
func logNearest(pos models.Location, places []models.Place) {
	ranked := nearby.Rank(&pos, places)
	if len(ranked) == 0 {
		return
	}
	log.WithFields(log.Fields{
		"place":    ranked[0].Place.Name,
		"distance": ranked[0].DistanceText,
	}).Info("Nearest place")
}

func walk(ctx context.Context, s *walkerState, pub fixPublisher, places []models.Place, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		// small speed noise
		s.SpeedKmh += (rand.Float64()*2 - 1) * 0.5
		s.SpeedKmh = math.Min(math.Max(s.SpeedKmh, 3), 7)
		stepAlongRoute(s, interval.Seconds())

		msg := location.FixMessage{
			Lat:       s.Position.Lat,
			Lon:       s.Position.Lon,
			Accuracy:  3 + rand.Float64()*12,
			Timestamp: time.Now().UTC(),
		}
		if err := pub.Publish(msg); err != nil {
			log.WithError(err).Error("Failed to publish fix")
			continue
		}
		log.WithFields(log.Fields{"lat": msg.Lat, "lon": msg.Lon}).Debug("Published fix")
		logNearest(s.Position, places)
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	client := newAPIClient(apiURL, os.Getenv("SIM_AUTH_TOKEN"))
	if user := os.Getenv("SIM_USERNAME"); user != "" {
		if err := client.login(user, os.Getenv("SIM_PASSWORD")); err != nil {
			log.WithError(err).Fatal("Login failed")
		}
	}

	cityName := os.Getenv("SIM_CITY")
	if cityName == "" {
		cityName = "madrid"
	}
	city, ok := cities[cityName]
	if !ok {
		log.WithField("city", cityName).Fatal("Unknown city")
	}

	interval := time.Duration(envInt("SIM_TICK_SECONDS", 2)) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}

	places := seedPlaces(client, city, envInt("SIM_SEED_PLACES", 0), 2000)
	if existing, err := client.listPlaces(); err != nil {
		log.WithError(err).Warn("Could not load places, nearest-place logging disabled")
	} else {
		places = existing
	}

	var pub fixPublisher = &httpPublisher{client: client}
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		topic := os.Getenv("MQTT_TOPIC")
		if topic == "" {
			topic = "placenotes/location"
		}
		mp, err := newMQTTPublisher(broker, "placenotes-simulator", topic)
		if err != nil {
			log.WithError(err).Fatal("MQTT connection failed")
		}
		defer mp.Close()
		pub = mp
	}

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"city":     cityName,
		"interval": interval,
		"places":   len(places),
	}).Info("Starting walk simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := &walkerState{
		Position: jitterLocation(city, 300),
		SpeedKmh: 4 + rand.Float64(),
		OSRMURL:  os.Getenv("OSRM_URL"),
	}
	walk(ctx, state, pub, places, interval)
	log.Info("Simulation stopped")
}
