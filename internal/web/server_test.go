package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/internal/payment"
	"github.com/Alias1177/Baccarat/internal/render"
	"github.com/Alias1177/Baccarat/internal/session"
	"github.com/Alias1177/Baccarat/models"
)

func newTestServer(t *testing.T, commandsPerSec float64) (*httptest.Server, *session.Store) {
	t.Helper()
	return newGatedServer(t, commandsPerSec, nil)
}

func newGatedServer(t *testing.T, commandsPerSec float64, access Access) (*httptest.Server, *session.Store) {
	t.Helper()
	strategy, err := analyze.NewStrategy(analyze.StrategyDerivedRoads)
	if err != nil {
		t.Fatal(err)
	}
	store := session.NewStore(strategy)
	srv := httptest.NewServer(NewServer(store, nil, access, analyze.StrategyDerivedRoads, commandsPerSec).Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame Frame) render.Snapshot {
	t.Helper()
	if frame.Action != "" {
		payload, _ := json.Marshal(frame)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var snap render.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", data, err)
	}
	return snap
}

func TestWebsocketTable(t *testing.T) {
	srv, store := newTestServer(t, 100)
	conn := dial(t, srv)

	initial := roundTrip(t, conn, Frame{})
	if len(initial.Log) != 0 || initial.Strategy != analyze.StrategyDerivedRoads {
		t.Errorf("initial snapshot = %+v, want empty derived_roads table", initial)
	}
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}

	for _, action := range []string{ActionBanker, ActionBanker, ActionBanker, ActionPlayer} {
		roundTrip(t, conn, Frame{Action: action})
	}

	snap := roundTrip(t, conn, Frame{Action: ActionAnalyze})
	if got := models.FormatOutcomes(snap.Log, ""); got != "BBBP" {
		t.Errorf("log = %s, want BBBP", got)
	}
	if snap.Prediction == nil {
		t.Fatal("prediction missing after analyze")
	}
	if snap.Prediction.Side != models.SideBanker || snap.Prediction.Confidence != 99 {
		t.Errorf("prediction = %+v, want Banker 99", *snap.Prediction)
	}

	snap = roundTrip(t, conn, Frame{Action: ActionUndo})
	if len(snap.Log) != 3 || snap.Prediction != nil {
		t.Errorf("after undo = %+v, want 3 rounds and no prediction", snap)
	}

	snap = roundTrip(t, conn, Frame{Action: ActionStrategy, Strategy: "nope"})
	if snap.Error == "" {
		t.Error("unknown strategy returned no error")
	}

	snap = roundTrip(t, conn, Frame{Action: ActionClear})
	if len(snap.Log) != 0 || snap.Streak != nil {
		t.Errorf("after clear = %+v, want empty table", snap)
	}
}

func TestWebsocketRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	conn := dial(t, srv)
	roundTrip(t, conn, Frame{})

	first := roundTrip(t, conn, Frame{Action: ActionBanker})
	if first.Error != "" {
		t.Fatalf("first frame error = %q", first.Error)
	}
	second := roundTrip(t, conn, Frame{Action: ActionBanker})
	if second.Error == "" {
		t.Error("second frame within the same second was not rate limited")
	}
	if len(second.Log) != 1 {
		t.Errorf("rate limited frame changed the log: %v", second.Log)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 10)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantSide   models.Side
	}{
		{"derived roads", http.MethodPost, `{"results":"B B B P"}`, http.StatusOK, models.SideBanker},
		{"frequency", http.MethodPost, `{"results":"TPT","strategy":"frequency"}`, http.StatusOK, models.SidePlayer},
		{"пустой журнал", http.MethodPost, `{"results":""}`, http.StatusOK, models.SideNone},
		{"bad outcome", http.MethodPost, `{"results":"BXP"}`, http.StatusBadRequest, ""},
		{"bad strategy", http.MethodPost, `{"results":"BP","strategy":"nope"}`, http.StatusBadRequest, ""},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest, ""},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+"/analyze", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var snap render.Snapshot
			if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
				t.Fatal(err)
			}
			if snap.Prediction == nil || snap.Prediction.Side != tt.wantSide {
				t.Errorf("prediction = %+v, want side %q", snap.Prediction, tt.wantSide)
			}
		})
	}
}

func TestPremiumStrategyLockedOnWeb(t *testing.T) {
	gate := payment.NewAnonymousGate([]string{analyze.StrategyDerivedRoads},
		payment.NewStripeService("sk_test", "price_test", "", "test_bot"))
	srv, _ := newGatedServer(t, 100, gate)

	resp, err := http.Post(srv.URL+"/analyze", "application/json", bytes.NewBufferString(`{"results":"BBBP"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("premium analyze status = %d, want 402", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/analyze", "application/json", bytes.NewBufferString(`{"results":"BBBP","strategy":"frequency"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("free analyze status = %d, want 200", resp.StatusCode)
	}

	conn := dial(t, srv)
	roundTrip(t, conn, Frame{})
	roundTrip(t, conn, Frame{Action: ActionBanker})

	snap := roundTrip(t, conn, Frame{Action: ActionAnalyze})
	if snap.Error == "" || snap.Prediction != nil {
		t.Errorf("premium analyze = %+v, want an error and no prediction", snap)
	}

	snap = roundTrip(t, conn, Frame{Action: ActionStrategy, Strategy: analyze.StrategyFrequency})
	if snap.Error != "" || snap.Strategy != analyze.StrategyFrequency {
		t.Errorf("switch to frequency = %+v", snap)
	}
	snap = roundTrip(t, conn, Frame{Action: ActionStrategy, Strategy: analyze.StrategyDerivedRoads})
	if snap.Error == "" || snap.Strategy != analyze.StrategyFrequency {
		t.Errorf("switch to derived_roads = %+v, want refusal", snap)
	}
	snap = roundTrip(t, conn, Frame{Action: ActionAnalyze})
	if snap.Error != "" || snap.Prediction == nil {
		t.Errorf("free analyze = %+v, want a prediction", snap)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, 10)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
