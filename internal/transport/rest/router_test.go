package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"letsgohome/internal/cache"
	"letsgohome/internal/model"
	"letsgohome/internal/service"
	"letsgohome/internal/transport/ws"
)

func newTestServer() *httptest.Server {
	svc := service.NewSessionService(cache.NewMemoryStore(), nil)
	hub := ws.NewHub()
	svc.SetBroadcaster(hub)
	return httptest.NewServer(NewRouter(&Container{
		SessionService: svc,
		WSHub:          hub,
	}))
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, out
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, created := postJSON(t, srv.URL+"/v1/sessions", map[string]interface{}{
		"guestId":   "g1",
		"condition": "go home",
		"thresholdRule": map[string]interface{}{
			"type":  "absolute",
			"value": 2,
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	sessionID, _ := created["sessionId"].(string)
	if sessionID == "" {
		t.Fatal("missing sessionId in create response")
	}

	resp, _ = postJSON(t, srv.URL+"/v1/sessions/"+sessionID+"/join", map[string]string{"guestId": "g2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d", resp.StatusCode)
	}

	resp, snap := postJSON(t, srv.URL+"/v1/sessions/"+sessionID+"/click", map[string]string{"guestId": "g1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("click status = %d", resp.StatusCode)
	}
	if snap["completed"] != false || snap["clickedCount"] != float64(1) || snap["totalParticipants"] != float64(2) {
		t.Errorf("after g1 click: %+v", snap)
	}

	resp, snap = postJSON(t, srv.URL+"/v1/sessions/"+sessionID+"/click", map[string]string{"guestId": "g2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("click status = %d", resp.StatusCode)
	}
	if snap["completed"] != true || snap["clickedCount"] != float64(2) || snap["totalParticipants"] != float64(2) {
		t.Errorf("after g2 click: %+v", snap)
	}

	// Read-only state survives through GET as well.
	getResp, err := http.Get(srv.URL + "/v1/sessions/" + sessionID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer getResp.Body.Close()
	var state model.Snapshot
	if err := json.NewDecoder(getResp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !state.Completed || state.ClickedCount != 2 {
		t.Errorf("GET state: %+v", state)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/v1/sessions/missing/click", map[string]string{"guestId": "g1"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session click status = %d, want 404", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Error("error body missing")
	}

	resp, _ = postJSON(t, srv.URL+"/v1/sessions", map[string]string{"condition": "go home"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("create without guestId status = %d, want 400", resp.StatusCode)
	}

	// A session created with a rule the evaluator does not know still
	// records clicks but reports the configuration problem.
	_, created := postJSON(t, srv.URL+"/v1/sessions", map[string]interface{}{
		"guestId":       "g1",
		"thresholdRule": map[string]interface{}{"type": "majority", "value": 1},
	})
	sessionID, _ := created["sessionId"].(string)
	resp, _ = postJSON(t, srv.URL+"/v1/sessions/"+sessionID+"/click", map[string]string{"guestId": "g1"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad rule click status = %d, want 422", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
}
