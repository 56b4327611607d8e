package devctl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
)

type vendorCall struct {
	DeviceID string
	Command  switchbot.Command
	Nonce    string
}

// vendorReply is the HTTP status and JSON body returned for a call
type vendorReply struct {
	status int
	body   interface{}
}

// fakeVendor records commands sent to the SwitchBot API
type fakeVendor struct {
	mu      sync.Mutex
	calls   []vendorCall
	respond func(n int, call vendorCall) vendorReply
	server  *httptest.Server
}

func newFakeVendor(t *testing.T, respond func(n int, call vendorCall) vendorReply) *fakeVendor {
	t.Helper()

	if respond == nil {
		respond = func(int, vendorCall) vendorReply { return confirmed() }
	}

	f := &fakeVendor{respond: respond}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1.1/devices/"), "/commands")

		var cmd switchbot.Command
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		call := vendorCall{DeviceID: deviceID, Command: cmd, Nonce: r.Header.Get("nonce")}

		f.mu.Lock()
		f.calls = append(f.calls, call)
		n := len(f.calls)
		f.mu.Unlock()

		reply := f.respond(n, call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		json.NewEncoder(w).Encode(reply.body)
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeVendor) api() switchbot.DeviceAPI {
	return switchbot.NewLiveClient(f.server.URL, "token", "secret")
}

func (f *fakeVendor) Calls() []vendorCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]vendorCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func confirmed() vendorReply {
	return vendorReply{status: http.StatusOK, body: map[string]interface{}{
		"statusCode": 100,
		"message":    "success",
		"body":       map[string]interface{}{},
	}}
}

func confirmedWithStatus(mode interface{}, temperature float64) vendorReply {
	return vendorReply{status: http.StatusOK, body: map[string]interface{}{
		"statusCode": 100,
		"message":    "success",
		"body": map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"deviceID": "dev",
					"code":     100,
					"status":   map[string]interface{}{"isOn": true, "mode": mode, "temperature": temperature, "fanSpeed": 1},
				},
			},
		},
	}}
}

func unconfirmed() vendorReply {
	return vendorReply{status: http.StatusOK, body: map[string]interface{}{
		"statusCode": 161,
		"message":    "device offline",
		"body":       map[string]interface{}{},
	}}
}

func serverError() vendorReply {
	return vendorReply{status: http.StatusInternalServerError, body: map[string]interface{}{"message": "boom"}}
}

func payloadCommand(cmdType, target string, payload Payload) Command {
	return Command{Type: cmdType, Target: target, Payload: payload}
}

var bg = context.Background()
