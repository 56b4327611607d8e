package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/devctl"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/tools"
)

type invocation struct {
	id   string
	args devctl.Args
}

type countingInvoker struct {
	mu       sync.Mutex
	calls    []invocation
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func (c *countingInvoker) Invoke(ctx context.Context, id string, args devctl.Args) devctl.Result {
	n := atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)

	for {
		seen := atomic.LoadInt32(&c.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&c.maxSeen, seen, n) {
			break
		}
	}

	time.Sleep(c.delay)

	c.mu.Lock()
	c.calls = append(c.calls, invocation{id: id, args: args})
	c.mu.Unlock()

	if id == "fan" {
		return devctl.Result{Error: "The fan is unplugged"}
	}
	return devctl.Result{Success: "called " + id}
}

func newTestToolServer(t *testing.T, inv *countingInvoker, maxConcurrent int) *toolServer {
	t.Helper()

	catalog, err := tools.Load()
	require.NoError(t, err)

	defs := catalog.ForFunctions(map[string]string{"tv": "tv", "fan": "tv", "bedroomAC": "aircon"})
	s, err := newToolServer(inv, defs, maxConcurrent, time.Second)
	require.NoError(t, err)

	return s
}

// rpc sends one JSON-RPC message and returns the decoded reply
func rpc(t *testing.T, s *toolServer, msg string) map[string]interface{} {
	t.Helper()

	reply := s.mcp.HandleMessage(context.Background(), json.RawMessage(msg))
	require.NotNil(t, reply, msg)

	data, err := json.Marshal(reply)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	return out
}

// callText returns the text content of a tools/call reply
func callText(t *testing.T, reply map[string]interface{}) string {
	t.Helper()

	result, ok := reply["result"].(map[string]interface{})
	require.True(t, ok, "no result in %v", reply)

	content, ok := result["content"].([]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)

	item := content[0].(map[string]interface{})
	assert.Equal(t, "text", item["type"])

	return item["text"].(string)
}

func TestToolServerInitialize(t *testing.T) {
	s := newTestToolServer(t, &countingInvoker{}, 2)

	reply := rpc(t, s, `{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": {"protocolVersion": "2024-11-05", "capabilities": {}, "clientInfo": {"name": "test", "version": "1"}}}`)
	assert.EqualValues(t, 1, reply["id"])

	result := reply["result"].(map[string]interface{})
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, mcpServerName, info["name"])

	capabilities := result["capabilities"].(map[string]interface{})
	assert.Contains(t, capabilities, "tools")
}

func TestToolServerListTools(t *testing.T) {
	s := newTestToolServer(t, &countingInvoker{}, 2)

	reply := rpc(t, s, `{"jsonrpc": "2.0", "id": 2, "method": "tools/list"}`)
	result := reply["result"].(map[string]interface{})
	list := result["tools"].([]interface{})

	byName := map[string]map[string]interface{}{}
	for _, item := range list {
		tool := item.(map[string]interface{})
		byName[tool["name"].(string)] = tool
	}
	require.Len(t, byName, 3)

	ac := byName["bedroomAC"]
	require.NotNil(t, ac)
	assert.Equal(t, "The Tool to control air conditioner", ac["description"])

	schema := ac["inputSchema"].(map[string]interface{})
	assert.Equal(t, "object", schema["type"])
	assert.ElementsMatch(t, []interface{}{"commandTarget", "commandType"}, schema["required"])
	assert.Contains(t, schema["properties"], "commandOfTempset")
}

func TestToolServerCall(t *testing.T) {
	inv := &countingInvoker{}
	s := newTestToolServer(t, inv, 2)

	reply := rpc(t, s, `{"jsonrpc": "2.0", "id": "a", "method": "tools/call", "params": {"name": "tv", "arguments": {"commandOfPowerchange": "turnOn", "commandType": "power"}}}`)
	assert.Equal(t, "a", reply["id"])
	assert.JSONEq(t, `{"commandType": "power", "commandOfPowerchange": "turnOn", "function_output": {"success": "called tv"}}`, callText(t, reply))

	// the arguments reach the function in declaration order
	require.Len(t, inv.calls, 1)
	assert.Equal(t, devctl.Args{
		{Key: "commandType", Value: "power"},
		{Key: "commandOfPowerchange", Value: "turnOn"},
	}, inv.calls[0].args)

	reply = rpc(t, s, `{"jsonrpc": "2.0", "id": "b", "method": "tools/call", "params": {"name": "fan", "arguments": {"commandType": "power"}}}`)
	assert.JSONEq(t, `{"commandType": "power", "function_output": {"error": "The fan is unplugged"}}`, callText(t, reply))

	reply = rpc(t, s, `{"jsonrpc": "2.0", "id": "c", "method": "tools/call", "params": {"name": "bedroomAC"}}`)
	assert.JSONEq(t, `{"function_output": {"success": "called bedroomAC"}}`, callText(t, reply))
}

func TestToolServerCallReplacesOutputArgument(t *testing.T) {
	s := newTestToolServer(t, &countingInvoker{}, 2)

	reply := rpc(t, s, `{"jsonrpc": "2.0", "id": 4, "method": "tools/call", "params": {"name": "tv", "arguments": {"commandType": "power", "function_output": "forged"}}}`)
	assert.JSONEq(t, `{"commandType": "power", "function_output": {"success": "called tv"}}`, callText(t, reply))
}

func TestToolServerErrorsKeepRequestID(t *testing.T) {
	inv := &countingInvoker{}
	s := newTestToolServer(t, inv, 2)

	tests := []struct {
		name string
		msg  string
	}{
		{"unknown tool", `{"jsonrpc": "2.0", "id": 5, "method": "tools/call", "params": {"name": "toaster", "arguments": {}}}`},
		{"malformed params", `{"jsonrpc": "2.0", "id": 7, "method": "tools/call", "params": "tv"}`},
		{"unknown method", `{"jsonrpc": "2.0", "id": 9, "method": "devices/list"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(tt.msg), &sent))

			reply := rpc(t, s, tt.msg)
			assert.Equal(t, sent["id"], reply["id"])
			assert.NotNil(t, reply["error"])
			assert.Nil(t, reply["result"])
		})
	}

	assert.Empty(t, inv.calls)
}

func TestToolServerBoundsConcurrency(t *testing.T) {
	inv := &countingInvoker{delay: 20 * time.Millisecond}
	s := newTestToolServer(t, inv, 3)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf(`{"jsonrpc": "2.0", "id": %d, "method": "tools/call", "params": {"name": "tv", "arguments": {}}}`, i)
			reply := s.mcp.HandleMessage(context.Background(), json.RawMessage(msg))
			assert.NotNil(t, reply)
		}(i)
	}
	wg.Wait()

	assert.Len(t, inv.calls, 12)
	assert.LessOrEqual(t, atomic.LoadInt32(&inv.maxSeen), int32(3))
}
