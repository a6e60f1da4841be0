package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial %s", url)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err, "read frame")
	require.Equal(t, websocket.TextMessage, msgType)
	return string(payload)
}

func doHTTP(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestWebsocketPingPong(t *testing.T) {
	env := newTestEnv(t, false, false)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	assert.Equal(t, "pong", readText(t, conn))
}

func TestWebsocketIgnoresUnknownMessages(t *testing.T) {
	env := newTestEnv(t, false, false)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))

	// the unknown message produced no reply, so the first frame is the pong
	assert.Equal(t, "pong", readText(t, conn))
}

func TestWebsocketBroadcastOnBookAndCancel(t *testing.T) {
	env := newTestEnv(t, false, false)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	first := dialWS(t, ts)
	second := dialWS(t, ts)

	resp := doHTTP(t, ts, http.MethodPut, "/api/appointments/1",
		`{"interview":{"student":"Archie Cohen","interviewer":1}}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	wantBooked := `{"type":"SET_INTERVIEW","id":1,"interview":{"student":"Archie Cohen","interviewer":1}}`
	assert.Equal(t, wantBooked, readText(t, first))
	assert.Equal(t, wantBooked, readText(t, second))

	resp = doHTTP(t, ts, http.MethodDelete, "/api/appointments/1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	wantCleared := `{"type":"SET_INTERVIEW","id":1,"interview":null}`
	assert.Equal(t, wantCleared, readText(t, first))
	assert.Equal(t, wantCleared, readText(t, second))
}

func TestWebsocketPongStaysPrivate(t *testing.T) {
	env := newTestEnv(t, false, false)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	pinger := dialWS(t, ts)
	watcher := dialWS(t, ts)

	require.NoError(t, pinger.WriteMessage(websocket.TextMessage, []byte("ping")))
	assert.Equal(t, "pong", readText(t, pinger))

	resp := doHTTP(t, ts, http.MethodPut, "/api/appointments/2",
		`{"interview":{"student":"Joan Blige","interviewer":2}}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// the watcher never saw the pinger's pong: its first frame is the broadcast
	want := `{"type":"SET_INTERVIEW","id":2,"interview":{"student":"Joan Blige","interviewer":2}}`
	assert.Equal(t, want, readText(t, watcher))
}

func TestWebsocketSilentOnFailedWrite(t *testing.T) {
	env := newTestEnv(t, false, true)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)

	resp := doHTTP(t, ts, http.MethodPut, "/api/appointments/1",
		`{"interview":{"student":"Archie Cohen","interviewer":1}}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))

	// nothing was broadcast for the failed write, so the pong arrives first
	assert.Equal(t, "pong", readText(t, conn))
}

func TestWebsocketSurvivesClientDisconnect(t *testing.T) {
	env := newTestEnv(t, false, false)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	gone := dialWS(t, ts)
	stay := dialWS(t, ts)

	require.NoError(t, gone.Close())
	time.Sleep(50 * time.Millisecond)

	resp := doHTTP(t, ts, http.MethodPut, "/api/appointments/3",
		`{"interview":{"student":"Rhoda Hall","interviewer":1}}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	want := `{"type":"SET_INTERVIEW","id":3,"interview":{"student":"Rhoda Hall","interviewer":1}}`
	assert.Equal(t, want, readText(t, stay))
}
