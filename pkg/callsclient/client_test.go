package callsclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		requests = append(requests, rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return New(&Config{BaseURL: srv.URL, AppID: "app", AppSecret: "secret"}), &requests
}

func ptr(s string) *string { return &s }

func TestNewSessionWithOffer(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusCreated, `{"sessionId":"S1","sessionDescription":{"type":"answer","sdp":"answer-sdp"}}`)

	sid, answer, err := c.NewSession(context.Background(), ptr("offer-sdp"))
	require.NoError(t, err)
	assert.Equal(t, "S1", sid)
	require.NotNil(t, answer)
	assert.Equal(t, "answer-sdp", *answer)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/apps/app/sessions/new", req.Path)
	assert.Equal(t, "Bearer secret", req.Auth)
	assert.Equal(t, map[string]any{"sdp": "offer-sdp", "type": "offer"}, req.Body["sessionDescription"])
}

func TestNewSessionWithoutOffer(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusCreated, `{"sessionId":"S2"}`)

	sid, answer, err := c.NewSession(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "S2", sid)
	assert.Nil(t, answer)
	assert.NotContains(t, (*reqs)[0].Body, "sessionDescription")
}

func TestNewSessionMissingID(t *testing.T) {
	c, _ := newTestServer(t, http.StatusCreated, `{}`)

	_, _, err := c.NewSession(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSessionID)
}

func TestAddTracksLocal(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"sessionDescription":{"type":"answer","sdp":"published"}}`)

	sdp, err := c.AddTracks(context.Background(), "S1", ptr("x"), []Track{{Mid: ptr("0"), TrackName: ptr("cam")}}, nil)
	require.NoError(t, err)
	require.NotNil(t, sdp)
	assert.Equal(t, "published", *sdp)

	req := (*reqs)[0]
	assert.Equal(t, "/apps/app/sessions/S1/tracks/new", req.Path)
	assert.Equal(t, []any{map[string]any{"location": "local", "mid": "0", "trackName": "cam"}}, req.Body["tracks"])
}

func TestAddTracksRemote(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"requiresImmediateRenegotiation":true,"sessionDescription":{"type":"offer","sdp":"relay"}}`)

	sdp, err := c.AddTracks(context.Background(), "S2", nil, []Track{{Mid: ptr("0"), TrackName: ptr("cam")}}, ptr("S1"))
	require.NoError(t, err)
	assert.Equal(t, "relay", *sdp)

	req := (*reqs)[0]
	assert.NotContains(t, req.Body, "sessionDescription")
	assert.Equal(t, []any{map[string]any{"location": "remote", "mid": "0", "trackName": "cam", "sessionId": "S1"}}, req.Body["tracks"])
}

func TestRenegotiate(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{}`)

	require.NoError(t, c.Renegotiate(context.Background(), "S1", "local"))

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/apps/app/sessions/S1/renegotiate", req.Path)
	assert.Equal(t, map[string]any{"sdp": "local", "type": "answer"}, req.Body["sessionDescription"])
}

func TestNewDataChannel(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"dataChannels":[{"id":7,"dataChannelName":"input"}]}`)

	id, err := c.NewDataChannel(context.Background(), "HOST", ptr("S2"), "input")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, uint32(7), *id)

	req := (*reqs)[0]
	assert.Equal(t, "/apps/app/sessions/HOST/datachannels/new", req.Path)
	assert.Equal(t, []any{map[string]any{"location": "remote", "sessionId": "S2", "dataChannelName": "input"}}, req.Body["dataChannels"])
}

func TestAPIError(t *testing.T) {
	c, _ := newTestServer(t, http.StatusBadRequest, `{"errorCode":"invalid_sdp","errorDescription":"bad offer"}`)

	_, _, err := c.NewSession(context.Background(), ptr("garbage"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_sdp", apiErr.Code)
}

func TestAPIErrorInSuccessfulResponse(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{"errorCode":"not_found","errorDescription":"no such session"}`)

	err := c.Renegotiate(context.Background(), "S9", "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "not_found", apiErr.Code)
}
