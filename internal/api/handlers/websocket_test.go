package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/testutil"
	"github.com/dom/studyhub/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelFeed_StreamsMembership(t *testing.T) {
	ts := testutil.NewTestServer(t)

	watcherClient := ts.NewClient(t)
	watcher := testutil.NewUserBuilder().WithUsername("watcher").BuildAndLogin(t, ts, watcherClient)
	joinerClient := ts.NewClient(t)
	joiner := testutil.NewUserBuilder().WithUsername("joiner").BuildAndLogin(t, ts, joinerClient)

	resp := testutil.PostJSON(t, watcherClient, ts.URL("/video/generate-token"), map[string]string{"channelName": "bio"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	feed := testutil.NewWSClient(t, ts.WebSocketURL("/video/channel-events?channelName=bio"), watcherClient)

	snapshot := feed.ExpectSnapshot(2 * time.Second)
	assert.Equal(t, "bio", snapshot.ChannelName)
	require.Len(t, snapshot.Members, 1)
	assert.Equal(t, watcher.ID, snapshot.Members[0].UserID)

	resp = testutil.PostJSON(t, joinerClient, ts.URL("/video/generate-token"), map[string]string{"channelName": "bio"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	msg := feed.ExpectMessage(websocket.MessageTypeMemberJoined, 2*time.Second)
	var joined domain.ChannelEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &joined))
	assert.Equal(t, joiner.ID, joined.Member.UserID)
	assert.Equal(t, "joiner", joined.Member.DisplayName)

	resp = testutil.PostJSON(t, joinerClient, ts.URL("/video/leave-channel"), map[string]string{"channelName": "bio"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	msg = feed.ExpectMessage(websocket.MessageTypeMemberLeft, 2*time.Second)
	var left domain.ChannelEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &left))
	assert.Equal(t, joiner.ID, left.Member.UserID)

	// Other channels do not leak into this feed.
	resp = testutil.PostJSON(t, joinerClient, ts.URL("/video/generate-token"), map[string]string{"channelName": "math"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	feed.ExpectNoMessage(200 * time.Millisecond)
}

func TestChannelFeed_Rejections(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := ts.NewClient(t)
	testutil.NewUserBuilder().BuildAndLogin(t, ts, client)

	t.Run("missing channel name", func(t *testing.T) {
		_, resp, err := testutil.DialWS(ts.WebSocketURL("/video/channel-events"), client)
		require.Error(t, err)
		require.NotNil(t, resp)
		testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, resp, err := testutil.DialWS(ts.WebSocketURL("/video/channel-events?channelName=bio"), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	})
}
