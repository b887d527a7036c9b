package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoHandler_GenerateToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := ts.NewClient(t)
	user := testutil.NewUserBuilder().WithUsername("videouser").BuildAndLogin(t, ts, client)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedToken  string
	}{
		{
			name:           "default role is publisher",
			request:        map[string]string{"channelName": "study-room"},
			expectedStatus: http.StatusOK,
			expectedToken:  "rtc-study-room-publisher",
		},
		{
			name:           "subscriber role",
			request:        map[string]string{"channelName": "study-room", "role": "subscriber"},
			expectedStatus: http.StatusOK,
			expectedToken:  "rtc-study-room-subscriber",
		},
		{
			name:           "missing channel",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, client, ts.URL("/video/generate-token"), tt.request)
			defer resp.Body.Close()

			require.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var body struct {
				AgoraToken string `json:"agoraToken"`
				UID        uint   `json:"uid"`
				Username   string `json:"username"`
			}
			testutil.AssertJSONResponse(t, resp, &body)
			assert.Equal(t, tt.expectedToken, body.AgoraToken)
			assert.Equal(t, user.ID, body.UID)
			assert.Equal(t, "videouser", body.Username)
		})
	}

	t.Run("user deleted after login", func(t *testing.T) {
		other := ts.NewClient(t)
		ghost := testutil.NewUserBuilder().BuildAndLogin(t, ts, other)
		require.NoError(t, ts.DB.DB.Delete(&domain.User{}, ghost.ID).Error)

		resp := testutil.PostJSON(t, other, ts.URL("/video/generate-token"), map[string]string{"channelName": "study-room"})
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "User not found")
	})
}

func TestVideoHandler_ChannelMembership(t *testing.T) {
	ts := testutil.NewTestServer(t)

	aliceClient := ts.NewClient(t)
	alice := testutil.NewUserBuilder().WithUsername("alice").BuildAndLogin(t, ts, aliceClient)
	bobClient := ts.NewClient(t)
	bob := testutil.NewUserBuilder().WithUsername("bob").BuildAndLogin(t, ts, bobClient)

	for _, c := range []*http.Client{aliceClient, bobClient} {
		resp := testutil.PostJSON(t, c, ts.URL("/video/generate-token"), map[string]string{"channelName": "chem"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	listMembers := func(t *testing.T) []domain.ChannelMember {
		t.Helper()
		resp := testutil.Get(t, aliceClient, ts.URL("/video/channel-users?channelName=chem"))
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var members []domain.ChannelMember
		testutil.AssertJSONResponse(t, resp, &members)
		return members
	}

	members := listMembers(t)
	require.Len(t, members, 2)
	assert.Equal(t, alice.ID, members[0].UserID)
	assert.Equal(t, "alice", members[0].DisplayName)
	assert.Equal(t, bob.ID, members[1].UserID)

	t.Run("missing channel name", func(t *testing.T) {
		resp := testutil.Get(t, aliceClient, ts.URL("/video/channel-users"))
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	})

	t.Run("cannot remove someone else", func(t *testing.T) {
		resp := testutil.PostJSON(t, aliceClient, ts.URL("/video/leave-channel"), map[string]interface{}{
			"channelName": "chem",
			"userId":      bob.ID,
		})
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "Forbidden")
		assert.Len(t, listMembers(t), 2)
	})

	t.Run("leave removes the caller", func(t *testing.T) {
		resp := testutil.PostJSON(t, bobClient, ts.URL("/video/leave-channel"), map[string]interface{}{
			"channelName": "chem",
		})
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		testutil.AssertJSONResponse(t, resp, &body)
		assert.True(t, body["success"])

		members := listMembers(t)
		require.Len(t, members, 1)
		assert.Equal(t, alice.ID, members[0].UserID)
	})
}

func TestVideoHandler_RequiresAuth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/video/generate-token"},
		{http.MethodGet, "/video/channel-users?channelName=x"},
		{http.MethodPost, "/video/leave-channel"},
		{http.MethodGet, "/video/channel-events?channelName=x"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL(tc.path), nil)
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Unauthorized")
		})
	}
}
