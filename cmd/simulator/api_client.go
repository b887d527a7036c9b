package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// APIClient is one simulated browser session: session cookies live in its jar.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client with its own cookie jar
func NewAPIClient(baseURL string) (*APIClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Response types matching backend

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Identity struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

type ChannelMember struct {
	UserID      uint      `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type RTCToken struct {
	AgoraToken string `json:"agoraToken"`
	UID        uint   `json:"uid"`
	Username   string `json:"username"`
}

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Body)
}

// Signup creates an account named baseName plus a random suffix and returns its credentials.
func (c *APIClient) Signup(baseName, password string) (username, email string, err error) {
	username = fmt.Sprintf("%s_%d", baseName, time.Now().UnixNano()%100000)
	email = username + "@example.com"

	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	if err := c.do(http.MethodPost, "/signup", body, http.StatusCreated, nil, "signup"); err != nil {
		return "", "", err
	}
	return username, email, nil
}

// Login stores the session cookies in the client's jar
func (c *APIClient) Login(usernameOrEmail, password string) (*User, error) {
	body := map[string]string{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}
	var result struct {
		User User `json:"user"`
	}
	if err := c.do(http.MethodPost, "/login", body, http.StatusOK, &result, "login"); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (c *APIClient) Logout() error {
	return c.do(http.MethodPost, "/logout", nil, http.StatusOK, nil, "logout")
}

func (c *APIClient) Refresh() error {
	return c.do(http.MethodPost, "/refresh", nil, http.StatusOK, nil, "refresh")
}

func (c *APIClient) VerifyToken() (*Identity, error) {
	var result struct {
		User Identity `json:"user"`
	}
	if err := c.do(http.MethodGet, "/verify-token", nil, http.StatusOK, &result, "verify token"); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (c *APIClient) Profile() (*User, error) {
	var user User
	if err := c.do(http.MethodGet, "/profile", nil, http.StatusOK, &user, "profile"); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *APIClient) GenerateToken(channelName, role string) (*RTCToken, error) {
	body := map[string]string{"channelName": channelName, "role": role}
	var token RTCToken
	if err := c.do(http.MethodPost, "/video/generate-token", body, http.StatusOK, &token, "generate token"); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *APIClient) ChannelUsers(channelName string) ([]ChannelMember, error) {
	var members []ChannelMember
	path := "/video/channel-users?channelName=" + url.QueryEscape(channelName)
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &members, "channel users"); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *APIClient) LeaveChannel(channelName string) error {
	body := map[string]string{"channelName": channelName}
	return c.do(http.MethodPost, "/video/leave-channel", body, http.StatusOK, nil, "leave channel")
}

// ExpectStatus issues a bodiless request and reports whether the server answered with want.
func (c *APIClient) ExpectStatus(method, path string, want int) error {
	return c.do(method, path, nil, want, nil, method+" "+path)
}

func (c *APIClient) do(method, path string, body interface{}, wantStatus int, out interface{}, op string) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
