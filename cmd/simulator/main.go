package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
)

const defaultPassword = "testpassword123"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:5000"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		authCmd(apiURL, args)
	case "channel":
		channelCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Studyhub Simulator - Development tool for exercising a running server

USAGE:
  simulator <command> [options]

COMMANDS:
  auth      Sign up a user and walk the whole session lifecycle
  channel   Join fake users to a video channel
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:5000)

EXAMPLES:
  # Signup, login, verify, refresh, logout and check the revoked session
  simulator auth

  # Put 5 fake users in channel "physics" and leave them there
  simulator channel --name=physics --count=5

  # Same, but every fake user leaves again afterwards
  simulator channel --name=physics --count=5 --leave`)
}

func newClientOrExit(apiURL string) *APIClient {
	client, err := NewAPIClient(apiURL)
	if err != nil {
		fmt.Printf("Failed to create client: %v\n", err)
		os.Exit(1)
	}
	return client
}

func step(label string, fn func() error) {
	fmt.Printf("%s... ", label)
	if err := fn(); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func authCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	useEmail := fs.Bool("email", false, "Log in with the email address instead of the username")
	fs.Parse(args)

	client := newClientOrExit(apiURL)

	fmt.Println("=== Studyhub Simulator: Session Lifecycle ===")
	fmt.Println()

	var username, email string
	step("Signing up", func() error {
		var err error
		username, email, err = client.Signup("student", defaultPassword)
		return err
	})
	fmt.Printf("  user: %s <%s>\n", username, email)

	identifier := username
	if *useEmail {
		identifier = email
	}

	step("Rejecting duplicate signup", func() error {
		dup := map[string]string{"username": username, "email": email, "password": defaultPassword}
		return client.do(http.MethodPost, "/signup", dup, http.StatusBadRequest, nil, "duplicate signup")
	})

	step("Logging in as "+identifier, func() error {
		_, err := client.Login(identifier, defaultPassword)
		return err
	})

	step("Verifying access token", func() error {
		id, err := client.VerifyToken()
		if err != nil {
			return err
		}
		if id.Username != username {
			return fmt.Errorf("token asserts %q, want %q", id.Username, username)
		}
		return nil
	})

	step("Loading profile", func() error {
		_, err := client.Profile()
		return err
	})

	step("Refreshing access token", client.Refresh)

	// Keep the cookies so the revoked session can be replayed after logout.
	replay := newClientOrExit(apiURL)
	step("Logging in a second session", func() error {
		_, err := replay.Login(identifier, defaultPassword)
		return err
	})

	step("Logging out the second session", func() error {
		cookies := replay.httpClient.Jar.Cookies(mustURL(apiURL))
		if err := replay.Logout(); err != nil {
			return err
		}
		replay.httpClient.Jar.SetCookies(mustURL(apiURL), cookies)
		return nil
	})

	step("Replaying the revoked access token", func() error {
		return replay.ExpectStatus(http.MethodGet, "/verify-token", http.StatusForbidden)
	})

	step("Replaying the revoked refresh token", func() error {
		return replay.ExpectStatus(http.MethodPost, "/refresh", http.StatusForbidden)
	})

	step("Logging out", client.Logout)

	step("Calling a protected route without cookies", func() error {
		return client.ExpectStatus(http.MethodGet, "/profile", http.StatusUnauthorized)
	})

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  SESSION LIFECYCLE OK")
	fmt.Println("=========================================")
}

func channelCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("channel", flag.ExitOnError)
	name := fs.String("name", "", "Channel name (required)")
	count := fs.Int("count", 3, "Number of fake users to join")
	role := fs.String("role", "publisher", "RTC role for the fake users (publisher or subscriber)")
	leave := fs.Bool("leave", false, "Leave the channel again after joining")
	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: --name is required")
		fmt.Println("\nUsage: simulator channel --name=physics [--count=3]")
		os.Exit(1)
	}
	if *count < 1 {
		fmt.Println("Error: --count must be at least 1")
		os.Exit(1)
	}

	fmt.Printf("Joining %d players to channel %s...\n\n", *count, *name)

	clients := make([]*APIClient, 0, *count)
	for i := 0; i < *count; i++ {
		client := newClientOrExit(apiURL)

		username, _, err := client.Signup(fmt.Sprintf("viewer%d", i+1), defaultPassword)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i+1, *count, err)
			continue
		}
		if _, err := client.Login(username, defaultPassword); err != nil {
			fmt.Printf("  [%d/%d] FAILED to log in: %v\n", i+1, *count, err)
			continue
		}
		token, err := client.GenerateToken(*name, *role)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to join: %v\n", i+1, *count, err)
			continue
		}

		clients = append(clients, client)
		fmt.Printf("  [%d/%d] %s joined (uid %d)\n", i+1, *count, token.Username, token.UID)
	}

	if len(clients) == 0 {
		fmt.Println("\nNo players joined.")
		os.Exit(1)
	}

	members, err := clients[0].ChannelUsers(*name)
	if err != nil {
		fmt.Printf("Failed to list channel users: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nChannel %s has %d member(s):\n", *name, len(members))
	for _, m := range members {
		fmt.Printf("  %d  %-20s joined %s\n", m.UserID, m.DisplayName, m.JoinedAt.Format("15:04:05"))
	}

	if !*leave {
		return
	}

	fmt.Println()
	for i, client := range clients {
		if err := client.LeaveChannel(*name); err != nil {
			fmt.Printf("  [%d/%d] FAILED to leave: %v\n", i+1, len(clients), err)
		}
	}

	remaining, err := clients[0].ChannelUsers(*name)
	if err != nil {
		fmt.Printf("Failed to list channel users: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("All players left, %d member(s) remain.\n", len(remaining))
}
