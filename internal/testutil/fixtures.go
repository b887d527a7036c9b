package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with unique default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: "user_" + suffix,
		email:    fmt.Sprintf("user_%s@example.com", suffix),
		password: "testpassword123",
	}
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// BuildAndLogin creates the user in the database and logs in with client, so
// its cookie jar carries both tokens afterwards.
func (b *UserBuilder) BuildAndLogin(t *testing.T, ts *TestServer, client *http.Client) *domain.User {
	t.Helper()

	user, password := b.Build(t, ts.DB.DB)

	resp := PostJSON(t, client, ts.URL("/login"), map[string]string{
		"usernameOrEmail": user.Username,
		"password":        password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}
	return user
}

// PdfBuilder inserts document rows directly, bypassing storage and ChatPDF.
type PdfBuilder struct {
	owner *domain.User
	name  string
}

func NewPdfBuilder(owner *domain.User) *PdfBuilder {
	return &PdfBuilder{owner: owner, name: "notes.pdf"}
}

func (b *PdfBuilder) WithName(name string) *PdfBuilder {
	b.name = name
	return b
}

func (b *PdfBuilder) Build(t *testing.T, db *gorm.DB) *domain.Pdf {
	t.Helper()

	pdf := &domain.Pdf{
		UserID:   b.owner.ID,
		S3ID:     "uploads/" + uuid.NewString() + ".pdf",
		SourceID: "src_" + uuid.NewString()[:8],
		Name:     b.name,
	}
	if err := db.Create(pdf).Error; err != nil {
		t.Fatalf("failed to create pdf: %v", err)
	}
	return pdf
}

// PostJSON sends body as JSON with client.
func PostJSON(t *testing.T, client *http.Client, url string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	resp, err := client.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("request to %s failed: %v", url, err)
	}
	return resp
}

// Get issues a GET with client.
func Get(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("request to %s failed: %v", url, err)
	}
	return resp
}

// FindCookie returns the named cookie set by resp, or nil.
func FindCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
