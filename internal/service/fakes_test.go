package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dom/studyhub/internal/domain"
)

// memUserRepo mimics the unique indexes on users.
type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
	err    error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *memUserRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == identifier || u.Email == identifier })
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type memPdfRepo struct {
	mu        sync.Mutex
	nextID    uint
	pdfs      []*domain.Pdf
	createErr error
}

func (r *memPdfRepo) Create(_ context.Context, pdf *domain.Pdf) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	pdf.ID = r.nextID
	cp := *pdf
	r.pdfs = append(r.pdfs, &cp)
	return nil
}

func (r *memPdfRepo) ListByUser(_ context.Context, userID uint) ([]*domain.Pdf, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Pdf, 0)
	for _, p := range r.pdfs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPdfRepo) GetByS3ID(_ context.Context, s3ID string) (*domain.Pdf, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pdfs {
		if p.S3ID == s3ID {
			return p, nil
		}
	}
	return nil, domain.ErrPdfNotFound
}

func (r *memPdfRepo) GetBySourceID(_ context.Context, sourceID string) (*domain.Pdf, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pdfs {
		if p.SourceID == sourceID {
			return p, nil
		}
	}
	return nil, domain.ErrPdfNotFound
}

type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (s *memObjectStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?signed=1", nil
}

func (s *memObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type fakeQA struct {
	received []byte
	sourceID string
	reply    string
	chatErr  error
	addErr   error
	lastChat []domain.ChatMessage
}

func (q *fakeQA) AddFile(_ context.Context, _ string, file io.Reader) (string, error) {
	if q.addErr != nil {
		return "", q.addErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}
	q.received = buf.Bytes()
	return q.sourceID, nil
}

func (q *fakeQA) Chat(_ context.Context, _ string, messages []domain.ChatMessage) (string, error) {
	q.lastChat = messages
	if q.chatErr != nil {
		return "", q.chatErr
	}
	return q.reply, nil
}

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) IssueToken(channelName string, uid uint, role domain.RTCRole) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "rtc:" + channelName + ":" + string(role), nil
}

type failingRevocationStore struct{}

func (failingRevocationStore) Revoke(context.Context, string, time.Time) error {
	return errors.New("redis unavailable")
}

func (failingRevocationStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis unavailable")
}
