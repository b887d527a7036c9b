package testutil

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/google/uuid"
)

// FakeObjectStore keeps uploaded objects in memory.
type FakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{objects: make(map[string][]byte)}
}

func (s *FakeObjectStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *FakeObjectStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://storage.test/" + key + "?expires=" + ttl.String(), nil
}

func (s *FakeObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *FakeObjectStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// FakeDocumentQA hands out a fresh source id per file and answers every chat with Reply.
type FakeDocumentQA struct {
	mu    sync.Mutex
	Reply string
	files map[string][]byte
}

func NewFakeDocumentQA() *FakeDocumentQA {
	return &FakeDocumentQA{Reply: "This document is about testing.", files: make(map[string][]byte)}
}

func (q *FakeDocumentQA) AddFile(_ context.Context, _ string, file io.Reader) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	sourceID := "src_" + uuid.NewString()[:8]
	q.mu.Lock()
	defer q.mu.Unlock()
	q.files[sourceID] = data
	return sourceID, nil
}

func (q *FakeDocumentQA) Chat(_ context.Context, _ string, _ []domain.ChatMessage) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.Reply, nil
}

// FakeRTCIssuer returns a readable token instead of a signed one.
type FakeRTCIssuer struct{}

func (FakeRTCIssuer) IssueToken(channelName string, _ uint, role domain.RTCRole) (string, error) {
	return "rtc-" + channelName + "-" + string(role), nil
}
