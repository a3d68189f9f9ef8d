package main

import (
	"sync"

	"golang.org/x/oauth2"
)

const sessionCookieName = "shomabesh_session"

// TokenStore holds each session's Google token. Handlers never touch token
// state directly; everything goes through this interface.
type TokenStore interface {
	Get(sessionID string) (*oauth2.Token, bool)
	Set(sessionID string, tok *oauth2.Token)
	Clear(sessionID string)
}

// MemoryTokenStore keeps tokens in a process-local map. A restart means
// everyone reconnects; nothing durable ever holds user credentials.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]*oauth2.Token)}
}

func (s *MemoryTokenStore) Get(sessionID string) (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[sessionID]
	return tok, ok
}

func (s *MemoryTokenStore) Set(sessionID string, tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = tok
}

func (s *MemoryTokenStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
}
