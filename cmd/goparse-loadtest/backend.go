package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/MrEthical07/goParse/command"
	"github.com/MrEthical07/goParse/rest"
	"github.com/google/uuid"
)

// fakeBackend answers log-in and current-user requests for any user whose
// password is "password".
type fakeBackend struct {
	appID string

	mu       sync.RWMutex
	sessions map[string]string // session token -> username
}

func newFakeBackend(appID string) *fakeBackend {
	return &fakeBackend{appID: appID, sessions: make(map[string]string)}
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(rest.HeaderApplicationID) != b.appID {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/parse/") {
	case "login":
		q := r.URL.Query()
		if q.Get("password") != "password" {
			writeJSON(w, http.StatusNotFound, map[string]any{"code": 101, "error": "Invalid username/password."})
			return
		}
		token := uuid.NewString()
		if r.Header.Get(command.HeaderRevocableSession) == "1" {
			token = "r:" + token
		}
		b.mu.Lock()
		b.sessions[token] = q.Get("username")
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"objectId":     "id-" + q.Get("username"),
			"username":     q.Get("username"),
			"sessionToken": token,
		})
	case "users/me":
		b.mu.RLock()
		name, ok := b.sessions[r.Header.Get(rest.HeaderSessionToken)]
		b.mu.RUnlock()
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": 209, "error": "Invalid session token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"objectId": "id-" + name, "username": name})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"code": 1, "error": "unknown route"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
