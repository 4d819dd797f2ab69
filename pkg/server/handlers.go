package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vctt94/uno-go/pkg/uno"
)

// MinClientVersion is advertised to clients performing a version check
// so outdated terminals can refuse to start.
const MinClientVersion = "3.0.0"

type createRequest struct {
	Count int `json:"count"`
}

type joinRequest struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type playRequest struct {
	UID   string `json:"uid"`
	Card  string `json:"card"`
	Color string `json:"color,omitempty"`
}

type statusRequest struct {
	UID string `json:"uid"`
}

type banRequest struct {
	IP     string `json:"ip"`
	Secret string `json:"secret"`
}

// statusResponse inlines the snapshot fields next to the status/reason
// envelope every endpoint shares.
type statusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	*GameSnapshot
}

// Router builds the HTTP surface: JSON POST endpoints mirroring the
// polling protocol, wrapped in CORS and ban-list middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	// OPTIONS is registered alongside POST so the CORS middleware sees
	// preflight requests instead of mux's 405 handler.
	r.HandleFunc("/create", s.handleCreate).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/join", s.handleJoin).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/play", s.handlePlay).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ban_ip", s.handleBanIP).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/unban_ip", s.handleUnbanIP).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.Use(s.corsMiddleware, s.banMiddleware)
	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) banMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := remoteIP(r)
		s.banMu.RLock()
		blocked := s.banned[ip]
		s.banMu.RUnlock()
		if blocked {
			s.log.Warnf("Blocked banned IP: %s", ip)
			writeJSON(w, http.StatusForbidden, map[string]string{
				"status": "fail", "reason": "IP banned",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		failure(w, "Invalid player count")
		return
	}

	id, err := s.CreateRoom(req.Count)
	if err != nil {
		failure(w, reasonFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "id": id})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" || req.Username == "" {
		failure(w, "Missing id or username")
		return
	}

	uid, err := s.JoinRoom(req.ID, req.Username)
	if err != nil {
		failure(w, reasonFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "uid": uid})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UID == "" || req.Card == "" {
		failure(w, "Missing uid or card")
		return
	}

	if err := s.Play(req.UID, uno.Card(req.Card), uno.Color(req.Color)); err != nil {
		failure(w, reasonFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UID == "" {
		failure(w, "Missing uid")
		return
	}
	if req.UID == "version_check" {
		writeJSON(w, http.StatusOK, map[string]string{"min_client_version": MinClientVersion})
		return
	}

	snap, err := s.Status(req.UID)
	if err != nil {
		failure(w, reasonFor(err))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", GameSnapshot: snap})
}

func (s *Server) handleBanIP(w http.ResponseWriter, r *http.Request) {
	s.handleBanChange(w, r, true)
}

func (s *Server) handleUnbanIP(w http.ResponseWriter, r *http.Request) {
	s.handleBanChange(w, r, false)
}

func (s *Server) handleBanChange(w http.ResponseWriter, r *http.Request, ban bool) {
	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IP == "" || req.Secret == "" {
		failure(w, "Missing ip or secret")
		return
	}
	if s.cfg.BanSecret == "" || req.Secret != s.cfg.BanSecret {
		s.log.Warnf("Ban list change refused: wrong secret from %s", remoteIP(r))
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"status": "fail", "reason": "Unauthorized",
		})
		return
	}

	s.banMu.Lock()
	if ban {
		s.banned[req.IP] = true
	} else {
		delete(s.banned, req.IP)
	}
	s.banMu.Unlock()

	if ban {
		s.log.Infof("IP banned: %s by %s", req.IP, remoteIP(r))
	} else {
		s.log.Infof("IP unbanned: %s by %s", req.IP, remoteIP(r))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "ip": req.IP})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<h1>UNO server is running</h1>"))
}

// reasonFor maps tagged failures to the wire reason strings clients
// display verbatim.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidIdentity):
		return "Invalid uid"
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrRoomFull):
		return "Room is full"
	case errors.Is(err, ErrGameStarted):
		return "Game has already started"
	case errors.Is(err, ErrInvalidCount):
		return "Invalid player count"
	case errors.Is(err, uno.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, uno.ErrCardNotHeld):
		return "Card not in hand"
	case errors.Is(err, uno.ErrIllegalMove):
		return "Card does not match"
	case errors.Is(err, uno.ErrNotPlaying):
		return "Game is not in progress"
	}
	return err.Error()
}

func failure(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "fail", "reason": reason})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
