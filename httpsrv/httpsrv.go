// Package httpsrv is the parse-as-a-service HTTP layer: upload a compiled
// grammar, then drive parses of request bodies against it, with a websocket
// feed of the callback trace for any in-flight parse. Structurally grounded
// in server/endpoints.go and server/token.go: chi routing, JSON results,
// bearer-JWT auth, panic-to-500 recovery.
package httpsrv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/sablefin/parsevm/engine"
	"github.com/sablefin/parsevm/store"
)

// Server is the parse-as-a-service HTTP API. Create one with New, mount
// Router() on an http.Server, and Shutdown() when done.
type Server struct {
	store       *store.Store
	jwtSecret   []byte
	apiKeyHash  []byte
	unauthDelay time.Duration

	router chi.Router

	mu     sync.Mutex
	parses map[uuid.UUID]*liveParse
}

// liveParse is one in-flight (or completed) parse: the engine state driving
// it, and the set of websocket subscribers listening for its trace events.
type liveParse struct {
	grammarID uuid.UUID
	events    chan Event
	done      chan struct{}
	mu        sync.Mutex
	log       []Event
}

// Event is one callback firing during a parse, as pushed to the live
// websocket feed and returned in the POST /parses response body.
type Event struct {
	Kind   string `json:"kind"` // start_rule | terminal | end_rule | error_char | error_terminal
	Offset string `json:"offset,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// New constructs a Server backed by st, using secret to both sign/verify
// JWTs and to verify the single configured API key (bcrypt-hashed, following
// server/server.go's CreateUser password hashing).
func New(st *store.Store, jwtSecret []byte, apiKeyHash []byte, unauthDelay time.Duration) *Server {
	s := &Server{
		store:       st,
		jwtSecret:   jwtSecret,
		apiKeyHash:  apiKeyHash,
		unauthDelay: unauthDelay,
		parses:      map[uuid.UUID]*liveParse{},
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the http.Handler to mount.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)

	r.Route("/grammars", func(r chi.Router) {
		r.With(s.requireAuth).Post("/", s.handleUploadGrammar)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/parses", s.handlePostParse)
			r.Get("/parses/{parseID}/events", s.handleParseEvents)
		})
	})
	r.Post("/token", s.handleIssueToken)

	return r
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("panic: %v\n%s", p, debug.Stack()))
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// handleIssueToken exchanges the configured API key for a short-lived JWT,
// the same password-like-secret signing scheme server/token.go uses except
// there is exactly one principal (the API key holder) rather than a user
// table.
func (s *Server) handleIssueToken(w http.ResponseWriter, req *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if err := bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(body.APIKey)); err != nil {
		time.Sleep(s.unauthDelay)
		writeError(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	claims := jwt.MapClaims{
		"iss": "parsevm",
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": "api-key-holder",
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString(s.jwtSecret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not sign token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}

// requireAuth is chi middleware enforcing a valid Bearer JWT, following
// server/token.go's getJWT/validateAndLookupJWTUser split.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req)
		if err != nil {
			time.Sleep(s.unauthDelay)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		_, err = jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer("parsevm"), jwt.WithLeeway(time.Minute))
		if err != nil {
			time.Sleep(s.unauthDelay)
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, req)
	})
}

func bearerToken(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))
	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// handleUploadGrammar stores a compiled-grammar container blob, deduping by
// content hash.
func (s *Server) handleUploadGrammar(w http.ResponseWriter, req *http.Request) {
	raw, err := readLimitedBody(req, 64<<20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.PutGrammar(raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("INFO  cached grammar %s (%s)", rec.ID, humanize.Bytes(uint64(len(rec.RawBytes))))
	writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID.String(), "hash": rec.Hash})
}

// handlePostParse runs the request body through a fresh engine.ParseState
// bound to the named grammar, returning the full callback trace as JSON
// (also pushed live to any websocket subscriber of this parse ID).
func (s *Server) handlePostParse(w http.ResponseWriter, req *http.Request) {
	grammarID, err := uuid.Parse(chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed grammar id")
		return
	}

	handle, err := s.store.LoadGrammar(grammarID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	body, err := readLimitedBody(req, 16<<20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	parseID := uuid.New()
	lp := &liveParse{grammarID: grammarID, events: make(chan Event, 64), done: make(chan struct{})}
	s.mu.Lock()
	s.parses[parseID] = lp
	s.mu.Unlock()

	ps := engine.NewParseState(handle.Grammar, lp.callbacks(), 0, 0)
	status, parseErr := ps.Feed(body)
	if status == engine.StatusOK {
		ps.Finish()
	}
	close(lp.done)

	finalStatus := status.String()
	if parseErr != nil {
		finalStatus = parseErr.Error()
	}
	if _, err := s.store.LogParseAttempt(grammarID, int64(len(body)), finalStatus); err != nil {
		log.Printf("WARN  could not log parse attempt %s: %s", parseID, err)
	}
	log.Printf("INFO  parse %s against grammar %s: %s (%s)", parseID, grammarID, finalStatus, humanize.Bytes(uint64(len(body))))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"parse_id": parseID.String(),
		"status":   status.String(),
		"events":   lp.snapshot(),
	})
}

// handleParseEvents upgrades to a websocket and streams Events for parseID
// as they happen (or replays the full log immediately if the parse has
// already finished by the time the client connects).
func (s *Server) handleParseEvents(w http.ResponseWriter, req *http.Request) {
	parseID, err := uuid.Parse(chi.URLParam(req, "parseID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed parse id")
		return
	}

	s.mu.Lock()
	lp, ok := s.parses[parseID]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "no such parse")
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for _, ev := range lp.snapshot() {
		if conn.WriteJSON(ev) != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-lp.events:
			if !ok {
				return
			}
			if conn.WriteJSON(ev) != nil {
				return
			}
		case <-lp.done:
			return
		case <-req.Context().Done():
			return
		}
	}
}

func (lp *liveParse) callbacks() engine.Callbacks {
	emit := func(ev Event) {
		lp.mu.Lock()
		lp.log = append(lp.log, ev)
		lp.mu.Unlock()
		select {
		case lp.events <- ev:
		default:
		}
	}
	return engine.Callbacks{
		StartRule: func(s *engine.ParseState) { emit(Event{Kind: "start_rule", Offset: s.Offset.String()}) },
		EndRule:   func(s *engine.ParseState) { emit(Event{Kind: "end_rule", Offset: s.Offset.String()}) },
		Terminal: func(s *engine.ParseState, term engine.Terminal) {
			emit(Event{Kind: "terminal", Offset: term.Offset.String()})
		},
		ErrorChar: func(s *engine.ParseState, b byte) {
			emit(Event{Kind: "error_char", Offset: s.Offset.String(), Detail: fmt.Sprintf("0x%02x", b)})
		},
		ErrorTerminal: func(s *engine.ParseState, term engine.Terminal) {
			emit(Event{Kind: "error_terminal", Offset: term.Offset.String()})
		},
	}
}

func (lp *liveParse) snapshot() []Event {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	out := make([]Event, len(lp.log))
	copy(out, lp.log)
	return out
}

func readLimitedBody(req *http.Request, max int64) ([]byte, error) {
	req.Body = http.MaxBytesReader(nil, req.Body, max)
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := req.Body.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
	return buf, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown waits up to ctx's deadline for any in-flight parses to finish
// logging, then returns. There is no background worker to stop; parses run
// synchronously on the goroutine that served their HTTP request.
func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}
