package core

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server is the HTTP boundary described in spec §4.7: record
// submission/query, witness issuance, attestation query, ping, status. It
// owns the DAG, witness store, and rate limiter — the bridge only borrows
// the DAG.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	identity   *Identity
	dag        *LocalDAG
	witnesses  *WitnessStore
	limiter    *RateLimiter
	nodeType   NodeType
	port       int
	log        *logrus.Entry
}

// NewServer wires a Server from a fully constructed Container.
func NewServer(c *Container, addr string) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		identity:  c.Identity,
		dag:       c.DAG,
		witnesses: c.Witnesses,
		limiter:   c.Limiter,
		nodeType:  ParseNodeType(c.Config.Server.NodeType),
		port:      c.Config.Server.Port,
		log:       Logger("elara.server"),
	}
	s.routes()
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s
}

func (s *Server) routes() {
	s.router.Use(s.loggingMiddleware)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)
	s.router.HandleFunc("/records", s.handleSubmitRecord).Methods(http.MethodPost)
	s.router.HandleFunc("/records", s.handleQueryRecords).Methods(http.MethodGet)
	s.router.HandleFunc("/witness", s.handleWitness).Methods(http.MethodPost)
	s.router.HandleFunc("/attestations", s.handleAttestations).Methods(http.MethodGet)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("request")
		next.ServeHTTP(w, r)
	})
}

// Start serves HTTP traffic. It blocks until the listener is closed.
func (s *Server) Start() error { return s.httpServer.ListenAndServe() }

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown() error {
	return s.httpServer.Shutdown(context.Background())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}

// statusForErr maps a *Failure's Kind to the HTTP status spec §7 assigns it.
// A plain, non-Failure error (which should not occur at these call sites,
// but might from a library dependency) falls back to 500.
func statusForErr(err error) int {
	var f *Failure
	if errors.As(err, &f) {
		switch f.Kind {
		case ErrInput:
			return http.StatusBadRequest
		case ErrAdmission:
			return http.StatusTooManyRequests
		case ErrTransport:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimited checks the boundary rate limiter for the request's peer IP
// before any parsing happens, per spec §4.7.
func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) bool {
	if !s.limiter.Allow(peerIP(r)) {
		err := Fail(ErrAdmission, "rate limited")
		writeError(w, statusForErr(err), err.Message)
		return true
	}
	return false
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identity":    s.identity.IdentityHash,
		"entity_type": s.identity.EntityType,
		"dag_records": s.dag.Len(),
		"port":        s.port,
		"node_type":   s.nodeType,
		"public_key":  hex.EncodeToString(s.identity.PrimaryPublicKey),
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pong":     true,
		"identity": s.identity.IdentityHash,
		"ts":       time.Now().Unix(),
	})
}

func (s *Server) handleSubmitRecord(w http.ResponseWriter, r *http.Request) {
	if s.rateLimited(w, r) {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		inputErr := Fail(ErrInput, "empty body")
		writeError(w, statusForErr(inputErr), inputErr.Message)
		return
	}

	rec, err := RecordFromBytes(body)
	if err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}

	if _, err := s.dag.Insert(rec, true); err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accepted":  true,
		"record_id": rec.ID,
	})
}

func (s *Server) handleQueryRecords(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if v := r.URL.Query().Get("since"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			since = n
		}
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	recs := s.dag.Since(since, limit)
	out := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		wire, err := rec.ToBytes()
		if err != nil {
			continue
		}
		out = append(out, map[string]interface{}{
			"record_id":          rec.ID,
			"wire_hex":           hex.EncodeToString(wire),
			"timestamp":          rec.Timestamp.Unix(),
			"creator_public_key": hex.EncodeToString(rec.CreatorPublicKey),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": out})
}

func (s *Server) handleWitness(w http.ResponseWriter, r *http.Request) {
	if s.rateLimited(w, r) {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		inputErr := Fail(ErrInput, "empty body")
		writeError(w, statusForErr(inputErr), inputErr.Message)
		return
	}

	rec, err := RecordFromBytes(body)
	if err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}
	ok, err := rec.Verify()
	if err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}
	if !ok {
		verifyErr := Fail(ErrVerify, "creator signature verification failed")
		writeError(w, statusForErr(verifyErr), verifyErr.Message)
		return
	}

	signable, err := rec.SignableBytes()
	if err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}

	sig, err := s.identity.Sign(signable)
	if err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}
	// The server never modifies nor re-signs the submitted record — only
	// its own counter-signature is produced and persisted. The secondary
	// signature, when produced, is stored on the attestation as a local
	// audit artifact (see ValidationRecord.Verify's doc comment); it is
	// never independently re-verified over the network.
	var secondarySig []byte
	if s.identity.Profile == ProfileA {
		secondarySig, err = s.identity.SignSecondary(signable)
		if err != nil {
			s.log.WithError(err).Warn("secondary witness signature failed")
			secondarySig = nil
		}
	}

	now := time.Now().UTC()
	attestation := &WitnessAttestation{
		RecordID:                  rec.ID,
		WitnessIdentityHash:       s.identity.IdentityHash,
		WitnessPublicKey:          s.identity.PrimaryPublicKey,
		WitnessSignature:          sig,
		WitnessSecondarySignature: secondarySig,
		Timestamp:                 now,
	}
	if _, err := s.witnesses.Add(attestation); err != nil {
		writeError(w, statusForErr(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"witness":   s.identity.IdentityHash,
		"record_id": rec.ID,
		"signature": hex.EncodeToString(sig),
		"timestamp": now.Unix(),
	})
}

func (s *Server) handleAttestations(w http.ResponseWriter, r *http.Request) {
	recordID := r.URL.Query().Get("record_id")
	if recordID == "" {
		inputErr := Fail(ErrInput, "missing record_id")
		writeError(w, statusForErr(inputErr), inputErr.Message)
		return
	}

	attestations := s.witnesses.Get(recordID)
	out := make([]map[string]interface{}, 0, len(attestations))
	for _, a := range attestations {
		out = append(out, map[string]interface{}{
			"record_id":             a.RecordID,
			"witness_identity_hash": a.WitnessIdentityHash,
			"witness_signature":     hex.EncodeToString(a.WitnessSignature),
			"timestamp":             a.Timestamp.Unix(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attestations": out})
}
