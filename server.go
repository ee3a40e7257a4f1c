package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go-passport-scanner/docs"
	"go-passport-scanner/document"
	"go-passport-scanner/document/mrz"
	"go-passport-scanner/metrics"
	"go-passport-scanner/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_DECODE = "failed to decode request body"
const ERR_INVALID_REQUEST = "invalid request"
const ERR_ISSUANCE_CONVERT = "failed to convert to issuance request"
const ERR_JWT_CREATION = "failed to create jwt"
const ERR_SESSION_REMOVAL = "failed to remove session from storage"
const ERR_SESSION_RETRIEVAL = "failed to get session from storage"
const ERR_SESSION_NOT_FOUND = "unknown scan session"
const ERR_NO_ACCEPTED_SCAN = "no accepted scan for session"
const ERR_DOCUMENT_NOT_VALID = "document is expired or its expiry is unknown"

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
}

type ServerState struct {
	irmaServerURL string
	scanStorage   ScanStorage
	jwtCreator    JwtCreator
	converter     PassportDataConverter
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	// reference date for expiry and age checks
	now func() time.Time
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)

	if state.now == nil {
		state.now = time.Now
	}

	router := mux.NewRouter()
	router.Use(requestIdMiddleware, loggingMiddleware)

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		err := json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		if err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	})

	router.HandleFunc("/api/start-scan", func(w http.ResponseWriter, r *http.Request) {
		handleStartScan(state, w, r)
	})
	router.HandleFunc("/api/scan-frame", func(w http.ResponseWriter, r *http.Request) {
		handleScanFrame(state, w, r)
	})
	router.HandleFunc("/api/scan/{session_id}", func(w http.ResponseWriter, r *http.Request) {
		handleGetScan(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/issue-passport", func(w http.ResponseWriter, r *http.Request) {
		handleIssuePassport(state, w, r)
	})
	router.HandleFunc("/api/swagger.json", handleSwagger).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(state.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	slog.Debug("Registered all API routes")

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler:      router,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

// handleStartScan godoc
// @Summary      Start a scan session
// @Description  Creates a session that latches the first accepted MRZ verdict
// @Produce      json
// @Success      200  {object}  models.StartScanResponse
// @Router       /api/start-scan [post]
func handleStartScan(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to start a scan session")

	sessionId := GenerateSessionId()
	if sessionId == "" {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate session ID", fmt.Errorf("failed to generate session ID"))
		return
	}

	if err := state.scanStorage.StartSession(sessionId); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to store session", err)
		return
	}
	state.metrics.IncrementSessionsStarted()

	if err := writeJSON(w, http.StatusOK, models.StartScanResponse{SessionId: sessionId}); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Scan session started", "session_id", sessionId)
}

// handleScanFrame godoc
// @Summary      Submit the recognized text of one camera frame
// @Description  Runs the MRZ pipeline unless the session already holds an accepted verdict
// @Accept       json
// @Produce      json
// @Param        request  body      models.ScanFrameRequest  true  "recognized text"
// @Success      200      {object}  models.ScanFrameResponse
// @Failure      400      {string}  string
// @Router       /api/scan-frame [post]
func handleScanFrame(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	var request models.ScanFrameRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}
	state.metrics.IncrementFrames()

	held, latched, err := state.scanStorage.RetrieveAccepted(request.SessionId)
	if err != nil {
		respondWithSessionErr(w, err)
		return
	}

	if !latched {
		verdict := mrz.LocateAndParse(frameLines(request), state.now())
		state.metrics.ObserveVerdict(verdict)
		slog.Debug("Frame evaluated", "session_id", request.SessionId, "outcome", verdict.Outcome, "reason", verdict.Reason)

		held, latched, err = state.scanStorage.KeepVerdict(request.SessionId, verdict)
		if err != nil {
			respondWithSessionErr(w, err)
			return
		}
		if latched {
			slog.Info("Scan accepted", "session_id", request.SessionId, "expiry", held.Expiry)
		}
	}

	if err := writeJSON(w, http.StatusOK, models.NewScanFrameResponse(held, latched)); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

// handleGetScan godoc
// @Summary      Get the accepted verdict of a session
// @Produce      json
// @Param        session_id  path      string  true  "session id"
// @Success      200         {object}  models.ScanFrameResponse
// @Failure      404         {string}  string
// @Router       /api/scan/{session_id} [get]
func handleGetScan(state *ServerState, w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["session_id"]

	verdict, latched, err := state.scanStorage.RetrieveAccepted(sessionId)
	if err != nil {
		respondWithSessionErr(w, err)
		return
	}
	if !latched {
		respondWithErr(w, http.StatusNotFound, ERR_NO_ACCEPTED_SCAN, ERR_NO_ACCEPTED_SCAN, nil)
		return
	}

	if err := writeJSON(w, http.StatusOK, models.NewScanFrameResponse(verdict, true)); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

// handleIssuePassport godoc
// @Summary      Issue a passport credential from an accepted scan
// @Accept       json
// @Produce      json
// @Param        request  body      models.IssuePassportRequest  true  "session"
// @Success      200      {object}  models.IssuanceResponse
// @Failure      400      {string}  string
// @Router       /api/issue-passport [post]
func handleIssuePassport(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to issue passport from scan")

	var request models.IssuePassportRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}

	verdict, latched, err := state.scanStorage.RetrieveAccepted(request.SessionId)
	if err != nil {
		respondWithSessionErr(w, err)
		return
	}
	if !latched {
		respondWithErr(w, http.StatusBadRequest, ERR_NO_ACCEPTED_SCAN, ERR_NO_ACCEPTED_SCAN, nil)
		return
	}
	if verdict.Expiry != document.ExpiryValid {
		respondWithErr(w, http.StatusBadRequest, ERR_DOCUMENT_NOT_VALID, ERR_DOCUMENT_NOT_VALID, fmt.Errorf("expiry status: %s", verdict.Expiry))
		return
	}

	slog.Debug("Converting scan for issuance", "session_id", request.SessionId)
	passportData, err := state.converter.ToPassportData(*verdict.Record, state.now())
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ERR_ISSUANCE_CONVERT, ERR_ISSUANCE_CONVERT, err)
		return
	}

	jwt, err := state.jwtCreator.CreatePassportJwt(passportData)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ERR_JWT_CREATION, ERR_JWT_CREATION, err)
		return
	}

	// the session is single use
	if err := state.scanStorage.RemoveSession(request.SessionId); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_SESSION_REMOVAL, err)
		return
	}

	response := models.IssuanceResponse{
		Jwt:           jwt,
		IrmaServerURL: state.irmaServerURL,
	}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	state.metrics.IncrementPassportsIssued()
	slog.Info("Passport issued successfully", "session_id", request.SessionId)
}

func handleSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to read swagger document", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(doc)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// frameLines prefers explicit lines and falls back to splitting the text block.
func frameLines(request models.ScanFrameRequest) []string {
	if len(request.Lines) > 0 {
		return request.Lines
	}
	return mrz.SplitLines(request.Text)
}

// -----------------------------------------------------------------------------------

func decodeAndValidate(w http.ResponseWriter, r *http.Request, request any) bool {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		respondWithErr(w, http.StatusBadRequest, ERR_DECODE, ERR_DECODE, err)
		return false
	}
	if err := validateRequest(request); err != nil {
		respondWithErr(w, http.StatusBadRequest, err.Error(), ERR_INVALID_REQUEST, err)
		return false
	}
	return true
}

func respondWithSessionErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		respondWithErr(w, http.StatusNotFound, ERR_SESSION_NOT_FOUND, ERR_SESSION_NOT_FOUND, err)
		return
	}
	respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_SESSION_RETRIEVAL, err)
}

func GenerateSessionId() string {
	sessionId := make([]byte, 16)
	if _, err := rand.Read(sessionId); err != nil {
		slog.Error("failed to generate session ID", "error", err)
		return ""
	}
	hexId := hex.EncodeToString(sessionId)
	slog.Debug("Session ID generated successfully", "session_id", hexId)
	return hexId
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	if code >= http.StatusInternalServerError {
		slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	} else {
		slog.Warn(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	}
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(payload); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
	return nil
}
