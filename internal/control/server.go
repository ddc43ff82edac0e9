package control

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/julienschmidt/httprouter"

	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/logger"
	"github.com/qdash/qdash/internal/supervisor"
)

// Service serves the control API on a unix socket.
type Service struct {
	socketPath string
	ln         net.Listener

	router *httprouter.Router

	sup *supervisor.Supervisor
	log logger.Logger
}

// NewService returns an unstarted control service.
func NewService(socketPath string, sup *supervisor.Supervisor) *Service {
	return &Service{
		socketPath: socketPath,
		router:     httprouter.New(),
		sup:        sup,
		log:        logger.NewEnvLogger("[control]"),
	}
}

// Start listens on the socket and serves until Close. A stale socket file
// from a previous run is removed first.
func (s *Service) Start() error {
	s.initHandler()

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot remove stale control socket",
			"Check permissions on "+s.socketPath)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConn,
			"Cannot listen on control socket",
			"Is another qdash daemon already running?")
	}
	s.ln = ln

	server := http.Server{Handler: s.router}
	go func() {
		if err := server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			s.log.Debug("serve ended: %v", err)
		}
	}()
	s.log.Info("control listening on %s", s.socketPath)

	return nil
}

// Close shuts the listener down and removes the socket file.
func (s *Service) Close() error {
	if s.ln != nil {
		s.ln.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SocketPath returns the path the service listens on.
func (s *Service) SocketPath() string { return s.socketPath }

func (s *Service) initHandler() {
	s.router.POST("/start", s.handlerStart)
	s.router.GET("/instances", s.handlerList)
	s.router.GET("/instances/:id", s.handlerStatus)
	s.router.DELETE("/instances/:id", s.handlerStop)
	s.router.POST("/instances/:id/restart", s.handlerRestart)
	s.router.GET("/instances/:id/variables", s.handlerVariables)
	s.router.PUT("/instances/:id/variables/:key", s.handlerSetVariable)
	s.router.POST("/instances/:id/variables/reset", s.handlerResetVariables)
	s.router.GET("/instances/:id/sql", s.handlerSQL)
}

func (s *Service) handlerStart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req StartRequest
	if err := decodeBody(r.Body, &req); err != nil {
		returnError(w, err)
		return
	}
	if req.ConfigPath == "" {
		returnError(w, errors.New(errors.ErrConfig,
			"Field 'config_path' is required",
			"Send {\"config_path\": \"/path/to/dashboard.yaml\"}"))
		return
	}

	status, err := s.sup.Start(req.ConfigPath)
	if err != nil {
		returnError(w, err)
		return
	}
	returnData(w, status)
}

func (s *Service) handlerList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	returnData(w, InstanceList{Instances: s.sup.List()})
}

func (s *Service) handlerStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status, err := s.sup.Status(ps.ByName("id"))
	if err != nil {
		returnError(w, err)
		return
	}
	returnData(w, status)
}

func (s *Service) handlerStop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.sup.Stop(ps.ByName("id")); err != nil {
		returnError(w, err)
		return
	}
	returnData(w, nil)
}

func (s *Service) handlerRestart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.sup.Restart(ps.ByName("id")); err != nil {
		returnError(w, err)
		return
	}
	returnData(w, nil)
}

func (s *Service) handlerVariables(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	variables, err := s.sup.Variables(ps.ByName("id"))
	if err != nil {
		returnError(w, err)
		return
	}
	returnData(w, VariableList{Variables: variables})
}

func (s *Service) handlerSetVariable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req VariableRequest
	if err := decodeBody(r.Body, &req); err != nil {
		returnError(w, err)
		return
	}

	if err := s.sup.UpdateVariable(ps.ByName("id"), ps.ByName("key"), req.Value); err != nil {
		returnError(w, err)
		return
	}
	returnData(w, nil)
}

func (s *Service) handlerResetVariables(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.sup.ResetVariables(ps.ByName("id")); err != nil {
		returnError(w, err)
		return
	}
	returnData(w, nil)
}

func (s *Service) handlerSQL(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sql, err := s.sup.ResolvedSQL(ps.ByName("id"))
	if err != nil {
		returnError(w, err)
		return
	}
	returnData(w, ResolvedSQL{SQL: sql})
}

func decodeBody(body io.Reader, v interface{}) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid JSON request body",
			"Check the request payload")
	}
	return nil
}

func returnData(w http.ResponseWriter, data interface{}) {
	returnJSON(w, http.StatusOK, Response{Status: "ok", Data: data})
}

func returnError(w http.ResponseWriter, err error) {
	respErr := &ResponseError{Message: err.Error()}
	var qErr *errors.Error
	if stderrors.As(err, &qErr) {
		respErr.Code = qErr.Code
		respErr.Message = qErr.Message
		respErr.Suggestion = qErr.Suggestion
	}
	returnJSON(w, httpStatusFor(err), Response{Status: "error", Error: respErr})
}

func returnJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// httpStatusFor maps structured error codes to HTTP status codes.
func httpStatusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrType, errors.ErrConfig:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
