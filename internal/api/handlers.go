package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/macroplace/pkg/buildinfo"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/pipeline"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// PlaceRequest is the body of POST /v1/place and POST /v1/weights.
type PlaceRequest struct {
	Design  *netlist.Design   `json:"design"`
	Options *pipeline.Options `json:"options,omitempty"`
	// WriteBack returns the design with updated coordinates.
	WriteBack bool `json:"write_back,omitempty"`
}

// PlaceResponse is the body of a successful POST /v1/place.
type PlaceResponse struct {
	*placer.Result
	Cached       bool              `json:"cached"`
	Artifacts    map[string][]byte `json:"artifacts,omitempty"`
	PlacedDesign *netlist.Design   `json:"placed_design,omitempty"`
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	req, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var res *pipeline.Result
	if req.WriteBack {
		res, err = s.cfg.Runner.ExecuteAndWrite(r.Context(), req.Design, req.Design, opts)
	} else {
		res, err = s.cfg.Runner.Execute(r.Context(), req.Design, opts)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := PlaceResponse{Result: res.Placement, Cached: res.CacheInfo.PlaceHit}
	if len(res.Artifacts) > 0 {
		resp.Artifacts = res.Artifacts
	}
	if req.WriteBack {
		resp.PlacedDesign = req.Design
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	req, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := placer.New(opts.Placement)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := p.Analyze(r.Context(), req.Design)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// decode reads a PlaceRequest and merges its options over the server
// defaults.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*PlaceRequest, pipeline.Options, error) {
	opts := s.cfg.Defaults.Clone()
	req := PlaceRequest{Options: &opts}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	if req.Design == nil {
		return nil, opts, errors.New(errors.ErrCodeInvalidInput, "request has no design")
	}
	if req.Options != nil {
		opts = *req.Options
	}
	opts.Logger = s.cfg.Logger
	opts.Placement.Logger = s.cfg.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, opts, err
	}
	return &req, opts, nil
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDesign, errors.ErrCodeConfig:
		return http.StatusBadRequest
	case errors.ErrCodeInfeasibleArea, errors.ErrCodeMissingTimingData:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "request_id", RequestID(r.Context()), "error", err)
	} else {
		s.cfg.Logger.Warn("request rejected", "request_id", RequestID(r.Context()), "code", body.Error.Code, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
