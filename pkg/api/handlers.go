package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/hypercut/pkg/errors"
	hio "github.com/matzehuels/hypercut/pkg/io"
	"github.com/matzehuels/hypercut/pkg/partition"
	"github.com/matzehuels/hypercut/pkg/pipeline"
	"github.com/matzehuels/hypercut/pkg/store"
)

// partitionRequest is the body of POST /v1/partitions. Omitted fields take
// the server defaults; epsilon is a pointer so 0 can request perfect balance.
type partitionRequest struct {
	Name      string            `json:"name"`
	Instance  json.RawMessage   `json:"instance"`
	Epsilon   *float64          `json:"epsilon"`
	Trials    int               `json:"trials"`
	Seed      uint64            `json:"seed"`
	Refresh   bool              `json:"refresh"`
	Partition *partition.Config `json:"partition"`
}

// partitionResponse is a stored record plus the run statistics.
type partitionResponse struct {
	*store.Record
	BestTrial int            `json:"best_trial"`
	Stats     pipeline.Stats `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, in, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.cfg.Defaults
	if req.Epsilon != nil {
		opts.Epsilon = *req.Epsilon
	}
	if req.Trials != 0 {
		opts.Trials = req.Trials
	}
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}
	if req.Partition != nil {
		opts.Partition = *req.Partition
	}
	opts.Refresh = req.Refresh
	opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))
	opts.Progress = nil

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	res, err := s.runner.Execute(ctx, in, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec := res.Record()
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "failed to save run"))
		return
	}
	s.writeJSON(w, http.StatusCreated, partitionResponse{
		Record:    rec,
		BestTrial: res.BestTrial,
		Stats:     res.Stats,
	})
}

// decodeRequest parses and validates a partition request.
func (s *Server) decodeRequest(r *http.Request) (*partitionRequest, *hio.Instance, error) {
	var req partitionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, nil, errors.New(errors.ErrCodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid request body")
	}
	if err := errors.ValidateRunName(req.Name); err != nil {
		return nil, nil, err
	}
	if req.Epsilon != nil {
		if err := errors.ValidateEpsilon(*req.Epsilon); err != nil {
			return nil, nil, err
		}
	}
	if req.Trials != 0 {
		if err := errors.ValidateTrials(req.Trials); err != nil {
			return nil, nil, err
		}
	}
	if len(req.Instance) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "instance is required")
	}

	in, err := hio.ReadJSON(bytes.NewReader(req.Instance))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid instance")
	}
	if n := in.NumPins(); n > s.cfg.MaxPins {
		return nil, nil, errors.New(errors.ErrCodeTooLarge, "instance has %d pins (max %d)", n, s.cfg.MaxPins)
	}
	if req.Name != "" {
		in.Name = req.Name
	}
	return &req, in, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var opts store.ListOptions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		opts.Limit = n
	}

	recs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "failed to list runs"))
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateRunID(id); err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		s.writeError(w, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id))
		return
	}
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "failed to load run"))
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}
