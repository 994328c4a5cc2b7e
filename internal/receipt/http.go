package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ReceiptProcessor/pkg/kit"
)

const (
	defaultMaxBody = 1 << 20
	readyTimeout   = 1 * time.Second

	// encoding/json exposes no typed error for DisallowUnknownFields.
	unknownFieldPrefix = `json: unknown field "`
)

type Server struct {
	Processor *Processor
	Log       *zap.Logger

	// MaxBodyBytes caps the receipt payload. Zero means 1 MiB.
	MaxBodyBytes int64
}

type processResp struct {
	ID string `json:"id"`
}

type pointsResp struct {
	Points int `json:"points"`
}

func (s *Server) ProcessHandler() http.HandlerFunc { return s.process }
func (s *Server) PointsHandler() http.HandlerFunc  { return s.points }

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	rc, err := kit.DecodeJSON[Receipt](w, r, s.maxBody())
	if err != nil {
		s.Processor.Metrics.rejected()
		s.log().Debug("receipt decode failed",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err),
		)
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			kit.WriteError(w, r, http.StatusRequestEntityTooLarge, "receipt too large", nil)
			return
		}
		var details any
		if problems := decodeProblems(err); problems != nil {
			details = problems
		}
		kit.WriteError(w, r, http.StatusBadRequest, "The receipt is invalid.", details)
		return
	}

	id, b, err := s.Processor.Process(r.Context(), rc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	for _, fe := range b.Skipped {
		s.log().Debug("rule skipped",
			zap.String("receipt_id", id),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("field", fe.Field),
			zap.Error(fe.Err),
		)
	}

	kit.WriteJSON(w, http.StatusOK, processResp{ID: id})
}

func (s *Server) points(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	points, err := s.Processor.Points(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, pointsResp{Points: points})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Processor.Store.Ping(ctx); err != nil {
		s.log().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError

	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusBadRequest, "The receipt is invalid.", verr.Problems)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "No receipt found for that ID.",
			map[string]any{"id": chi.URLParam(r, "id")})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.log().Error("receipt request failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// decodeProblems names the offending JSON field when the decoder reports
// one. Decoder messages carry Go type names and never reach the client.
func decodeProblems(err error) []FieldProblem {
	var te *json.UnmarshalTypeError
	switch {
	case errors.As(err, &te) && te.Field != "":
		return []FieldProblem{{Field: te.Field, Rule: "type"}}
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		name := strings.TrimSuffix(strings.TrimPrefix(err.Error(), unknownFieldPrefix), `"`)
		return []FieldProblem{{Field: name, Rule: "unknown"}}
	default:
		return nil
	}
}

func (s *Server) maxBody() int64 {
	if s.MaxBodyBytes > 0 {
		return s.MaxBodyBytes
	}
	return defaultMaxBody
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
