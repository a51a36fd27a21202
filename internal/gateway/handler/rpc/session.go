package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"go.uber.org/zap"

	"stylefit/internal/budget"
	"stylefit/internal/canvas"
	"stylefit/internal/catalog"
	"stylefit/internal/checkout"
	"stylefit/internal/persona"
	"stylefit/internal/session"
	"stylefit/internal/shuffle"
)

const SessionServiceName = "stylefit.v1.SessionService"

const (
	ProcedureCreate       = "/" + SessionServiceName + "/Create"
	ProcedureRender       = "/" + SessionServiceName + "/Render"
	ProcedureEnd          = "/" + SessionServiceName + "/End"
	ProcedureStart        = "/" + SessionServiceName + "/Start"
	ProcedureAnswer       = "/" + SessionServiceName + "/Answer"
	ProcedureBack         = "/" + SessionServiceName + "/Back"
	ProcedureViewGuide    = "/" + SessionServiceName + "/ViewGuide"
	ProcedureCloseGuide   = "/" + SessionServiceName + "/CloseGuide"
	ProcedureConfirm      = "/" + SessionServiceName + "/Confirm"
	ProcedureSetBound     = "/" + SessionServiceName + "/SetBound"
	ProcedureSubmitBudget = "/" + SessionServiceName + "/SubmitBudget"
	ProcedurePlace        = "/" + SessionServiceName + "/Place"
	ProcedureRescale      = "/" + SessionServiceName + "/Rescale"
	ProcedureRemove       = "/" + SessionServiceName + "/Remove"
	ProcedureClearCanvas  = "/" + SessionServiceName + "/ClearCanvas"
	ProcedureShuffle      = "/" + SessionServiceName + "/Shuffle"
	ProcedureHandoff      = "/" + SessionServiceName + "/Handoff"
	ProcedureEdit         = "/" + SessionServiceName + "/Edit"
	ProcedurePay          = "/" + SessionServiceName + "/Pay"
	ProcedureReset        = "/" + SessionServiceName + "/Reset"
)

type SessionRef struct {
	SessionID string `json:"sessionId"`
}

func (r SessionRef) ID() string { return r.SessionID }

type CreateRequest struct{}

type AnswerRequest struct {
	SessionRef
	Option int `json:"option"`
}

type SetBoundRequest struct {
	SessionRef
	Category string `json:"category"`
	Min      *int64 `json:"min,omitempty"`
	Max      *int64 `json:"max,omitempty"`
}

type PlaceRequest struct {
	SessionRef
	Category string  `json:"category"`
	ItemID   string  `json:"itemId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type RescaleRequest struct {
	SessionRef
	InstanceID uint64  `json:"instanceId"`
	Delta      float64 `json:"delta"`
}

type RemoveRequest struct {
	SessionRef
	InstanceID uint64 `json:"instanceId"`
}

type ShuffleRequest struct {
	SessionRef
	Category string `json:"category"`
}

// ViewResponse always carries the session's view after the call.
type ViewResponse struct {
	View    session.View       `json:"view"`
	Issues  budget.Issues      `json:"issues,omitempty"`
	Placed  *canvas.PlacedItem `json:"placed,omitempty"`
	Scale   float64            `json:"scale,omitempty"`
	Outcome string             `json:"outcome,omitempty"`
}

type SessionHandler struct {
	store  *session.Store
	logger *zap.Logger
}

func NewSessionHandler(store *session.Store, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{store: store, logger: logger}
}

type sessionRef interface{ ID() string }

type sessionOp[Req any] func(ctx context.Context, s *session.Session, req *Req, out *ViewResponse) error

// NoticesHeader carries the notices raised by a failed call as a JSON array.
const NoticesHeader = "Stylefit-Notices"

// bind resolves the session, runs op and renders. A stale result is not an
// error for the caller; the view shows where the session is now. On failure
// the notices drained by the render travel in NoticesHeader.
func bind[Req any, P interface {
	*Req
	sessionRef
}](h *SessionHandler, op sessionOp[Req]) func(context.Context, *connect.Request[Req]) (*connect.Response[ViewResponse], error) {
	return func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[ViewResponse], error) {
		s, err := h.store.Get(P(req.Msg).ID())
		if err != nil {
			return nil, toSessionError(err)
		}
		var out ViewResponse
		if err := op(ctx, s, req.Msg, &out); err != nil && !errors.Is(err, session.ErrStale) {
			h.logger.Debug("session op failed", zap.String("procedure", req.Spec().Procedure), zap.Error(err))
			return nil, withNotices(toSessionError(err), s.Render().Notices)
		}
		out.View = s.Render()
		return connect.NewResponse(&out), nil
	}
}

func withNotices(err error, notices []session.Notice) error {
	var cerr *connect.Error
	if len(notices) == 0 || !errors.As(err, &cerr) {
		return err
	}
	b, jerr := json.Marshal(notices)
	if jerr != nil {
		return err
	}
	cerr.Meta().Set(NoticesHeader, string(b))
	return cerr
}

func plain(fn func(*session.Session) error) sessionOp[SessionRef] {
	return func(_ context.Context, s *session.Session, _ *SessionRef, _ *ViewResponse) error {
		return fn(s)
	}
}

// Register mounts every procedure on mux.
func (h *SessionHandler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux.Handle(ProcedureCreate, connect.NewUnaryHandler(ProcedureCreate, h.Create, opts...))
	mux.Handle(ProcedureEnd, connect.NewUnaryHandler(ProcedureEnd, h.End, opts...))

	mux.Handle(ProcedureRender, connect.NewUnaryHandler(ProcedureRender, bind(h, plain(func(*session.Session) error { return nil })), opts...))
	mux.Handle(ProcedureStart, connect.NewUnaryHandler(ProcedureStart, bind(h, plain((*session.Session).Start)), opts...))
	mux.Handle(ProcedureBack, connect.NewUnaryHandler(ProcedureBack, bind(h, plain((*session.Session).Back)), opts...))
	mux.Handle(ProcedureViewGuide, connect.NewUnaryHandler(ProcedureViewGuide, bind(h, plain((*session.Session).ViewGuide)), opts...))
	mux.Handle(ProcedureCloseGuide, connect.NewUnaryHandler(ProcedureCloseGuide, bind(h, plain((*session.Session).CloseGuide)), opts...))
	mux.Handle(ProcedureClearCanvas, connect.NewUnaryHandler(ProcedureClearCanvas, bind(h, plain((*session.Session).ClearCanvas)), opts...))
	mux.Handle(ProcedureHandoff, connect.NewUnaryHandler(ProcedureHandoff, bind(h, plain((*session.Session).Handoff)), opts...))
	mux.Handle(ProcedureEdit, connect.NewUnaryHandler(ProcedureEdit, bind(h, plain((*session.Session).Edit)), opts...))
	mux.Handle(ProcedureReset, connect.NewUnaryHandler(ProcedureReset, bind(h, plain(func(s *session.Session) error {
		s.Reset()
		return nil
	})), opts...))

	mux.Handle(ProcedureAnswer, connect.NewUnaryHandler(ProcedureAnswer, bind(h, answer), opts...))
	mux.Handle(ProcedureConfirm, connect.NewUnaryHandler(ProcedureConfirm, bind(h, confirm), opts...))
	mux.Handle(ProcedureSetBound, connect.NewUnaryHandler(ProcedureSetBound, bind(h, setBound), opts...))
	mux.Handle(ProcedureSubmitBudget, connect.NewUnaryHandler(ProcedureSubmitBudget, bind(h, submitBudget), opts...))
	mux.Handle(ProcedurePlace, connect.NewUnaryHandler(ProcedurePlace, bind(h, place), opts...))
	mux.Handle(ProcedureRescale, connect.NewUnaryHandler(ProcedureRescale, bind(h, rescale), opts...))
	mux.Handle(ProcedureRemove, connect.NewUnaryHandler(ProcedureRemove, bind(h, remove), opts...))
	mux.Handle(ProcedureShuffle, connect.NewUnaryHandler(ProcedureShuffle, bind(h, shuffleCategory), opts...))
	mux.Handle(ProcedurePay, connect.NewUnaryHandler(ProcedurePay, bind(h, pay), opts...))
}

func (h *SessionHandler) Create(_ context.Context, _ *connect.Request[CreateRequest]) (*connect.Response[ViewResponse], error) {
	s := h.store.Create()
	h.logger.Info("session created", zap.String("session_id", s.ID()))
	return connect.NewResponse(&ViewResponse{View: s.Render()}), nil
}

func (h *SessionHandler) End(_ context.Context, req *connect.Request[SessionRef]) (*connect.Response[ViewResponse], error) {
	if !h.store.Delete(req.Msg.SessionID) {
		return nil, toSessionError(fmt.Errorf("%w: %q", session.ErrSessionNotFound, req.Msg.SessionID))
	}
	return connect.NewResponse(&ViewResponse{}), nil
}

func answer(_ context.Context, s *session.Session, req *AnswerRequest, _ *ViewResponse) error {
	return s.Answer(req.Option)
}

func confirm(ctx context.Context, s *session.Session, _ *SessionRef, _ *ViewResponse) error {
	return s.Confirm(ctx)
}

func parseCategory(raw string) (catalog.Category, error) {
	cat, ok := catalog.ParseCategory(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", session.ErrInvalidInput, raw)
	}
	return cat, nil
}

func setBound(_ context.Context, s *session.Session, req *SetBoundRequest, out *ViewResponse) error {
	cat, err := parseCategory(req.Category)
	if err != nil {
		return err
	}
	issues, err := s.SetBound(cat, req.Min, req.Max)
	out.Issues = issues
	return err
}

func submitBudget(ctx context.Context, s *session.Session, _ *SessionRef, _ *ViewResponse) error {
	return s.SubmitBudget(ctx)
}

func place(_ context.Context, s *session.Session, req *PlaceRequest, out *ViewResponse) error {
	cat, err := parseCategory(req.Category)
	if err != nil {
		return err
	}
	p, err := s.Place(cat, req.ItemID, canvas.Point{X: req.X, Y: req.Y})
	if err != nil {
		return err
	}
	out.Placed = &p
	return nil
}

func rescale(_ context.Context, s *session.Session, req *RescaleRequest, out *ViewResponse) error {
	scale, err := s.Rescale(req.InstanceID, req.Delta)
	out.Scale = scale
	return err
}

func remove(_ context.Context, s *session.Session, req *RemoveRequest, _ *ViewResponse) error {
	return s.Remove(req.InstanceID)
}

func shuffleCategory(ctx context.Context, s *session.Session, req *ShuffleRequest, _ *ViewResponse) error {
	cat, err := parseCategory(req.Category)
	if err != nil {
		return err
	}
	return s.Shuffle(ctx, cat)
}

func pay(ctx context.Context, s *session.Session, _ *SessionRef, out *ViewResponse) error {
	outcome, err := s.Pay(ctx)
	if err == nil {
		out.Outcome = outcome.String()
	}
	return err
}

func toSessionError(err error) error {
	var issues budget.Issues
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrWrongScreen),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, shuffle.ErrLoading),
		errors.Is(err, persona.ErrComplete):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &issues),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, checkout.ErrEmptySelection),
		errors.Is(err, canvas.ErrUnknownInstance),
		errors.Is(err, shuffle.ErrUnknownCategory),
		errors.Is(err, shuffle.ErrUnknownItem),
		errors.Is(err, persona.ErrUnknownTag):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, session.ErrCatalogUnavailable),
		errors.Is(err, session.ErrCheckoutFailed):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("session service failed: %w", err))
	}
}
