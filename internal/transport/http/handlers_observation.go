package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vigil/internal/alert"
	"vigil/internal/identity"
	"vigil/internal/observation"
	"vigil/internal/pipeline"
	"vigil/pkg/domain"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/requestcontext"
)

// Processor is the slice of the pipeline the ingest endpoint needs.
type Processor interface {
	Process(ctx context.Context, obs observation.Event) (pipeline.Outcome, error)
}

// AlertLog lists recently produced alerts.
type AlertLog interface {
	Recent() []alert.Alert
}

// ObservationHandler serves ingest, enrollment, and the recent-alert view.
type ObservationHandler struct {
	processor Processor
	registry  identity.Registry
	alerts    AlertLog
	logger    *slog.Logger
}

func NewObservationHandler(processor Processor, registry identity.Registry, alerts AlertLog, logger *slog.Logger) *ObservationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObservationHandler{processor: processor, registry: registry, alerts: alerts, logger: logger}
}

// Register mounts observation endpoints on the router.
func (h *ObservationHandler) Register(r chi.Router) {
	r.Post("/observations", h.HandleIngest)
	r.Post("/identities", h.HandleEnroll)
	r.Get("/alerts", h.HandleRecentAlerts)
}

type observationRequest struct {
	Identity   string  `json:"identity,omitempty"`
	Timestamp  string  `json:"timestamp"`
	Location   string  `json:"location"`
	Confidence float64 `json:"confidence,omitempty"`
	Kind       string  `json:"kind"`
	Level      float64 `json:"level,omitempty"`
}

type verdictResponse struct {
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	Expected  string `json:"expected,omitempty"`
	Confirmed bool   `json:"confirmed"`
	Streak    int    `json:"streak,omitempty"`
}

type alertResponse struct {
	ID           string   `json:"id"`
	Timestamp    string   `json:"timestamp"`
	Severity     string   `json:"severity"`
	Rule         string   `json:"rule"`
	Message      string   `json:"message"`
	Location     string   `json:"location"`
	Identity     string   `json:"identity,omitempty"`
	SustainedFor string   `json:"sustained_for,omitempty"`
	Recipients   []string `json:"recipients,omitempty"`
}

type ingestResponse struct {
	Verdict          *verdictResponse `json:"verdict,omitempty"`
	Alert            *alertResponse   `json:"alert,omitempty"`
	AttendanceLogged bool             `json:"attendance_logged,omitempty"`
}

// HandleIngest handles POST /v1/observations.
func (h *ObservationHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[observationRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	obs, err := h.parseObservation(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.processor.Process(ctx, obs)
	if err != nil {
		h.logger.WarnContext(ctx, "observation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"kind", string(obs.Kind),
			"location", obs.Location.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toIngestResponse(out))
}

func (h *ObservationHandler) parseObservation(req observationRequest) (observation.Event, error) {
	kind, err := observation.ParseKind(req.Kind)
	if err != nil {
		return observation.Event{}, err
	}
	ts, err := observation.ParseTimestamp(req.Timestamp)
	if err != nil {
		return observation.Event{}, err
	}
	obs := observation.Event{
		Timestamp:  ts,
		Location:   domain.Location(req.Location),
		Confidence: req.Confidence,
		Kind:       kind,
		Level:      req.Level,
	}
	if kind == observation.KindPresence {
		id, err := domain.ParsePersonID(req.Identity)
		if err != nil {
			return observation.Event{}, err
		}
		obs.Identity = id
	}
	return obs, obs.Validate()
}

func toIngestResponse(out pipeline.Outcome) ingestResponse {
	resp := ingestResponse{AttendanceLogged: out.AttendanceLogged}
	if v := out.Verdict; v != nil {
		vr := &verdictResponse{
			Status:    string(v.Status),
			Reason:    v.Reason,
			Confirmed: v.Confirmed,
			Streak:    v.Streak,
		}
		if v.Expected != nil {
			vr.Expected = v.Expected.String()
		}
		resp.Verdict = vr
	}
	if out.Alert != nil {
		resp.Alert = toAlertResponse(*out.Alert)
	}
	return resp
}

func toAlertResponse(a alert.Alert) *alertResponse {
	resp := &alertResponse{
		ID:        a.ID.String(),
		Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
		Severity:  a.Severity.String(),
		Rule:      string(a.Rule),
		Message:   a.Message,
		Location:  a.Location.String(),
	}
	if !a.Identity.IsNil() {
		resp.Identity = a.Identity.String()
	}
	if a.SustainedFor > 0 {
		resp.SustainedFor = a.SustainedFor.String()
	}
	for _, rec := range a.Recipients {
		name := string(rec.Role)
		if rec.Department != "" {
			name += "/" + rec.Department
		}
		resp.Recipients = append(resp.Recipients, name)
	}
	return resp
}

type enrollRequest struct {
	Name   string `json:"name"`
	Cohort string `json:"cohort,omitempty"`
	Year   int    `json:"year,omitempty"`
	Group  string `json:"group,omitempty"`
}

// HandleEnroll handles POST /v1/identities.
func (h *ObservationHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[enrollRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ident := identity.Identity{
		ID:   domain.NewPersonID(),
		Name: req.Name,
		Attributes: domain.Attributes{
			Cohort: req.Cohort,
			Year:   req.Year,
			Group:  req.Group,
		},
		EnrolledAt: time.Now().UTC(),
	}
	if err := h.registry.Put(ctx, ident); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity enrolled",
		"request_id", requestcontext.RequestID(ctx),
		"identity", ident.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": ident.ID.String()})
}

// HandleRecentAlerts handles GET /v1/alerts.
func (h *ObservationHandler) HandleRecentAlerts(w http.ResponseWriter, _ *http.Request) {
	recent := h.alerts.Recent()
	out := make([]*alertResponse, 0, len(recent))
	for _, a := range recent {
		out = append(out, toAlertResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"alerts": out})
}
