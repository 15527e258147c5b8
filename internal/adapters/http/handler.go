package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/interviewlab/interview-api/internal/app/export"
	"github.com/interviewlab/interview-api/internal/app/interaction"
	"github.com/interviewlab/interview-api/internal/app/settings"
	"github.com/interviewlab/interview-api/internal/domain"
)

type Server struct {
	interactions *interaction.Service
	settings     *settings.Service
	now          func() time.Time
}

func NewServer(interactions *interaction.Service, settingsSvc *settings.Service) http.Handler {
	s := &Server{
		interactions: interactions,
		settings:     settingsSvc,
		now:          time.Now,
	}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealthz)

	// Player surface.
	r.Route("/participants/{participantID}/interaction", func(r chi.Router) {
		r.Post("/", s.handleGetOrMaterialize)
		r.Get("/", s.handleGetInteraction)
		r.Post("/start", s.handleStartInteraction)
		r.Post("/messages", s.handleSendMessage)
		r.Post("/dismiss", s.handleDismiss)
	})

	// Builder surface.
	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings/{name}", s.handleSaveSettings)

	// Results surface.
	r.Get("/interactions", s.handleListInteractions)
	r.Get("/interactions/export", s.handleExportAll)
	r.Get("/interactions/{participantID}/export", s.handleExportOne)
	r.Delete("/interactions/{recordID}", s.handleDeleteInteraction)

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type materializeRequest struct {
	ParticipantName string `json:"participant_name,omitempty"`
}

type interactionResponse struct {
	Interaction domain.Interaction `json:"interaction"`
	Status      string             `json:"status"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Outcome            string              `json:"outcome"`
	ParticipantMessage *messageResponse    `json:"participant_message,omitempty"`
	AssistantMessage   *messageResponse    `json:"assistant_message,omitempty"`
	Interaction        interactionResponse `json:"interaction"`
}

type messageResponse struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Sender  string    `json:"sender"`
	Role    string    `json:"role"`
	SentAt  time.Time `json:"sent_at"`
}

type recordSummaryResponse struct {
	RecordID      string    `json:"record_id"`
	ParticipantID string    `json:"participant_id"`
	Participant   string    `json:"participant"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type saveSettingsRequest struct {
	Assistants *domain.AssistantsSettings `json:"assistants,omitempty"`
	Chat       *domain.ChatSettings       `json:"chat,omitempty"`
	Exchanges  *domain.ExchangesSettings  `json:"exchanges,omitempty"`
}

// ─────────────────────────────────────────────
// Player handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetOrMaterialize(w http.ResponseWriter, r *http.Request) {
	participantID := domain.ParticipantID(chi.URLParam(r, "participantID"))

	var req materializeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
	}

	out, err := s.interactions.GetOrMaterialize(r.Context(), participantID, req.ParticipantName)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if out.Rehydrated {
		status = http.StatusOK
	}
	writeJSON(w, status, toInteractionResponse(out.Interaction))
}

func (s *Server) handleGetInteraction(w http.ResponseWriter, r *http.Request) {
	participantID := domain.ParticipantID(chi.URLParam(r, "participantID"))

	inter, err := s.interactions.Get(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInteractionResponse(inter))
}

func (s *Server) handleStartInteraction(w http.ResponseWriter, r *http.Request) {
	participantID := domain.ParticipantID(chi.URLParam(r, "participantID"))

	inter, err := s.interactions.Start(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInteractionResponse(inter))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	participantID := domain.ParticipantID(chi.URLParam(r, "participantID"))

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.interactions.SendMessage(r.Context(), interaction.SendMessageInput{
		ParticipantID: participantID,
		Content:       req.Content,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := sendMessageResponse{
		Outcome:            outcomeLabel(out.Outcome),
		ParticipantMessage: toMessageResponse(out.ParticipantMessage),
		AssistantMessage:   toMessageResponse(out.AssistantMessage),
		Interaction:        toInteractionResponse(out.Interaction),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	participantID := domain.ParticipantID(chi.URLParam(r, "participantID"))

	inter, err := s.interactions.Dismiss(r.Context(), participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInteractionResponse(inter))
}

// ─────────────────────────────────────────────
// Builder handlers
// ─────────────────────────────────────────────

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.settings.Load(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loaded)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	name := domain.SettingsName(chi.URLParam(r, "name"))

	var req saveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	var err error
	switch name {
	case domain.SettingsAssistants:
		if req.Assistants == nil {
			badRequest(w, "assistants document is required")
			return
		}
		err = s.settings.SaveAssistants(r.Context(), *req.Assistants)
	case domain.SettingsChat:
		if req.Chat == nil {
			badRequest(w, "chat document is required")
			return
		}
		err = s.settings.SaveChat(r.Context(), *req.Chat)
	case domain.SettingsExchanges:
		if req.Exchanges == nil {
			badRequest(w, "exchanges document is required")
			return
		}
		err = s.settings.SaveExchanges(r.Context(), *req.Exchanges)
	default:
		badRequest(w, "unknown settings document")
		return
	}
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"saved": string(name)})
}

// ─────────────────────────────────────────────
// Results handlers
// ─────────────────────────────────────────────

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.interactions.ListRecords(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]recordSummaryResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, recordSummaryResponse{
			RecordID:      string(snap.ID),
			ParticipantID: string(snap.OwnerID),
			Participant:   snap.Data.Participant.Name,
			Status:        string(snap.Data.Status()),
			UpdatedAt:     snap.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteInteraction(w http.ResponseWriter, r *http.Request) {
	recordID := domain.RecordID(chi.URLParam(r, "recordID"))

	if err := s.interactions.DeleteRecord(r.Context(), recordID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.interactions.ListRecords(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	interactions := make([]domain.Interaction, 0, len(snaps))
	for _, snap := range snaps {
		interactions = append(interactions, snap.Data)
	}
	s.writeCSV(w, interactions, export.Filename("all", s.now()))
}

func (s *Server) handleExportOne(w http.ResponseWriter, r *http.Request) {
	participantID := domain.ParticipantID(chi.URLParam(r, "participantID"))

	snaps, err := s.interactions.ListRecords(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	for _, snap := range snaps {
		if snap.OwnerID == participantID {
			s.writeCSV(w, []domain.Interaction{snap.Data}, export.Filename(string(participantID), s.now()))
			return
		}
	}
	writeError(w, domain.ErrInteractionNotFound)
}

func (s *Server) writeCSV(w http.ResponseWriter, interactions []domain.Interaction, filename string) {
	csv, err := export.CSV(interactions)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func toInteractionResponse(inter domain.Interaction) interactionResponse {
	return interactionResponse{
		Interaction: inter,
		Status:      string(inter.Status()),
	}
}

func toMessageResponse(m *domain.Message) *messageResponse {
	if m == nil {
		return nil
	}
	return &messageResponse{
		ID:      string(m.ID),
		Content: m.Content,
		Sender:  m.Sender.Name,
		Role:    string(m.Sender.Role),
		SentAt:  m.SentAt,
	}
}

func outcomeLabel(outcome domain.TurnOutcome) string {
	switch outcome {
	case domain.TurnIgnored:
		return "ignored"
	case domain.TurnCompleted:
		return "completed"
	case domain.TurnAutoDismissed:
		return "auto_dismissed"
	default:
		return "continue"
	}
}

// ─────────────────────────────────────────────
// HTTP helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInteractionNotFound),
		errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrExchangeNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrContentTooLong):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInteractionNotStarted),
		errors.Is(err, domain.ErrInteractionCompleted),
		errors.Is(err, domain.ErrExchangeNotStarted),
		errors.Is(err, domain.ErrExchangeNotCompleted),
		errors.Is(err, domain.ErrExchangeDismissed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		// Completion-service and storage failures surface as bad gateway: the
		// participant's turn is already recorded, only the reply is missing.
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream service error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, _ error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
