package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/dto"
	"github.com/OrFisher/real-time-speech-processor/internal/history"
	"github.com/OrFisher/real-time-speech-processor/internal/keywords"
	"github.com/OrFisher/real-time-speech-processor/internal/session"
	"github.com/OrFisher/real-time-speech-processor/internal/shared"
	"github.com/OrFisher/real-time-speech-processor/internal/upload"
	"github.com/labstack/echo/v4"
)

// Handler exposes the local control surface: recording intents, keyword
// management, archived transcripts, and file uploads. It is the only way in;
// nothing else touches the controller.
type Handler struct {
	controller  *session.Controller
	keywords    *keywords.Store
	transcripts *history.Store
	uploads     *upload.Client
	logger      *slog.Logger
}

func NewHandler(controller *session.Controller, kw *keywords.Store, transcripts *history.Store, uploads *upload.Client, logger *slog.Logger) *Handler {
	return &Handler{
		controller:  controller,
		keywords:    kw,
		transcripts: transcripts,
		uploads:     uploads,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/session/start", h.StartSession)
	g.POST("/session/stop", h.StopSession)
	g.PUT("/session/speaker", h.SetSpeaker)
	g.GET("/session", h.SessionStatus)

	g.GET("/keywords", h.ListKeywords)
	g.POST("/keywords", h.CreateKeyword)
	g.DELETE("/keywords/:id", h.DeleteKeyword)

	g.GET("/transcripts", h.ListTranscriptSessions)
	g.GET("/transcripts/:session_id", h.SessionTranscript)

	g.POST("/uploads", h.UploadAudio)
}

func (h *Handler) StartSession(c echo.Context) error {
	id, err := h.controller.StartRecording()
	if err != nil {
		if errors.Is(err, shared.ErrSessionActive) {
			return shared.Conflict("session_active", "a recording session is already streaming")
		}
		if errors.Is(err, shared.ErrDeviceUnavailable) {
			return shared.NewAPIError("device_unavailable", "capture device could not be opened").
				ToHTTP(http.StatusServiceUnavailable)
		}
		h.logger.Error("failed to start session", "error", err)
		return shared.InternalError("start_failed", "failed to start recording")
	}
	return c.JSON(http.StatusCreated, dto.StartSessionResponse{
		SessionID: id,
		State:     h.controller.Status().State,
	})
}

func (h *Handler) StopSession(c echo.Context) error {
	if err := h.controller.StopRecording(); err != nil {
		h.logger.Error("failed to stop session", "error", err)
		return shared.InternalError("stop_failed", "failed to stop recording")
	}
	return c.JSON(http.StatusOK, dto.StopSessionResponse{State: h.controller.Status().State})
}

func (h *Handler) SetSpeaker(c echo.Context) error {
	var req dto.SetSpeakerRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if err := h.controller.SetSpeakerType(req.SpeakerType); err != nil {
		return shared.BadRequest("invalid_speaker_type", "speaker_type must be one of rep, prospect, unknown")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SessionStatus(c echo.Context) error {
	st := h.controller.Status()
	return c.JSON(http.StatusOK, dto.SessionStatusResponse{
		SessionID:     st.SessionID,
		State:         st.State,
		SpeakerType:   st.SpeakerType.String(),
		DroppedChunks: st.DroppedChunks,
	})
}

func (h *Handler) ListKeywords(c echo.Context) error {
	resp := dto.KeywordListResponse{Keywords: []dto.KeywordResponse{}}
	for _, kw := range h.keywords.List() {
		resp.Keywords = append(resp.Keywords, toKeywordResponse(kw))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateKeyword(c echo.Context) error {
	var req dto.CreateKeywordRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Word == "" {
		return shared.BadRequest("word_required", "word is required")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	kw, err := h.keywords.Create(c.Request().Context(), req.Word, req.TalkingPoint, active)
	if err != nil {
		return shared.BadGateway("keyword_backend_failed", "keyword service rejected the request")
	}
	return c.JSON(http.StatusCreated, toKeywordResponse(*kw))
}

func (h *Handler) DeleteKeyword(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return shared.BadRequest("invalid_id", "keyword id must be an integer")
	}
	if err := h.keywords.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("keyword_not_found", "keyword not found")
		}
		return shared.BadGateway("keyword_backend_failed", "keyword service rejected the request")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTranscriptSessions(c echo.Context) error {
	sessions, err := h.transcripts.Sessions(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list transcript sessions", "error", err)
		return shared.InternalError("history_failed", "failed to read transcript history")
	}
	if sessions == nil {
		sessions = []string{}
	}
	return c.JSON(http.StatusOK, dto.TranscriptSessionsResponse{Sessions: sessions})
}

func (h *Handler) SessionTranscript(c echo.Context) error {
	sessionID := c.Param("session_id")
	lines, err := h.transcripts.BySession(c.Request().Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to read transcript", "error", err, "session_id", sessionID)
		return shared.InternalError("history_failed", "failed to read transcript history")
	}

	resp := dto.TranscriptResponse{SessionID: sessionID, Lines: []dto.TranscriptLineResponse{}}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, dto.TranscriptLineResponse{
			SpeakerType: line.SpeakerType,
			Text:        line.Text,
			CreatedAt:   line.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// UploadAudio forwards a recorded file for offline transcription. Each
// upload gets its own backend session, unrelated to any live stream.
func (h *Handler) UploadAudio(c echo.Context) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return shared.BadRequest("audio_required", "multipart field 'audio' is required")
	}
	speaker := h.controller.SpeakerType()
	if v := c.FormValue("speaker_type"); v != "" {
		speaker, err = shared.ParseSpeakerType(v)
		if err != nil {
			return shared.BadRequest("invalid_speaker_type", "speaker_type must be one of rep, prospect, unknown")
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return shared.BadRequest("audio_unreadable", "could not read the uploaded file")
	}
	defer src.Close()

	result, err := h.uploads.Upload(c.Request().Context(), fileHeader.Filename, src, speaker)
	if err != nil {
		h.logger.Error("upload failed", "error", err, "filename", fileHeader.Filename)
		return shared.BadGateway("upload_failed", "transcription service rejected the upload")
	}
	return c.JSON(http.StatusAccepted, dto.UploadResponse{
		SessionID: result.SessionID,
		Message:   result.Message,
	})
}

func toKeywordResponse(kw keywords.Keyword) dto.KeywordResponse {
	return dto.KeywordResponse{
		ID:           kw.ID,
		Word:         kw.Word,
		TalkingPoint: kw.TalkingPoint,
		IsActive:     kw.IsActive,
	}
}
