package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/contextfilter"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/export"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/playback"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/search"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/session"
)

// UserHeader names the edit author of a request.
const UserHeader = "X-Audiencia-User"

const maxBodyBytes = 1 << 20

// Handler serves a single session.
type Handler struct {
	Session *session.Session
	Player  *playback.Controller
	Case    export.CaseInfo
	// User is the edit author when a request carries no UserHeader.
	User   string
	Logger logging.Logger
	Now    func() time.Time
}

// NewHandler returns a Handler with a nop logger and the wall clock.
func NewHandler(s *session.Session, player *playback.Controller, info export.CaseInfo, user string) *Handler {
	return &Handler{
		Session: s,
		Player:  player,
		Case:    info,
		User:    user,
		Logger:  logging.NewNopLogger(),
		Now:     time.Now,
	}
}

type errorResponse struct {
	Error string             `json:"error"`
	Code  auerrors.ErrorCode `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func statusFor(err error) int {
	switch {
	case auerrors.IsNotFound(err):
		return http.StatusNotFound
	case auerrors.IsConflict(err):
		return http.StatusConflict
	case auerrors.IsValidation(err), errors.Is(err, auerrors.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithContext(r.Context()).Error("Request failed",
			logging.F("path", r.URL.Path),
			logging.Err(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: auerrors.Classify(err)})
}

func (h *Handler) user(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(UserHeader)); u != "" {
		return u
	}
	return h.User
}

func recordID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("record id %q: %w", raw, auerrors.ErrValidation)
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("request body: %v: %w", err, auerrors.ErrValidation)
	}
	return nil
}

type recordsResponse struct {
	Records      []transcript.Record `json:"records"`
	Total        int                 `json:"total"`
	Duration     float64             `json:"duration_seconds"`
	Pending      int                 `json:"pending_changes"`
	ActiveFilter string              `json:"active_filter,omitempty"`
}

// Records lists every record.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	recs := h.Session.Records()
	writeJSON(w, http.StatusOK, recordsResponse{
		Records:      recs,
		Total:        len(recs),
		Duration:     h.Session.Duration(),
		Pending:      h.Session.PendingChanges(),
		ActiveFilter: h.Session.ActiveFilter(),
	})
}

// Record returns one record.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.Session.Record(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type textRequest struct {
	Text string `json:"text"`
}

// EditText replaces a record's text.
func (h *Handler) EditText(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req textRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	change, err := h.Session.EditText(r.Context(), id, req.Text, h.user(r))
	h.writeChange(w, r, id, change, err)
}

type speakerRequest struct {
	Speaker string `json:"speaker"`
}

// ReassignSpeaker attributes a record to another speaker.
func (h *Handler) ReassignSpeaker(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req speakerRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	change, err := h.Session.ReassignSpeaker(r.Context(), id, req.Speaker, h.user(r))
	h.writeChange(w, r, id, change, err)
}

type noteRequest struct {
	Note string `json:"note"`
}

// Annotate sets a record's note.
func (h *Handler) Annotate(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req noteRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	change, err := h.Session.Annotate(r.Context(), id, req.Note, h.user(r))
	h.writeChange(w, r, id, change, err)
}

type changeResponse struct {
	Record  transcript.Record  `json:"record"`
	Change  *transcript.Change `json:"change,omitempty"`
	Changed bool               `json:"changed"`
}

func (h *Handler) writeChange(w http.ResponseWriter, r *http.Request, id int, change transcript.Change, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.Session.Record(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := changeResponse{Record: rec}
	if change.ID != "" {
		resp.Change = &change
		resp.Changed = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// ToggleMark flips a record's mark.
func (h *Handler) ToggleMark(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	marked, err := h.Session.ToggleMark(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "marked": marked})
}

type reviewedRequest struct {
	Reviewed bool `json:"reviewed"`
}

// MarkReviewed sets a record's reviewed flag.
func (h *Handler) MarkReviewed(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req reviewedRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Session.MarkReviewed(r.Context(), id, req.Reviewed); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "reviewed": req.Reviewed})
}

// Speakers lists every registered speaker.
func (h *Handler) Speakers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"speakers": h.Session.Speakers()})
}

type renameRequest struct {
	Old  string `json:"old"`
	New  string `json:"new"`
	Role string `json:"role,omitempty"`
}

// RenameSpeaker renames a speaker across every record.
func (h *Handler) RenameSpeaker(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.Session.RenameSpeaker(r.Context(), req.Old, req.New, req.Role, h.user(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sp, err := h.Session.Speaker(req.New)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"speaker": sp, "records_updated": updated})
}

type searchResponse struct {
	Term    string         `json:"term"`
	Matches []search.Match `json:"matches"`
	Records int            `json:"records"`
}

// Search finds the q parameter in every record.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	matches := h.Session.Search(r.Context(), term)
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		seen[m.RecordIndex] = true
	}
	writeJSON(w, http.StatusOK, searchResponse{Term: term, Matches: matches, Records: len(seen)})
}

// Filter shows a speaker's records with context.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	speaker := q.Get("speaker")
	if strings.TrimSpace(speaker) == "" {
		h.writeError(w, r, fmt.Errorf("speaker parameter: %w", auerrors.ErrValidation))
		return
	}
	window := -1
	if raw := q.Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, fmt.Errorf("window %q: %w", raw, auerrors.ErrValidation))
			return
		}
		window = n
	}
	entries := h.Session.FilterBySpeaker(r.Context(), speaker, window)
	if entries == nil {
		entries = []contextfilter.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"speaker": speaker, "entries": entries})
}

// History lists every change, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"changes": h.Session.History(),
		"pending": h.Session.PendingChanges(),
	})
}

// Play starts the record's segment with auto-stop.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.Session.Record(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Player.PlayRecord(rec); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Player.Snapshot())
}

// Pause cancels the pending auto-stop and pauses.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.Player.Stop(); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Player.Snapshot())
}

type playbackResponse struct {
	playback.Snapshot
	ActiveRecord int `json:"active_record,omitempty"`
}

// Playback reports the player state and the record under the playhead.
func (h *Handler) Playback(w http.ResponseWriter, r *http.Request) {
	snap := h.Player.Snapshot()
	resp := playbackResponse{Snapshot: snap}
	recs := h.Session.Records()
	if i := playback.ActiveIndex(recs, snap.CurrentTime); i >= 0 {
		resp.ActiveRecord = recs[i].ID
	}
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	export.FormatMinute: "text/plain; charset=utf-8",
	export.FormatJSON:   "application/json",
	export.FormatYAML:   "application/yaml",
}

// Export renders the session in the format parameter (minute by default).
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatMinute
	}
	doc := export.NewDocument(h.Case, h.Session.Records(), h.Session.Speakers(), h.Now())

	var buf bytes.Buffer
	if err := export.Write(&buf, format, doc); err != nil {
		h.writeError(w, r, err)
		return
	}
	name := export.FileName(h.Case.Number, export.Extension(format))
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
