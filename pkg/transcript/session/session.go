// Package session owns the records and speakers of one loaded hearing and
// applies every edit to them.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/events"
	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/contextfilter"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/ingest"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/search"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript/speakers"
)

// Notifier receives session changes. *events.Publisher implements it.
type Notifier interface {
	PublishTranscriptLoaded(ctx context.Context, params events.TranscriptLoadedParams) error
	PublishRecordEdited(ctx context.Context, sessionID string, change transcript.Change) error
	PublishRecordAnnotated(ctx context.Context, sessionID string, record transcript.Record, user string) error
	PublishSpeakerRenamed(ctx context.Context, params events.SpeakerRenamedParams) error
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	id       string
	registry *speakers.Registry
	ingestor *ingest.Ingestor

	records []transcript.Record
	byID    map[int]int
	history []transcript.Change
	pending int
	cursor  search.Cursor
	filter  *contextfilter.Toggle
	window  int

	notifier Notifier
	logger   logging.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	now      func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier publishes every change to n.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMetrics records search, filter and edit metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithTracer records search, filter and edit spans.
func WithTracer(t *observability.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// WithWindow sets the context window used by speaker filters.
func WithWindow(n int) Option {
	return func(s *Session) { s.window = n }
}

// WithClock replaces time.Now for change timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New returns an empty session. Speakers live in the ingestor's registry.
func New(in *ingest.Ingestor, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		registry: in.Registry(),
		ingestor: in,
		byID:     make(map[int]int),
		window:   contextfilter.DefaultWindow,
		logger:   logging.NewNopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.filter = contextfilter.NewToggle(s.window)
	s.logger = s.logger.With(logging.F("session_id", s.id))
	return s
}

// ID identifies the session in logs and events.
func (s *Session) ID() string { return s.id }

// Load replaces every record with the ingestion of rows. Speakers that are
// not part of the registry's seed cast are dropped first. History and the
// pending counter are reset. A failed load leaves the session untouched.
func (s *Session) Load(ctx context.Context, rows []transcript.RawRow) (*ingest.Result, error) {
	s.mu.Lock()
	prev := s.registry.Snapshot()
	s.registry.Reset()
	res, err := s.ingestor.Ingest(ctx, rows)
	if err != nil {
		s.registry.Restore(prev)
		s.mu.Unlock()
		return nil, err
	}
	s.records = res.Records
	s.reindexLocked()
	s.history = nil
	s.pending = 0
	s.cursor.Clear()
	s.filter.Clear()
	duration := s.durationLocked()
	s.mu.Unlock()

	s.notify(ctx, "transcript.loaded", func(n Notifier) error {
		return n.PublishTranscriptLoaded(ctx, events.TranscriptLoadedParams{
			SessionID: s.id,
			Format:    s.ingestor.Source(),
			Records:   len(res.Records),
			Skipped:   len(res.Skipped),
			Speakers:  len(res.Speakers),
			Duration:  duration,
		})
	})
	return res, nil
}

func (s *Session) reindexLocked() {
	s.byID = make(map[int]int, len(s.records))
	for i, r := range s.records {
		s.byID[r.ID] = i
	}
}

func (s *Session) indexLocked(id int) (int, error) {
	i, ok := s.byID[id]
	if !ok {
		return 0, &auerrors.NotFoundError{Kind: auerrors.KindRecord, Key: strconv.Itoa(id)}
	}
	return i, nil
}

// notify runs publish when a notifier is configured. Publish failures are
// logged; they never fail the edit.
func (s *Session) notify(ctx context.Context, event string, publish func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := publish(s.notifier); err != nil {
		s.logger.WithContext(ctx).Warn("Event not published",
			logging.F("event", event),
			logging.Err(err))
	}
}

// Records returns a copy of every record in order.
func (s *Session) Records() []transcript.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transcript.CloneRecords(s.records)
}

// Record returns a copy of the record with id.
func (s *Session) Record(id int) (transcript.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.indexLocked(id)
	if err != nil {
		return transcript.Record{}, err
	}
	return transcript.CloneRecords(s.records[i : i+1])[0], nil
}

// Len returns the number of records.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Speakers returns every registered speaker with current utterance counts.
func (s *Session) Speakers() []transcript.Speaker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.All()
}

// Speaker returns the named speaker.
func (s *Session) Speaker(name string) (transcript.Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.registry.Get(name)
	if !ok {
		return transcript.Speaker{}, &auerrors.NotFoundError{Kind: auerrors.KindSpeaker, Key: name}
	}
	return sp, nil
}

// DisplayName renders "Name - Role" for a speaker.
func (s *Session) DisplayName(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.DisplayName(name)
}

// ColorOf returns the speaker's color.
func (s *Session) ColorOf(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.ColorOf(name)
}

// Participants summarizes each speaker's share of the hearing, most active
// first.
func (s *Session) Participants() []ingest.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps := ingest.Participants(s.records)
	for i := range ps {
		ps[i].Role = s.registry.RoleOf(ps[i].Name)
	}
	return ps
}

// Duration returns the end of the last record in seconds.
func (s *Session) Duration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.durationLocked()
}

func (s *Session) durationLocked() float64 {
	if len(s.records) == 0 {
		return 0
	}
	return s.records[len(s.records)-1].EndSeconds
}

// History returns every change, newest first.
func (s *Session) History() []transcript.Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]transcript.Change, len(s.history))
	for i, c := range s.history {
		out[len(s.history)-1-i] = c
	}
	return out
}

// PendingChanges counts edits since the last ClearPending.
func (s *Session) PendingChanges() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// ClearPending resets the pending counter after the edits are saved.
func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = 0
}

// Search finds term in every record and selects the first match.
func (s *Session) Search(ctx context.Context, term string) []search.Match {
	_, span := s.tracer.StartSearchSpan(ctx, len([]rune(term)))
	s.mu.Lock()
	matches := s.cursor.Reset(s.records, term)
	s.mu.Unlock()

	s.metrics.RecordSearch(len(matches))
	observability.EndWithError(span, nil)
	return append([]search.Match(nil), matches...)
}

// SearchTerm returns the active search term.
func (s *Session) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor.Term()
}

// NextMatch moves to the next match of the active search.
func (s *Session) NextMatch() (search.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Next()
}

// PreviousMatch moves to the previous match of the active search.
func (s *Session) PreviousMatch() (search.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Previous()
}

// FilterBySpeaker returns the speaker's records with window context records
// on each side. A negative window uses the session's.
func (s *Session) FilterBySpeaker(ctx context.Context, name string, window int) []contextfilter.Entry {
	if window < 0 {
		window = s.window
	}
	_, span := s.tracer.StartFilterSpan(ctx, name, window)
	s.mu.RLock()
	entries := contextfilter.FilterBySpeaker(s.records, name, window)
	s.mu.RUnlock()

	s.metrics.RecordFilter("apply")
	observability.EndWithError(span, nil)
	return entries
}

// ToggleSpeakerFilter applies the speaker filter, or clears it when name is
// already the active filter.
func (s *Session) ToggleSpeakerFilter(name string) (entries []contextfilter.Entry, cleared bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, cleared = s.filter.Apply(s.records, name)
	if cleared {
		s.metrics.RecordFilter("clear")
	} else {
		s.metrics.RecordFilter("apply")
	}
	return entries, cleared
}

// View returns the records under the current filter.
func (s *Session) View() []contextfilter.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.View(s.records)
}

// ActiveFilter returns the filtered speaker, or "".
func (s *Session) ActiveFilter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.Active()
}

func (s *Session) newChange(recordID int, kind transcript.ChangeKind, user, prev, next string) transcript.Change {
	return transcript.Change{
		ID:       uuid.NewString(),
		RecordID: recordID,
		At:       s.now().UTC(),
		User:     strings.TrimSpace(user),
		Kind:     kind,
		Previous: prev,
		Next:     next,
	}
}

// appendLocked records c on its record and in the session history.
func (s *Session) appendLocked(i int, c transcript.Change) {
	s.records[i].Changes = append(s.records[i].Changes, c)
	s.history = append(s.history, c)
	s.pending++
	s.metrics.RecordEdit(string(c.Kind))
}

// refreshCountsLocked recomputes every registered speaker's utterance count.
func (s *Session) refreshCountsLocked() {
	entries := ingest.Entries(ingest.Participants(s.records))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[strings.ToLower(e.Name)] = true
	}
	for _, sp := range s.registry.All() {
		if !seen[strings.ToLower(sp.Name)] {
			entries = append(entries, speakers.Entry{Name: sp.Name, Role: sp.Role})
		}
	}
	s.registry.LoadFromTranscript(entries)
}

// EditText replaces a record's text and recomputes its confidence. An
// unchanged text is not recorded and returns a zero Change.
func (s *Session) EditText(ctx context.Context, id int, text, user string) (transcript.Change, error) {
	ctx, span := s.tracer.StartEditSpan(ctx, id)
	change, err := s.editText(id, text, user)
	observability.EndWithError(span, err)
	if err != nil || change.ID == "" {
		return change, err
	}
	s.logger.WithContext(ctx).Info("Record text edited",
		logging.F("record_id", id),
		logging.F("change_id", change.ID))
	s.notify(ctx, "record.edited", func(n Notifier) error {
		return n.PublishRecordEdited(ctx, s.id, change)
	})
	return change, nil
}

func (s *Session) editText(id int, text, user string) (transcript.Change, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return transcript.Change{}, fmt.Errorf("record %d text: %w", id, auerrors.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexLocked(id)
	if err != nil {
		return transcript.Change{}, err
	}
	rec := &s.records[i]
	if rec.Text == text {
		return transcript.Change{}, nil
	}

	c := s.newChange(id, transcript.ChangeText, user, rec.Text, text)
	markers := s.ingestor.Markers()
	rec.Text = text
	rec.ConfidenceLevel = markers.Level(text)
	rec.ConfidenceScore = float64(markers.Score(text)) / 100
	s.appendLocked(i, c)
	s.cursor.Refresh(s.records)
	return c, nil
}

// ReassignSpeaker attributes a record to another speaker, registering the
// speaker with an inferred role when unknown.
func (s *Session) ReassignSpeaker(ctx context.Context, id int, name, user string) (transcript.Change, error) {
	ctx, span := s.tracer.StartEditSpan(ctx, id)
	change, err := s.reassign(id, name, user)
	observability.EndWithError(span, err)
	if err != nil || change.ID == "" {
		return change, err
	}
	s.logger.WithContext(ctx).Info("Record speaker changed",
		logging.F("record_id", id),
		logging.F("from", change.Previous),
		logging.F("to", change.Next))
	s.notify(ctx, "record.edited", func(n Notifier) error {
		return n.PublishRecordEdited(ctx, s.id, change)
	})
	return change, nil
}

func (s *Session) reassign(id int, name, user string) (transcript.Change, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = speakers.UnidentifiedLabel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexLocked(id)
	if err != nil {
		return transcript.Change{}, err
	}
	if !s.registry.Has(name) {
		if _, err := s.registry.Register(name, speakers.InferRole(name)); err != nil {
			return transcript.Change{}, err
		}
		s.metrics.RecordSpeakerRegistered()
	}
	sp, _ := s.registry.Get(name)

	rec := &s.records[i]
	if rec.Speaker == sp.Name {
		return transcript.Change{}, nil
	}
	c := s.newChange(id, transcript.ChangeSpeaker, user, rec.Speaker, sp.Name)
	rec.Speaker = sp.Name
	s.appendLocked(i, c)
	s.refreshCountsLocked()
	return c, nil
}

// RenameSpeaker renames a speaker and every record attributed to it. A blank
// role keeps the current one. It returns the number of records updated.
func (s *Session) RenameSpeaker(ctx context.Context, oldName, newName, role, user string) (int, error) {
	s.mu.Lock()
	sp, ok := s.registry.Get(oldName)
	if !ok {
		s.mu.Unlock()
		return 0, &auerrors.NotFoundError{Kind: auerrors.KindSpeaker, Key: oldName}
	}
	if strings.TrimSpace(role) == "" {
		role = sp.Role
	}
	if err := s.registry.Rename(sp.Name, newName, role); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	renamed, _ := s.registry.Get(newName)

	updated := 0
	for i := range s.records {
		if !strings.EqualFold(s.records[i].Speaker, sp.Name) {
			continue
		}
		c := s.newChange(s.records[i].ID, transcript.ChangeSpeaker, user, s.records[i].Speaker, renamed.Name)
		c.Comment = "rename"
		s.records[i].Speaker = renamed.Name
		s.appendLocked(i, c)
		updated++
	}
	s.filter.Rename(sp.Name, renamed.Name)
	s.cursor.Refresh(s.records)
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("Speaker renamed",
		logging.F("from", sp.Name),
		logging.F("to", renamed.Name),
		logging.F("records", updated))
	s.notify(ctx, "speaker.renamed", func(n Notifier) error {
		return n.PublishSpeakerRenamed(ctx, events.SpeakerRenamedParams{
			SessionID:      s.id,
			OldName:        sp.Name,
			NewName:        renamed.Name,
			Role:           renamed.Role,
			RecordsUpdated: updated,
		})
	})
	return updated, nil
}

// Annotate sets a record's note. A blank note removes it.
func (s *Session) Annotate(ctx context.Context, id int, note, user string) (transcript.Change, error) {
	ctx, span := s.tracer.StartEditSpan(ctx, id)
	note = strings.TrimSpace(note)

	s.mu.Lock()
	i, err := s.indexLocked(id)
	if err != nil {
		s.mu.Unlock()
		observability.EndWithError(span, err)
		return transcript.Change{}, err
	}
	rec := &s.records[i]
	if rec.Note == note {
		s.mu.Unlock()
		observability.EndWithError(span, nil)
		return transcript.Change{}, nil
	}
	c := s.newChange(id, transcript.ChangeNote, user, rec.Note, note)
	rec.Note = note
	s.appendLocked(i, c)
	snapshot := *rec
	s.mu.Unlock()
	observability.EndWithError(span, nil)

	s.notify(ctx, "record.annotated", func(n Notifier) error {
		return n.PublishRecordAnnotated(ctx, s.id, snapshot, c.User)
	})
	return c, nil
}

// ToggleMark flips a record's mark and reports the new state.
func (s *Session) ToggleMark(ctx context.Context, id int) (bool, error) {
	rec, err := s.setFlag(id, func(r *transcript.Record) { r.Marked = !r.Marked })
	if err != nil {
		return false, err
	}
	s.notify(ctx, "record.annotated", func(n Notifier) error {
		return n.PublishRecordAnnotated(ctx, s.id, rec, "")
	})
	return rec.Marked, nil
}

// MarkReviewed sets a record's reviewed flag.
func (s *Session) MarkReviewed(ctx context.Context, id int, reviewed bool) error {
	rec, err := s.setFlag(id, func(r *transcript.Record) { r.Reviewed = reviewed })
	if err != nil {
		return err
	}
	s.notify(ctx, "record.annotated", func(n Notifier) error {
		return n.PublishRecordAnnotated(ctx, s.id, rec, "")
	})
	return nil
}

func (s *Session) setFlag(id int, set func(*transcript.Record)) (transcript.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexLocked(id)
	if err != nil {
		return transcript.Record{}, err
	}
	set(&s.records[i])
	s.pending++
	return transcript.CloneRecords(s.records[i : i+1])[0], nil
}
