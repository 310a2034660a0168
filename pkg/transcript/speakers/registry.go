// Package speakers keeps the identity, role, color and initials of every
// participant in a loaded hearing.
//
// A Registry is owned by a single session and is not safe for concurrent use.
package speakers

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// DefaultColor is returned by ColorOf for unknown speakers.
const DefaultColor = "#95a5a6"

// UnidentifiedLabel is the display name used for a blank speaker.
const UnidentifiedLabel = "Participante não identificado"

// DefaultPalette is the ordered color palette. Its duplicate entries are
// intentional; they only matter once the palette is exhausted.
var DefaultPalette = []string{
	"#e67e22", "#16a085", "#8e44ad", "#d35400",
	"#2ecc71", "#f1c40f", "#c0392b", "#34495e",
	"#9b59b6", "#1abc9c", "#f39c12", "#e74c3c",
	"#95a5a6", "#2980b9", "#e67e22", "#8e44ad",
}

// Entry is one speaker summary fed to LoadFromTranscript.
type Entry struct {
	Name       string `json:"name" yaml:"name"`
	Role       string `json:"role" yaml:"role"`
	Utterances int    `json:"utterances" yaml:"utterances"`
}

// Registry maps speaker names to Speaker records.
type Registry struct {
	palette      []string
	defaultColor string
	rnd          *rand.Rand
	seed         []transcript.Speaker

	speakers []*transcript.Speaker
	index    map[string]int
	seeded   map[string]bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithPalette replaces the color palette.
func WithPalette(p []string) Option {
	return func(r *Registry) {
		if len(p) > 0 {
			r.palette = append([]string(nil), p...)
		}
	}
}

// WithDefaultColor replaces the fallback color for unknown speakers.
func WithDefaultColor(c string) Option {
	return func(r *Registry) {
		if c != "" {
			r.defaultColor = c
		}
	}
}

// WithRand sets the source used once the palette is exhausted.
func WithRand(rnd *rand.Rand) Option {
	return func(r *Registry) {
		if rnd != nil {
			r.rnd = rnd
		}
	}
}

// WithSeed pre-registers a fixed cast. Seeded speakers survive Reset.
func WithSeed(seed []transcript.Speaker) Option {
	return func(r *Registry) {
		r.seed = append([]transcript.Speaker(nil), seed...)
	}
}

// New returns an empty Registry, or one holding the seed cast.
func New(opts ...Option) *Registry {
	r := &Registry{
		palette:      DefaultPalette,
		defaultColor: DefaultColor,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset()
	return r
}

// Reset drops every speaker that was not part of the seed cast.
func (r *Registry) Reset() {
	r.speakers = nil
	r.index = make(map[string]int)
	r.seeded = make(map[string]bool)
	for _, s := range r.seed {
		sp := s
		if sp.Initials == "" {
			sp.Initials = Initials(sp.Name)
		}
		if sp.Color == "" {
			sp.Color = r.nextColor()
		}
		key := fold(sp.Name)
		if _, dup := r.index[key]; dup || key == "" {
			continue
		}
		r.index[key] = len(r.speakers)
		r.seeded[key] = true
		r.speakers = append(r.speakers, &sp)
	}
}

// State is a point-in-time copy of a Registry's speakers.
type State struct {
	speakers []transcript.Speaker
	seeded   map[string]bool
}

// Snapshot copies the current speakers so they can be put back with Restore.
func (r *Registry) Snapshot() State {
	st := State{
		speakers: make([]transcript.Speaker, len(r.speakers)),
		seeded:   make(map[string]bool, len(r.seeded)),
	}
	for i, sp := range r.speakers {
		st.speakers[i] = *sp
	}
	for k, v := range r.seeded {
		st.seeded[k] = v
	}
	return st
}

// Restore replaces the registry's speakers with those of st.
func (r *Registry) Restore(st State) {
	r.speakers = make([]*transcript.Speaker, len(st.speakers))
	r.index = make(map[string]int, len(st.speakers))
	r.seeded = make(map[string]bool, len(st.seeded))
	for i := range st.speakers {
		sp := st.speakers[i]
		r.speakers[i] = &sp
		r.index[fold(sp.Name)] = i
	}
	for k, v := range st.seeded {
		r.seeded[k] = v
	}
}

// Register adds a speaker. It fails with *errors.DuplicateSpeakerError when
// the name is already present, compared case-insensitively.
func (r *Registry) Register(name, role string) (transcript.Speaker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return transcript.Speaker{}, auerrors.ErrValidation
	}
	key := fold(name)
	if _, ok := r.index[key]; ok {
		return transcript.Speaker{}, &auerrors.DuplicateSpeakerError{Name: name}
	}
	sp := &transcript.Speaker{
		Name:     name,
		Role:     strings.TrimSpace(role),
		Color:    r.nextColor(),
		Initials: Initials(name),
	}
	r.index[key] = len(r.speakers)
	r.speakers = append(r.speakers, sp)
	return *sp, nil
}

// Rename updates a speaker's name and role in place. Records referencing the
// old name must be updated by the caller.
func (r *Registry) Rename(oldName, newName, newRole string) error {
	oldKey := fold(strings.TrimSpace(oldName))
	i, ok := r.index[oldKey]
	if !ok {
		return &auerrors.NotFoundError{Kind: auerrors.KindSpeaker, Key: oldName}
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return auerrors.ErrValidation
	}
	newKey := fold(newName)
	if j, taken := r.index[newKey]; taken && j != i {
		return &auerrors.DuplicateSpeakerError{Name: newName}
	}

	sp := r.speakers[i]
	sp.Name = newName
	sp.Role = strings.TrimSpace(newRole)
	sp.Initials = Initials(newName)

	delete(r.index, oldKey)
	r.index[newKey] = i
	if r.seeded[oldKey] {
		delete(r.seeded, oldKey)
		r.seeded[newKey] = true
	}
	return nil
}

// ColorOf returns the speaker's color, or the default color when unknown.
func (r *Registry) ColorOf(name string) string {
	if sp, ok := r.lookup(name); ok {
		return sp.Color
	}
	return r.defaultColor
}

// RoleOf returns the speaker's role, or "" when unknown.
func (r *Registry) RoleOf(name string) string {
	if sp, ok := r.lookup(name); ok {
		return sp.Role
	}
	return ""
}

// DisplayName renders "Name - Role" for list headers.
func (r *Registry) DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnidentifiedLabel
	}
	sp, ok := r.lookup(name)
	if !ok || sp.Role == "" {
		return name
	}
	return sp.Name + " - " + sp.Role
}

// Get returns a copy of the named speaker.
func (r *Registry) Get(name string) (transcript.Speaker, bool) {
	sp, ok := r.lookup(name)
	if !ok {
		return transcript.Speaker{}, false
	}
	return *sp, true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// All returns every speaker in registration order.
func (r *Registry) All() []transcript.Speaker {
	out := make([]transcript.Speaker, len(r.speakers))
	for i, sp := range r.speakers {
		out[i] = *sp
	}
	return out
}

// Len returns the number of registered speakers.
func (r *Registry) Len() int {
	return len(r.speakers)
}

// LoadFromTranscript registers the speakers found in a transcript. Names that
// already exist get their utterance count refreshed in place; it never
// reports a duplicate. The returned slice holds each touched speaker once, in
// input order.
func (r *Registry) LoadFromTranscript(entries []Entry) []transcript.Speaker {
	touched := make([]transcript.Speaker, 0, len(entries))
	pos := make(map[string]int, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		key := fold(name)
		if key == "" {
			continue
		}
		if _, ok := r.index[key]; !ok {
			if _, err := r.Register(name, e.Role); err != nil {
				continue
			}
		}
		sp := r.speakers[r.index[key]]
		sp.Utterances = e.Utterances
		if p, ok := pos[key]; ok {
			touched[p] = *sp
			continue
		}
		pos[key] = len(touched)
		touched = append(touched, *sp)
	}
	return touched
}

// Reload drops non-seeded speakers, zeroes the seed cast's counts and loads
// entries.
func (r *Registry) Reload(entries []Entry) []transcript.Speaker {
	r.Reset()
	for _, sp := range r.speakers {
		sp.Utterances = 0
	}
	return r.LoadFromTranscript(entries)
}

func (r *Registry) lookup(name string) (*transcript.Speaker, bool) {
	i, ok := r.index[fold(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return r.speakers[i], true
}

// nextColor picks the first palette color no speaker uses, or a random
// palette entry once every color is taken.
func (r *Registry) nextColor() string {
	used := make(map[string]bool, len(r.speakers))
	for _, sp := range r.speakers {
		used[strings.ToLower(sp.Color)] = true
	}
	for _, c := range r.palette {
		if !used[strings.ToLower(c)] {
			return c
		}
	}
	return r.palette[r.rnd.Intn(len(r.palette))]
}

// Initials returns the upper-cased first letters of the first two words of
// name, or its first two characters when it is a single word.
func Initials(name string) string {
	words := strings.Fields(name)
	switch {
	case len(words) == 0:
		return ""
	case len(words) == 1:
		runes := []rune(words[0])
		if len(runes) > 2 {
			runes = runes[:2]
		}
		return strings.ToUpper(string(runes))
	default:
		a := []rune(words[0])[0]
		b := []rune(words[1])[0]
		return string([]rune{unicode.ToUpper(a), unicode.ToUpper(b)})
	}
}

func fold(name string) string {
	return cases.Fold().String(name)
}
