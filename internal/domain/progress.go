package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Set is an unordered collection of identifiers with membership-only semantics.
// It is encoded as a sorted JSON array.
type Set map[string]struct{}

// NewSet builds a set from the given identifiers. Duplicates collapse.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a member.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether it was newly added.
func (s Set) Add(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewSet(ids...)
	return nil
}

// Snapshot is the complete persisted progress of one learner.
// Level is a cache of the level resolved from XP and is recomputed on every mutation.
type Snapshot struct {
	ID               uuid.UUID `json:"id"`
	XP               int       `json:"xp"`
	Level            int       `json:"level"`
	Streak           int       `json:"streak"`
	LastActivityDate string    `json:"lastActivityDate,omitempty"`
	CompletedLessons Set       `json:"completedLessons"`
	CompletedQuizzes Set       `json:"completedQuizzes"`
	CompletedGames   Set       `json:"completedGames"`
	Badges           Set       `json:"badges"`
}

// NewSnapshot returns a default snapshot with a fresh random identifier.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ID:               uuid.New(),
		Level:            1,
		CompletedLessons: NewSet(),
		CompletedQuizzes: NewSet(),
		CompletedGames:   NewSet(),
		Badges:           NewSet(),
	}
}

// Normalize fills in sets missing from a decoded document and assigns an
// identifier if none was stored. Negative counters are clamped to zero; each
// clamp is reported so the caller can surface the repair.
func (p *Snapshot) Normalize() (repairs []string) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CompletedLessons == nil {
		p.CompletedLessons = NewSet()
	}
	if p.CompletedQuizzes == nil {
		p.CompletedQuizzes = NewSet()
	}
	if p.CompletedGames == nil {
		p.CompletedGames = NewSet()
	}
	if p.Badges == nil {
		p.Badges = NewSet()
	}
	if p.XP < 0 {
		repairs = append(repairs, fmt.Sprintf("xp %d clamped to 0", p.XP))
		p.XP = 0
	}
	if p.Streak < 0 {
		repairs = append(repairs, fmt.Sprintf("streak %d clamped to 0", p.Streak))
		p.Streak = 0
	}
	return repairs
}

// Clone returns a deep copy.
func (p *Snapshot) Clone() *Snapshot {
	c := *p
	c.CompletedLessons = p.CompletedLessons.Clone()
	c.CompletedQuizzes = p.CompletedQuizzes.Clone()
	c.CompletedGames = p.CompletedGames.Clone()
	c.Badges = p.Badges.Clone()
	return &c
}

const perfectSuffix = "-perfect"

// PerfectQuizID is the completion identifier recorded for a quiz passed with full marks.
func PerfectQuizID(quizID string) string {
	return quizID + perfectSuffix
}

// PerfectQuizCount counts the perfect-quiz markers in the completion set.
func (p *Snapshot) PerfectQuizCount() int {
	n := 0
	for id := range p.CompletedQuizzes {
		if strings.HasSuffix(id, perfectSuffix) {
			n++
		}
	}
	return n
}

// QuizPassed reports whether the quiz was recorded in either its plain or perfect form.
func (p *Snapshot) QuizPassed(quizID string) bool {
	return p.CompletedQuizzes.Has(quizID) || p.CompletedQuizzes.Has(PerfectQuizID(quizID))
}
