package diagnosis

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Stage int

const (
	StageValidating Stage = iota
	StageIdentifying
	StageDiseaseScan
	StageTreatmentLookup
	StageAdvisory
	StageFinalizing
	StageComplete
	StageError
)

var stageNames = [...]string{
	StageValidating:      "Validating",
	StageIdentifying:     "Identifying",
	StageDiseaseScan:     "DiseaseScan",
	StageTreatmentLookup: "TreatmentLookup",
	StageAdvisory:        "Advisory",
	StageFinalizing:      "Finalizing",
	StageComplete:        "Complete",
	StageError:           "Error",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Session is the state of one diagnosis run. It lives only as long as the run.
type Session struct {
	ID        uuid.UUID
	ImageRef  string
	Stage     Stage
	StartedAt time.Time
}

func NewSession(imageRef string) *Session {
	return &Session{
		ID:        uuid.New(),
		ImageRef:  imageRef,
		Stage:     StageValidating,
		StartedAt: time.Now(),
	}
}

// Advance moves the session forward. Stages may be skipped but never revisited;
// Error is reachable from any non-terminal stage.
func (s *Session) Advance(next Stage) error {
	switch {
	case s.Stage.Terminal():
		return fmt.Errorf("%w: session already %s", ErrStageRegressed, s.Stage)
	case next == StageError:
	case next < s.Stage:
		return fmt.Errorf("%w: %s after %s", ErrStageRegressed, next, s.Stage)
	}
	s.Stage = next
	return nil
}
