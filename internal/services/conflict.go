package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/types"
)

// SchedulingPolicy holds the temporal rules of the conflict checker. One
// policy applies uniformly to every scheduling path.
type SchedulingPolicy struct {
	// MinDuration is the shortest legal lesson.
	MinDuration time.Duration
	// TeacherBreak is the idle time required between two consecutive
	// lessons of the same teacher.
	TeacherBreak time.Duration
	// PastGrace absorbs client/server clock skew on the past-booking
	// guard: a start this far in the past is still accepted.
	PastGrace time.Duration
}

func DefaultSchedulingPolicy() SchedulingPolicy {
	return SchedulingPolicy{
		MinDuration:  30 * time.Minute,
		TeacherBreak: 15 * time.Minute,
		PastGrace:    5 * time.Minute,
	}
}

// ConflictChecker decides whether a candidate window is legal given the
// current active lessons of the teacher and the student. It is a pure
// decision function: callers load state, it only judges.
type ConflictChecker struct {
	Policy SchedulingPolicy
}

func NewConflictChecker(policy SchedulingPolicy) *ConflictChecker {
	return &ConflictChecker{Policy: policy}
}

// CheckWindow validates the candidate (start, end) against the given
// lessons. Only active lessons count and the excluded instance (edit path)
// never does. Violations are reported in a fixed order: shape of the
// window, past guard, teacher overlap, teacher previous-neighbor break,
// teacher next-neighbor break, student overlap.
func (c *ConflictChecker) CheckWindow(
	now, start, end time.Time,
	teacherLessons, studentLessons []*types.Lesson,
	exclude uuid.UUID,
) error {
	if !end.After(start) {
		return fmt.Errorf("%w: lesson end must be after its start", ErrValidation)
	}
	if end.Sub(start) < c.Policy.MinDuration {
		return fmt.Errorf("%w: minimum lesson duration is %d minutes", ErrValidation, int(c.Policy.MinDuration.Minutes()))
	}
	if start.Before(now.Add(-c.Policy.PastGrace)) {
		return fmt.Errorf("%w: lesson cannot be scheduled in the past", ErrValidation)
	}

	teacher := relevant(teacherLessons, exclude)
	if hit := firstOverlap(teacher, start, end); hit != nil {
		return fmt.Errorf("%w: teacher already has a lesson from %s to %s",
			ErrValidation, hit.StartTime.UTC().Format("15:04"), hit.EndTime.UTC().Format("15:04"))
	}
	if prev := latestEndingAtOrBefore(teacher, start); prev != nil {
		if gap := start.Sub(prev.EndTime); gap < c.Policy.TeacherBreak {
			return fmt.Errorf("%w: teacher needs a %d-minute break after the lesson ending at %s",
				ErrValidation, int(c.Policy.TeacherBreak.Minutes()), prev.EndTime.UTC().Format("15:04"))
		}
	}
	if next := earliestStartingAtOrAfter(teacher, end); next != nil {
		if gap := next.StartTime.Sub(end); gap < c.Policy.TeacherBreak {
			return fmt.Errorf("%w: teacher needs a %d-minute break before the lesson starting at %s",
				ErrValidation, int(c.Policy.TeacherBreak.Minutes()), next.StartTime.UTC().Format("15:04"))
		}
	}

	student := relevant(studentLessons, exclude)
	if hit := firstOverlap(student, start, end); hit != nil {
		return fmt.Errorf("%w: student already has a lesson from %s to %s",
			ErrValidation, hit.StartTime.UTC().Format("15:04"), hit.EndTime.UTC().Format("15:04"))
	}
	return nil
}

func relevant(lessons []*types.Lesson, exclude uuid.UUID) []*types.Lesson {
	out := make([]*types.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l == nil || !l.IsActive() {
			continue
		}
		if exclude != uuid.Nil && l.ID == exclude {
			continue
		}
		out = append(out, l)
	}
	return out
}

// firstOverlap applies the half-open interval test:
// existing.start < end AND existing.end > start.
func firstOverlap(lessons []*types.Lesson, start, end time.Time) *types.Lesson {
	for _, l := range lessons {
		if l.StartTime.Before(end) && l.EndTime.After(start) {
			return l
		}
	}
	return nil
}

func latestEndingAtOrBefore(lessons []*types.Lesson, start time.Time) *types.Lesson {
	var best *types.Lesson
	for _, l := range lessons {
		if l.EndTime.After(start) {
			continue
		}
		if best == nil || l.EndTime.After(best.EndTime) {
			best = l
		}
	}
	return best
}

func earliestStartingAtOrAfter(lessons []*types.Lesson, end time.Time) *types.Lesson {
	var best *types.Lesson
	for _, l := range lessons {
		if l.StartTime.Before(end) {
			continue
		}
		if best == nil || l.StartTime.Before(best.StartTime) {
			best = l
		}
	}
	return best
}
