package command

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/content"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// fakeRepo is an in-memory progress.Repository for handler tests.
// It mimics the transactional guarantees of the real storage: the unique
// (user, lesson) pair and all-or-nothing mutation via the closure.
type fakeRepo struct {
	mu          sync.Mutex
	progress    map[string]*progress.UserProgress
	completions map[string]*progress.LessonCompletion
	adjustments []*progress.AdminAdjustment

	recordErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		progress:    make(map[string]*progress.UserProgress),
		completions: make(map[string]*progress.LessonCompletion),
	}
}

func completionKey(userID, lessonID string) string {
	return userID + "|" + lessonID
}

func (r *fakeRepo) GetOrCreateProgress(_ context.Context, userID string) (*progress.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(userID), nil
}

func (r *fakeRepo) getOrCreateLocked(userID string) *progress.UserProgress {
	if p, ok := r.progress[userID]; ok {
		return p
	}
	p := progress.NewUserProgress(userID)
	r.progress[userID] = p
	return p
}

func (r *fakeRepo) MutateProgress(_ context.Context, userID string, fn progress.MutateFunc) (*progress.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.getOrCreateLocked(userID)
	working := *p
	if err := fn(&working); err != nil {
		return nil, err
	}
	r.progress[userID] = &working
	result := working
	return &result, nil
}

func (r *fakeRepo) GetCompletion(_ context.Context, userID, lessonID string) (*progress.LessonCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.completions[completionKey(userID, lessonID)]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, shared.ErrCompletionNotFound
}

func (r *fakeRepo) ListCompletions(_ context.Context, userID string) ([]*progress.LessonCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*progress.LessonCompletion
	for _, c := range r.completions {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (r *fakeRepo) CountCompletions(ctx context.Context, userID string) (int, error) {
	list, err := r.ListCompletions(ctx, userID)
	return len(list), err
}

func (r *fakeRepo) ListCompletionTimes(ctx context.Context, userID string) ([]time.Time, error) {
	list, err := r.ListCompletions(ctx, userID)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, 0, len(list))
	for _, c := range list {
		times = append(times, c.CompletedAt)
	}
	return times, nil
}

func (r *fakeRepo) RecordCompletion(_ context.Context, completion *progress.LessonCompletion, fn progress.MutateFunc) (*progress.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recordErr != nil {
		return nil, r.recordErr
	}

	key := completionKey(completion.UserID, completion.LessonID)
	if _, exists := r.completions[key]; exists {
		return nil, shared.ErrLessonAlreadyCompleted
	}

	p := r.getOrCreateLocked(completion.UserID)
	working := *p
	if err := fn(&working); err != nil {
		return nil, err
	}

	stored := *completion
	r.completions[key] = &stored
	r.progress[completion.UserID] = &working
	result := working
	return &result, nil
}

func (r *fakeRepo) RecordAdjustment(_ context.Context, adj *progress.AdminAdjustment, fn progress.MutateFunc) (*progress.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.getOrCreateLocked(adj.TargetUserID)
	working := *p
	if err := fn(&working); err != nil {
		return nil, err
	}
	r.progress[adj.TargetUserID] = &working
	stored := *adj
	r.adjustments = append(r.adjustments, &stored)
	result := working
	return &result, nil
}

func (r *fakeRepo) ResetProgress(_ context.Context, adj *progress.AdminAdjustment) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for key, c := range r.completions {
		if c.UserID == adj.TargetUserID {
			delete(r.completions, key)
			deleted++
		}
	}
	p := r.getOrCreateLocked(adj.TargetUserID)
	working := *p
	working.ResetToDefaults()
	r.progress[adj.TargetUserID] = &working

	stored := *adj
	r.adjustments = append(r.adjustments, &stored)
	return deleted, nil
}

// fakeCatalog is an in-memory content.Lookup.
type fakeCatalog struct {
	lessons map[string]*content.LessonInfo
	stats   content.CourseStats
}

func newFakeCatalog(lessons ...*content.LessonInfo) *fakeCatalog {
	c := &fakeCatalog{lessons: make(map[string]*content.LessonInfo)}
	for _, l := range lessons {
		c.lessons[l.ID] = l
	}
	return c
}

func (c *fakeCatalog) LessonExists(_ context.Context, lessonID string) (bool, error) {
	_, ok := c.lessons[lessonID]
	return ok, nil
}

func (c *fakeCatalog) GetLesson(_ context.Context, lessonID string) (*content.LessonInfo, error) {
	if l, ok := c.lessons[lessonID]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, shared.ErrLessonNotFound
}

func (c *fakeCatalog) TotalLessonCount(_ context.Context) (int, error) {
	return len(c.lessons), nil
}

func (c *fakeCatalog) GetCourseStats(_ context.Context, _ string) (*content.CourseStats, error) {
	stats := c.stats
	return &stats, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.Event, len(p.events))
	copy(out, p.events)
	return out
}

func intPtr(v int) *int { return &v }
