package course

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/markdown"
	"github.com/speakwell/academy/core/visibility"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrModuleNotFound = errors.New("module not found")

	errMissingMedia = errors.New("media lessons need a media url")
	errMediaURLText = "this field is required for audio, video and image lessons"

	// namespace of the ids derived from imported content
	idNamespace = uuid.MustParse("3d0c6a2e-51b4-4f0e-9a7d-2c85e1f4b6a9")

	// share of the end marker that must be on screen for a lesson to count as read
	endMarkerThreshold = 0.5
)

const (
	defaultGateTTL  = 2 * time.Hour
	defaultMaxGates = 10000
)

type (
	Repository interface {
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Course.Title or Course.Description.
		// Modules are not loaded.
		QueryCourses(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Course, error)
		// GetCourse finds a course by id or slug and loads its modules and lessons.
		GetCourse(ctx context.Context, idOrSlug string) (Course, error)
		// GetModule finds a module; its lessons are not loaded.
		GetModule(ctx context.Context, id string) (Module, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		// SaveCourse creates or replaces a course with its modules and lessons.
		SaveCourse(ctx context.Context, c Course) error
		// CreateProgress records a completion; an existing one is kept and returned.
		CreateProgress(ctx context.Context, p Progress) (Progress, error)
		QueryProgress(ctx context.Context, learnerID string) ([]Progress, error)
		CountProgress(ctx context.Context) (int, error)
	}

	Service interface {
		Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Course, error)
		Get(ctx context.Context, idOrSlug string) (Course, error)
		// Module returns a module of a published course, without its lessons.
		Module(ctx context.Context, id string) (Module, error)
		// Lesson returns a lesson of a published course, rendered.
		Lesson(ctx context.Context, id string) (LessonContent, error)
		// OpenLesson returns the lesson and waits for its end marker to be seen before completing it.
		OpenLesson(ctx context.Context, learnerID, lessonID string) (LessonContent, error)
		// ReportVisibility feeds a client observation of a lesson's end marker.
		ReportVisibility(ctx context.Context, learnerID, lessonID string, e visibility.Entry) (int, error)
		CompleteLesson(ctx context.Context, learnerID, lessonID string) (Progress, error)
		Dashboard(ctx context.Context, learnerID string) ([]CourseProgress, error)
		Save(ctx context.Context, c Course) (Course, error)
		Stats(ctx context.Context) (Stats, error)
	}

	service struct {
		repo     Repository
		validate *validator.Validate
		logger   core.Logger
		observer visibility.Observer // nil: lessons complete when opened
		tracker  *visibility.Tracker

		mu       sync.Mutex
		gates    map[string]gateEntry // {learner/lesson: armed gate}
		gateTTL  time.Duration
		maxGates int
	}

	gateEntry struct {
		gate    *visibility.Gate
		expires time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, repo Repository, validate *validator.Validate, logger core.Logger) Service {
	svc := &service{
		repo:     repo,
		validate: validate,
		logger:   logger,
		tracker:  visibility.NewTracker(),
		gates:    make(map[string]gateEntry),
		gateTTL:  conf.Learning.GateTTL,
		maxGates: conf.Learning.MaxGates,
	}
	if conf.Learning.LazyVisibility {
		svc.observer = svc.tracker
	}
	if svc.gateTTL <= 0 {
		svc.gateTTL = defaultGateTTL
	}
	if svc.maxGates <= 0 {
		svc.maxGates = defaultMaxGates
	}
	return svc
}

// DeriveID returns a stable id for content named name under parent.
// Re-importing the same content yields the same ids, so progress survives.
func DeriveID(parent, name string) string {
	ns := idNamespace
	if id, err := uuid.Parse(parent); err == nil {
		ns = id
	}
	return uuid.NewSHA1(ns, []byte(name)).String()
}

// CourseID is the id Save gives to the course with slug.
func CourseID(slug string) string {
	return DeriveID("", "course/"+slug)
}

// ModuleID is the id Save gives to the module at position (from 1) of a course.
func ModuleID(courseID string, position int) string {
	return DeriveID(courseID, fmt.Sprintf("module/%d", position))
}

func deriveLessonID(moduleID string, position int) string {
	return DeriveID(moduleID, fmt.Sprintf("lesson/%d", position))
}

func EndMarker(lessonID string) string {
	return "lesson-" + lessonID + "-end"
}

func gateKey(learnerID, lessonID string) string {
	return learnerID + "/" + lessonID
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Course, error) {
	filter.Clean()
	return svc.repo.QueryCourses(ctx, filter, core.FilterOrderings(orderings, Orderings)...)
}

func (svc *service) Get(ctx context.Context, idOrSlug string) (Course, error) {
	return svc.repo.GetCourse(ctx, core.CleanString(idOrSlug))
}

// checkPublished returns notFound unless the course exists and is published.
func (svc *service) checkPublished(ctx context.Context, courseID string, notFound error) error {
	c, err := svc.repo.GetCourse(ctx, courseID)
	switch {
	case errors.Cause(err) == ErrCourseNotFound:
		return notFound
	case err != nil:
		return errors.Wrap(err, "getting course")
	case !c.Published:
		return notFound
	}
	return nil
}

func (svc *service) Module(ctx context.Context, id string) (Module, error) {
	m, err := svc.repo.GetModule(ctx, id)
	if err != nil {
		return Module{}, err
	}
	if err = svc.checkPublished(ctx, m.CourseID, ErrModuleNotFound); err != nil {
		return Module{}, err
	}
	return m, nil
}

func (svc *service) lesson(ctx context.Context, id string) (Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if err = svc.checkPublished(ctx, l.CourseID, ErrLessonNotFound); err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (svc *service) Lesson(ctx context.Context, id string) (LessonContent, error) {
	l, err := svc.lesson(ctx, id)
	if err != nil {
		return LessonContent{}, err
	}
	return LessonContent{
		Lesson:    l,
		Blocks:    markdown.Parse(l.Body),
		EndMarker: EndMarker(l.ID),
	}, nil
}

func (svc *service) completed(ctx context.Context, learnerID, lessonID string) (bool, error) {
	progress, err := svc.repo.QueryProgress(ctx, learnerID)
	if err != nil {
		return false, errors.Wrap(err, "querying progress")
	}
	for _, p := range progress {
		if p.LessonID == lessonID {
			return true, nil
		}
	}
	return false, nil
}

func (svc *service) OpenLesson(ctx context.Context, learnerID, lessonID string) (LessonContent, error) {
	content, err := svc.Lesson(ctx, lessonID)
	if err != nil {
		return LessonContent{}, err
	}
	if content.Completed, err = svc.completed(ctx, learnerID, lessonID); err != nil {
		return LessonContent{}, err
	}
	if content.Completed {
		return content, nil
	}

	if svc.observer == nil {
		if _, err = svc.complete(ctx, learnerID, content.Lesson); err != nil {
			return LessonContent{}, err
		}
		content.Completed = true
		return content, nil
	}

	svc.armGate(learnerID, content.Lesson)
	return content, nil
}

// armGate completes l once its end marker is reported visible by the learner.
// A learner has at most one gate per lesson; gates expire after gateTTL and the
// oldest are dropped when maxGates are armed.
func (svc *service) armGate(learnerID string, l Lesson) {
	key := gateKey(learnerID, l.ID)
	now := time.Now()

	svc.mu.Lock()
	if e, ok := svc.gates[key]; ok && now.Before(e.expires) {
		svc.mu.Unlock()
		return
	}
	dropped := svc.dropGatesLocked(key, now)

	var g *visibility.Gate
	opts := visibility.Options{Observer: svc.observer, Threshold: endMarkerThreshold}
	g = visibility.NewGate(opts, key, func() {
		svc.mu.Lock()
		if e, ok := svc.gates[key]; ok && e.gate == g {
			delete(svc.gates, key)
		}
		svc.mu.Unlock()

		// the gate may fire after the request that armed it is gone
		if _, err := svc.complete(context.Background(), learnerID, l); err != nil {
			svc.logger.Error(fmt.Sprintf("completing lesson %s: %v", l.ID, err), err)
		}
	})
	svc.gates[key] = gateEntry{gate: g, expires: now.Add(svc.gateTTL)}
	svc.mu.Unlock()

	// a firing gate holds its own lock while it waits for svc.mu
	for _, old := range dropped {
		old.Close()
	}
}

// dropGatesLocked removes the gate under key, then makes room for one more gate:
// expired gates go first, then the ones closest to expiry. The removed gates are
// returned for the caller to close once svc.mu is released.
func (svc *service) dropGatesLocked(key string, now time.Time) []*visibility.Gate {
	var dropped []*visibility.Gate
	drop := func(k string) {
		dropped = append(dropped, svc.gates[k].gate)
		delete(svc.gates, k)
	}

	if _, ok := svc.gates[key]; ok {
		drop(key)
	}
	if len(svc.gates) < svc.maxGates {
		return dropped
	}
	for k, e := range svc.gates {
		if !now.Before(e.expires) {
			drop(k)
		}
	}
	for len(svc.gates) >= svc.maxGates {
		var oldest string
		for k, e := range svc.gates {
			if oldest == "" || e.expires.Before(svc.gates[oldest].expires) {
				oldest = k
			}
		}
		drop(oldest)
	}
	return dropped
}

func (svc *service) ReportVisibility(ctx context.Context, learnerID, lessonID string, e visibility.Entry) (int, error) {
	if _, err := svc.lesson(ctx, lessonID); err != nil {
		return 0, err
	}
	e.Target = gateKey(learnerID, lessonID)
	return svc.tracker.Report(e), nil
}

func (svc *service) CompleteLesson(ctx context.Context, learnerID, lessonID string) (Progress, error) {
	l, err := svc.lesson(ctx, lessonID)
	if err != nil {
		return Progress{}, err
	}

	key := gateKey(learnerID, lessonID)
	svc.mu.Lock()
	e, ok := svc.gates[key]
	delete(svc.gates, key)
	svc.mu.Unlock()
	if ok {
		e.gate.Close()
	}
	return svc.complete(ctx, learnerID, l)
}

func (svc *service) complete(ctx context.Context, learnerID string, l Lesson) (Progress, error) {
	p, err := svc.repo.CreateProgress(ctx, Progress{
		LearnerID:   learnerID,
		LessonID:    l.ID,
		CourseID:    l.CourseID,
		CompletedAt: time.Now().UTC(),
	})
	return p, errors.Wrap(err, "creating progress")
}

func (svc *service) Dashboard(ctx context.Context, learnerID string) ([]CourseProgress, error) {
	published := true
	courses, err := svc.repo.QueryCourses(ctx, QueryFilter{Published: &published}, core.DBOrdering{Field: "position", Ascending: true})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	progress, err := svc.repo.QueryProgress(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	done := make(map[string]bool, len(progress))
	for _, p := range progress {
		done[p.LessonID] = true
	}

	dash := make([]CourseProgress, 0, len(courses))
	for _, c := range courses {
		tree, err := svc.repo.GetCourse(ctx, c.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting course %s", c.ID)
		}
		cp := CourseProgress{Course: c}
		for _, l := range tree.Lessons() {
			cp.Total++
			if done[l.ID] {
				cp.Completed++
			} else if cp.NextLessonID == "" {
				cp.NextLessonID = l.ID
			}
		}
		if cp.Total > 0 {
			cp.Percentage = cp.Completed * 100 / cp.Total
		}
		dash = append(dash, cp)
	}
	return dash, nil
}

// Save validates and stores a course tree. Ids are derived from the slug and positions;
// modules and lessons are positioned in the order given.
func (svc *service) Save(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(svc.validate); err != nil {
		return Course{}, err
	}

	now := time.Now().UTC()
	c.ID = CourseID(c.Slug)
	c.CreatedAt, c.UpdatedAt = now, now
	if existing, err := svc.repo.GetCourse(ctx, c.ID); err == nil {
		c.CreatedAt = existing.CreatedAt
	} else if errors.Cause(err) != ErrCourseNotFound {
		return Course{}, errors.Wrap(err, "getting course")
	}

	for i := range c.Modules {
		m := &c.Modules[i]
		m.Position = i + 1
		m.ID = ModuleID(c.ID, m.Position)
		m.CourseID = c.ID
		m.Title = core.CleanString(m.Title)
		for j := range m.Lessons {
			l := &m.Lessons[j]
			l.Position = j + 1
			l.ID = deriveLessonID(m.ID, l.Position)
			l.ModuleID = m.ID
			l.CourseID = c.ID
			l.Title = core.CleanString(l.Title)
		}
	}

	if err := svc.repo.SaveCourse(ctx, c); err != nil {
		return Course{}, errors.Wrap(err, "saving course")
	}
	return c, nil
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	courses, err := svc.repo.QueryCourses(ctx, QueryFilter{})
	if err != nil {
		return st, errors.Wrap(err, "querying courses")
	}
	for _, c := range courses {
		tree, err := svc.repo.GetCourse(ctx, c.ID)
		if err != nil {
			return st, errors.Wrapf(err, "getting course %s", c.ID)
		}
		st.Courses++
		if c.Published {
			st.Published++
		}
		st.Modules += len(tree.Modules)
		for _, l := range tree.Lessons() {
			st.Lessons++
			st.Duration += time.Duration(l.DurationSeconds) * time.Second
		}
	}
	if st.CompletedLessons, err = svc.repo.CountProgress(ctx); err != nil {
		return st, errors.Wrap(err, "counting progress")
	}
	return st, nil
}
