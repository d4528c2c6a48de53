package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/course"
)

type courseRepository struct {
	db *courseTable
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

// copyCourse returns a deep copy of c, with or without its modules.
func copyCourse(c course.Course, tree bool) course.Course {
	out := c
	out.Modules = nil
	if !tree {
		return out
	}
	for _, m := range c.Modules {
		mod := m
		mod.Lessons = append([]course.Lesson(nil), m.Lessons...)
		out.Modules = append(out.Modules, mod)
	}
	return out
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, orderings ...core.DBOrdering) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	courses := make([]course.Course, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if filter.Published != nil && c.Published != *filter.Published {
			continue
		}
		courses = append(courses, copyCourse(*c, false))
	}

	sortCourses(courses, orderings)
	return courses, nil
}

func sortCourses(courses []course.Course, orderings []core.DBOrdering) {
	// default: position, then title
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "position", Ascending: true}, {Field: "title", Ascending: true}}
	}
	compare := func(a, b course.Course, field string) int {
		switch field {
		case "title":
			return strings.Compare(a.Title, b.Title)
		case "level":
			return strings.Compare(a.Level, b.Level)
		case "position":
			return a.Position - b.Position
		case "created_at":
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				return -1
			case a.CreatedAt.After(b.CreatedAt):
				return 1
			}
		}
		return 0
	}
	sort.SliceStable(courses, func(i, j int) bool {
		for _, ord := range orderings {
			if c := compare(courses[i], courses[j], ord.Field); c != 0 {
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return courses[i].ID < courses[j].ID
	})
}

func (repo *courseRepository) GetCourse(_ context.Context, idOrSlug string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[idOrSlug]; ok {
		return copyCourse(*c, true), nil
	}
	for _, c := range repo.db.table {
		if c.Slug == idOrSlug {
			return copyCourse(*c, true), nil
		}
	}
	return course.Course{}, course.ErrCourseNotFound
}

func (repo *courseRepository) GetModule(_ context.Context, id string) (course.Module, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.table {
		for _, m := range c.Modules {
			if m.ID == id {
				m.Lessons = nil
				return m, nil
			}
		}
	}
	return course.Module{}, course.ErrModuleNotFound
}

func (repo *courseRepository) GetLesson(_ context.Context, id string) (course.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return l, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) SaveCourse(_ context.Context, c course.Course) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if old, ok := repo.db.table[c.ID]; ok {
		for _, l := range old.Lessons() {
			delete(repo.db.lessons, l.ID)
		}
	}
	saved := copyCourse(c, true)
	repo.db.table[c.ID] = &saved
	for _, l := range saved.Lessons() {
		repo.db.lessons[l.ID] = l
	}
	return nil
}

func (repo *courseRepository) CreateProgress(_ context.Context, p course.Progress) (course.Progress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	learner, ok := repo.db.progress[p.LearnerID]
	if !ok {
		learner = make(map[string]course.Progress)
		repo.db.progress[p.LearnerID] = learner
	}
	if existing, ok := learner[p.LessonID]; ok {
		return existing, nil
	}
	learner[p.LessonID] = p
	return p, nil
}

func (repo *courseRepository) QueryProgress(_ context.Context, learnerID string) ([]course.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	progress := make([]course.Progress, 0, len(repo.db.progress[learnerID]))
	for _, p := range repo.db.progress[learnerID] {
		progress = append(progress, p)
	}
	sort.Slice(progress, func(i, j int) bool { return progress[i].CompletedAt.Before(progress[j].CompletedAt) })
	return progress, nil
}

func (repo *courseRepository) CountProgress(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, learner := range repo.db.progress {
		n += len(learner)
	}
	return n, nil
}
