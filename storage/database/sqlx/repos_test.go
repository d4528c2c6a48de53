package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
	sqlxrepos "github.com/speakwell/academy/storage/database/sqlx"
	testutil "github.com/speakwell/academy/tests"
)

func TestCourseRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	conf := core.NewTestConfig()
	validate, _ := testutil.NewValidator()
	repo := sqlxrepos.NewCourseRepository(db)
	svc := course.NewService(conf, repo, validate, testutil.NewLogger(conf))
	ctx := context.Background()

	c := testutil.CreateCourse(t, svc, "everyday", true)
	draft := testutil.SampleCourse("draft", false)
	draft.Level = "B1"
	draft.Description = "Business meetings"
	_, err := svc.Save(ctx, draft)
	require.NoError(t, err)

	t.Run("get tree", func(t *testing.T) {
		for _, key := range []string{c.ID, "everyday"} {
			got, err := repo.GetCourse(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, c.Title, got.Title)
			assert.WithinDuration(t, c.CreatedAt, got.CreatedAt, time.Millisecond)
			require.Len(t, got.Modules, 2)
			assert.Equal(t, "Greetings", got.Modules[0].Title)
			assert.Equal(t, c.Lessons(), got.Lessons())
		}

		_, err := repo.GetCourse(ctx, "missing")
		assert.Equal(t, course.ErrCourseNotFound, errors.Cause(err))
	})

	t.Run("get lesson", func(t *testing.T) {
		audio := c.Lessons()[2]
		got, err := repo.GetLesson(ctx, audio.ID)
		require.NoError(t, err)
		assert.Equal(t, audio, got)
		assert.Equal(t, "https://cdn.example.com/cafe.mp3", got.MediaURL)

		got, err = repo.GetLesson(ctx, c.Lessons()[0].ID)
		require.NoError(t, err)
		assert.Empty(t, got.MediaURL)

		_, err = repo.GetLesson(ctx, "missing")
		assert.Equal(t, course.ErrLessonNotFound, errors.Cause(err))
	})

	t.Run("get module", func(t *testing.T) {
		got, err := repo.GetModule(ctx, c.Modules[1].ID)
		require.NoError(t, err)
		assert.Equal(t, course.Module{ID: c.Modules[1].ID, CourseID: c.ID, Title: "Listening", Position: 2}, got)

		_, err = repo.GetModule(ctx, "missing")
		assert.Equal(t, course.ErrModuleNotFound, errors.Cause(err))
	})

	t.Run("lessons of drafts are hidden", func(t *testing.T) {
		draftLesson := course.DeriveID(course.ModuleID(course.CourseID("draft"), 1), "lesson/1")
		_, err := repo.GetLesson(ctx, draftLesson)
		require.NoError(t, err)
		_, err = svc.Lesson(ctx, draftLesson)
		assert.Equal(t, course.ErrLessonNotFound, errors.Cause(err))
	})

	t.Run("query", func(t *testing.T) {
		published := false
		tests := []struct {
			name      string
			filter    course.QueryFilter
			orderings []core.DBOrdering
			want      []string
		}{
			{name: "default order", want: []string{"draft", "everyday"}},
			{name: "title descending", orderings: []core.DBOrdering{{Field: "title"}}, want: []string{"everyday", "draft"}},
			{name: "level", filter: course.QueryFilter{Level: "B1"}, want: []string{"draft"}},
			{name: "published", filter: course.QueryFilter{Published: &published}, want: []string{"draft"}},
			{name: "search", filter: course.QueryFilter{Search: "business"}, want: []string{"draft"}},
			{name: "search both columns", filter: course.QueryFilter{Search: "Everyday"}, want: []string{"draft", "everyday"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				courses, err := repo.QueryCourses(ctx, tt.filter, tt.orderings...)
				require.NoError(t, err)
				slugs := make([]string, 0, len(courses))
				for _, c := range courses {
					slugs = append(slugs, c.Slug)
				}
				assert.Equal(t, tt.want, slugs)
			})
		}
	})

	t.Run("re-import", func(t *testing.T) {
		sample := testutil.SampleCourse("everyday", true)
		sample.Modules = sample.Modules[:1]
		_, err := svc.Save(ctx, sample)
		require.NoError(t, err)

		got, err := repo.GetCourse(ctx, "everyday")
		require.NoError(t, err)
		assert.Len(t, got.Modules, 1)
		assert.Equal(t, c.Lessons()[:2], got.Lessons())

		_, err = repo.GetLesson(ctx, c.Lessons()[2].ID)
		assert.Equal(t, course.ErrLessonNotFound, errors.Cause(err))
	})

	t.Run("progress", func(t *testing.T) {
		l := c.Lessons()[0]
		first, err := repo.CreateProgress(ctx, course.Progress{LearnerID: "u1", LessonID: l.ID, CourseID: c.ID, CompletedAt: time.Now().UTC()})
		require.NoError(t, err)
		second, err := repo.CreateProgress(ctx, course.Progress{LearnerID: "u1", LessonID: l.ID, CourseID: c.ID, CompletedAt: time.Now().UTC().Add(time.Hour)})
		require.NoError(t, err)
		assert.True(t, first.CompletedAt.Equal(second.CompletedAt), "existing completion is kept")

		_, err = repo.CreateProgress(ctx, course.Progress{LearnerID: "u2", LessonID: l.ID, CourseID: c.ID, CompletedAt: time.Now().UTC()})
		require.NoError(t, err)

		progress, err := repo.QueryProgress(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, progress, 1)
		assert.Equal(t, l.ID, progress[0].LessonID)

		n, err := repo.CountProgress(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestAssessmentRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewAssessmentRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	a := testutil.SampleAssessment("m1")
	a.ID = "a1"
	a.CreatedAt, a.UpdatedAt = now, now
	for i := range a.Questions {
		a.Questions[i].ID = "q" + string(rune('1'+i))
	}
	require.NoError(t, repo.SaveAssessment(ctx, a))

	got, err := repo.GetModuleAssessment(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, a.Questions, got.Questions)

	// replacing drops the old questions
	a.Title = "Greetings check, short"
	a.Questions = a.Questions[:2]
	require.NoError(t, repo.SaveAssessment(ctx, a))
	got, err = repo.GetAssessment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Greetings check, short", got.Title)
	assert.Len(t, got.Questions, 2)

	_, err = repo.GetAssessment(ctx, "missing")
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))

	attempts := []assessment.Attempt{
		{ID: "t1", AssessmentID: "a1", LearnerID: "u1", Answers: []int{0, 1}, Score: assessment.Grade([]int{0, 1}, got.CorrectOptions()), SubmittedAt: now},
		{ID: "t2", AssessmentID: "a1", LearnerID: "u1", Answers: []int{1, 0}, Score: assessment.Grade([]int{1, 0}, got.CorrectOptions()), Passed: true, SubmittedAt: now.Add(time.Minute)},
		{ID: "t3", AssessmentID: "a1", LearnerID: "u2", Answers: []int{1, assessment.Unanswered}, Score: assessment.Grade([]int{1, assessment.Unanswered}, got.CorrectOptions()), SubmittedAt: now},
	}
	for _, at := range attempts {
		require.NoError(t, repo.CreateAttempt(ctx, at))
	}

	list, err := repo.QueryAttempts(ctx, "u1", "a1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].ID, "most recent first")
	assert.Equal(t, []int{1, 0}, list[0].Answers)
	assert.Equal(t, assessment.Score{Correct: 2, Total: 2, Percentage: 100}, list[0].Score)
	assert.True(t, list[0].Passed)

	list, err = repo.QueryAttempts(ctx, "u2", "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []int{1, assessment.Unanswered}, list[0].Answers)

	st, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, assessment.Stats{Assessments: 1, Attempts: 3, Passed: 1}, st)
}

func TestProfileRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewProfileRepository(db)
	ctx := context.Background()

	p := testutil.CreateProfile(t, repo, "u1", "Ada", "ada@example.com", true)
	testutil.CreateProfile(t, repo, "u1", "Impostor", "other@example.com", false)

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.True(t, got.EmailNotifications)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)

	got.Level = "C1"
	got.NativeLanguage = "fr"
	got.EmailNotifications = false
	require.NoError(t, repo.UpdateProfile(ctx, got))
	updated, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "C1", updated.Level)
	assert.Equal(t, "fr", updated.NativeLanguage)
	assert.False(t, updated.EmailNotifications)

	err = repo.UpdateProfile(ctx, account.Profile{ID: "nobody"})
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))
	_, err = repo.GetProfile(ctx, "nobody")
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))

	n, err := repo.CountProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
