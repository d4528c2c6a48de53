package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
)

// course import file
type (
	courseFile struct {
		Slug        string       `yaml:"slug"`
		Title       string       `yaml:"title"`
		Description string       `yaml:"description"`
		Level       string       `yaml:"level"`
		Published   bool         `yaml:"published"`
		Position    int          `yaml:"position"`
		Modules     []moduleFile `yaml:"modules"`
	}

	moduleFile struct {
		Title      string          `yaml:"title"`
		Lessons    []lessonFile    `yaml:"lessons"`
		Assessment *assessmentFile `yaml:"assessment"`
	}

	lessonFile struct {
		Title    string        `yaml:"title"`
		Kind     string        `yaml:"kind"` // defaults to text
		Body     string        `yaml:"body"`
		MediaURL string        `yaml:"media_url"`
		Duration time.Duration `yaml:"duration"` // e.g. 5m30s
	}

	assessmentFile struct {
		Title        string         `yaml:"title"`
		PassingScore int            `yaml:"passing_score"`
		Questions    []questionFile `yaml:"questions"`
	}

	questionFile struct {
		Prompt      string   `yaml:"prompt"`
		Options     []string `yaml:"options"`
		Correct     int      `yaml:"correct"` // index in options
		Explanation string   `yaml:"explanation"`
	}
)

func (cf courseFile) course() course.Course {
	c := course.Course{
		Slug:        cf.Slug,
		Title:       cf.Title,
		Description: cf.Description,
		Level:       cf.Level,
		Published:   cf.Published,
		Position:    cf.Position,
	}
	for _, mf := range cf.Modules {
		m := course.Module{Title: mf.Title}
		for _, lf := range mf.Lessons {
			kind := lf.Kind
			if kind == "" {
				kind = course.KindText
			}
			m.Lessons = append(m.Lessons, course.Lesson{
				Title:           lf.Title,
				Kind:            kind,
				Body:            lf.Body,
				MediaURL:        lf.MediaURL,
				DurationSeconds: int(lf.Duration / time.Second),
			})
		}
		c.Modules = append(c.Modules, m)
	}
	return c
}

// assessment ids derive from the module id so a re-import replaces the same assessment.
func (af assessmentFile) assessment(moduleID string) assessment.Assessment {
	a := assessment.Assessment{
		ID:           course.DeriveID(moduleID, "assessment"),
		ModuleID:     moduleID,
		Title:        af.Title,
		PassingScore: af.PassingScore,
	}
	for i, qf := range af.Questions {
		a.Questions = append(a.Questions, assessment.Question{
			ID:            course.DeriveID(a.ID, fmt.Sprintf("question/%d", i+1)),
			Prompt:        qf.Prompt,
			Options:       qf.Options,
			CorrectOption: qf.Correct,
			Explanation:   qf.Explanation,
			Position:      i + 1,
		})
	}
	return a
}

func readCourseFile(path string) (courseFile, error) {
	var cf courseFile
	f, err := os.Open(path)
	if err != nil {
		return cf, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&cf); err != nil {
		return cf, errors.Wrapf(err, "decoding %s", path)
	}
	return cf, nil
}

func (cli *commandLine) importCourse(path string, dryRun bool) error {
	ctx := context.Background()

	cf, err := readCourseFile(path)
	if err != nil {
		return err
	}
	c := cf.course()
	if err = c.Validate(cli.validate); err != nil {
		return err
	}

	// assessments are checked up front so a bad question leaves nothing half imported
	courseID := course.CourseID(c.Slug)
	var assessments []assessment.Assessment
	for i, mf := range cf.Modules {
		if mf.Assessment == nil {
			continue
		}
		a := mf.Assessment.assessment(course.ModuleID(courseID, i+1))
		if err = a.Validate(); err != nil {
			return errors.Wrapf(err, "assessment of module %d", i+1)
		}
		assessments = append(assessments, a)
	}

	existing, err := cli.courseSvc.Get(ctx, c.Slug)
	switch {
	case errors.Cause(err) == course.ErrCourseNotFound:
		fmt.Fprintf(cli.out, "new course %q\n", c.Slug)
	case err != nil:
		return errors.Wrap(err, "getting course")
	default:
		changed, err := cli.printChanges(existing, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d lesson(s) changed\n", changed)
	}

	if dryRun {
		fmt.Fprintln(cli.out, "dry run: nothing saved")
		return nil
	}

	saved, err := cli.courseSvc.Save(ctx, c)
	if err != nil {
		return err
	}
	for _, a := range assessments {
		if _, err = cli.assessmentSvc.Save(ctx, a); err != nil {
			return errors.Wrapf(err, "saving assessment %q", a.Title)
		}
	}

	fmt.Fprintf(
		cli.out, "imported %q: %d modules, %d lessons, %d assessments\n",
		saved.Slug, len(saved.Modules), len(saved.Lessons()), len(assessments),
	)
	return nil
}

// printChanges prints a unified diff of every lesson body that differs from the stored course.
// Lessons are matched by module and lesson position.
func (cli *commandLine) printChanges(old, c course.Course) (int, error) {
	var changed int
	for i, m := range c.Modules {
		for j, l := range m.Lessons {
			var before string
			if i < len(old.Modules) && j < len(old.Modules[i].Lessons) {
				before = old.Modules[i].Lessons[j].Body
			}
			if before == l.Body {
				continue
			}
			changed++

			name := fmt.Sprintf("%s/module-%d/lesson-%d", c.Slug, i+1, j+1)
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(before),
				B:        difflib.SplitLines(l.Body),
				FromFile: "a/" + name,
				ToFile:   "b/" + name,
				Context:  2,
			})
			if err != nil {
				return changed, errors.Wrapf(err, "diffing %s", name)
			}
			fmt.Fprint(cli.out, diff)
		}
	}

	for i, m := range old.Modules {
		from := 0
		if i < len(c.Modules) {
			from = len(c.Modules[i].Lessons)
		}
		for j := from; j < len(m.Lessons); j++ {
			changed++
			fmt.Fprintf(cli.out, "removed %s/module-%d/lesson-%d %q\n", c.Slug, i+1, j+1, m.Lessons[j].Title)
		}
	}
	return changed, nil
}
