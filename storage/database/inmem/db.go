// Package inmemdb stores everything in mutex guarded maps. Used by tests and the dev server.
package inmemdb

import (
	"sync"

	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
)

type (
	DB struct {
		course     *courseTable
		assessment *assessmentTable
		profile    *profileTable
	}

	courseTable struct {
		mutex    sync.RWMutex
		table    map[string]*course.Course            // {id: course tree}
		lessons  map[string]course.Lesson             // {id: lesson}
		progress map[string]map[string]course.Progress // {learner id: {lesson id: progress}}
	}

	assessmentTable struct {
		mutex    sync.RWMutex
		table    map[string]*assessment.Assessment // {id: assessment}
		attempts []assessment.Attempt
	}

	profileTable struct {
		mutex sync.RWMutex
		table map[string]*account.Profile
	}
)

func NewDB() *DB {
	return &DB{
		course: &courseTable{
			table:    make(map[string]*course.Course),
			lessons:  make(map[string]course.Lesson),
			progress: make(map[string]map[string]course.Progress),
		},
		assessment: &assessmentTable{
			table: make(map[string]*assessment.Assessment),
		},
		profile: &profileTable{
			table: make(map[string]*account.Profile),
		},
	}
}
