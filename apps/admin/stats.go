package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

func (cli *commandLine) stats() error {
	ctx := context.Background()

	cs, err := cli.courseSvc.Stats(ctx)
	if err != nil {
		return errors.Wrap(err, "course stats")
	}
	as, err := cli.assessmentSvc.Stats(ctx)
	if err != nil {
		return errors.Wrap(err, "assessment stats")
	}
	learners, err := cli.accountSvc.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "counting learners")
	}

	var passRate float64
	if as.Attempts > 0 {
		passRate = float64(as.Passed) * 100 / float64(as.Attempts)
	}

	row := func(name, value string) { fmt.Fprintf(cli.out, "%-18s %s\n", name+":", value) }
	row("courses", fmt.Sprintf("%s (%s published)", comma(cs.Courses), comma(cs.Published)))
	row("modules", comma(cs.Modules))
	row("lessons", fmt.Sprintf("%s (%s of content)", comma(cs.Lessons), cs.Duration.Round(time.Second)))
	row("learners", comma(learners))
	row("completed lessons", comma(cs.CompletedLessons))
	row("assessments", comma(as.Assessments))
	row("attempts", fmt.Sprintf("%s (%s%% passed)", comma(as.Attempts), humanize.FormatFloat("#,###.#", passRate)))
	return nil
}

func comma(n int) string { return humanize.Comma(int64(n)) }
