package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/noah-isme/gema-projects/internal/api"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/notify"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func presentError(err error) string {
	if dto.IsValidationError(err) {
		return dto.ValidationMessage(err)
	}
	return api.Message(err, err.Error())
}

func (c *cli) flushNotifications() {
	if c.app == nil {
		return
	}
	for _, toast := range c.app.Notifier.List() {
		prefix := "info"
		switch toast.Variant {
		case notify.VariantSuccess:
			prefix = "ok"
		case notify.VariantDestructive:
			prefix = "!!"
		}
		text := toast.Description
		if toast.Title != "" {
			text = toast.Title + ": " + text
		}
		fmt.Fprintf(c.errOut, "[%s] %s\n", prefix, text)
		c.app.Notifier.Dismiss(toast.ID)
	}
}

func printCourses(w io.Writer, courses []dto.Course, submitted func(courseID string) (dto.Submission, bool)) error {
	table := newTable(w)
	fmt.Fprintln(table, "ID\tCOURSE\tDESCRIPTION\tSUBMISSION")
	for _, course := range courses {
		state := "-"
		if submitted != nil {
			if s, ok := submitted(course.ID); ok {
				state = submissionSummary(s)
			}
		}
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\n", course.ID, course.Name, truncate(course.Description, 48), state)
	}
	return table.Flush()
}

func printSubmissions(w io.Writer, submissions []dto.Submission, courseName func(string) string, uploadBase string) error {
	table := newTable(w)
	fmt.Fprintln(table, "ID\tLEARNER\tCOURSE\tSTATUS\tSUBMITTED\tLINK")
	for _, s := range submissions {
		course := s.Course.Name
		if course == "" && courseName != nil {
			course = courseName(s.Course.ID)
		}
		learner := s.User.Name
		if learner == "" {
			learner = s.User.ID
		}
		link := s.GithubLink
		if link == "" {
			link = s.FileLink(uploadBase)
		}
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, learner, course, submissionSummary(s), formatDate(s.SubmittedAt), link)
	}
	return table.Flush()
}

func printFeedback(w io.Writer, s dto.Submission) {
	if s.Feedback == nil {
		return
	}
	fmt.Fprintf(w, "  rating: %d/10\n", s.Feedback.Rating)
	if len(s.Feedback.Tags) > 0 {
		fmt.Fprintf(w, "  tags: %s\n", strings.Join(s.Feedback.Tags, ", "))
	}
	if s.Feedback.Comment != "" {
		fmt.Fprintf(w, "  comment: %s\n", s.Feedback.Comment)
	}
}

func printSuggestedTags(w io.Writer, tags []string) {
	if len(tags) == 0 {
		fmt.Fprintln(w, "Every suggested tag is already applied.")
		return
	}
	fmt.Fprintf(w, "Suggested tags: %s\n", strings.Join(tags, ", "))
}

func printStats(w io.Writer, stats dto.DashboardStats) {
	fmt.Fprintf(w, "Total: %d  Pending: %d  Evaluated: %d\n", stats.Total, stats.Pending, stats.Evaluated)
}

func submissionSummary(s dto.Submission) string {
	if s.IsEvaluated() && s.Feedback != nil {
		return fmt.Sprintf("evaluated (%d/10)", s.Feedback.Rating)
	}
	if s.Status == "" {
		return string(dto.SubmissionStatusPending)
	}
	return string(s.Status)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
