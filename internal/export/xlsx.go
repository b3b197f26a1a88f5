// Package export writes the instructor's submission list to a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/gema-projects/internal/dto"
)

// SheetName is the worksheet holding the submissions.
const SheetName = "Submissions"

var header = []interface{}{
	"Submission ID", "Learner", "Email", "Course", "Status", "Submitted At",
	"GitHub Link", "File", "Rating", "Tags", "Comment", "Evaluated At",
}

// CourseNamer labels a course id.
type CourseNamer func(courseID string) string

// Submissions writes one row per submission after a header row. Populated
// references win over namer; relative file paths are resolved against
// uploadBaseURL.
func Submissions(w io.Writer, submissions []dto.Submission, namer CourseNamer, uploadBaseURL string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, submission := range submissions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rowFor(submission, namer, uploadBaseURL)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return f.Write(w)
}

func rowFor(s dto.Submission, namer CourseNamer, uploadBaseURL string) []interface{} {
	course := s.Course.Name
	if course == "" && namer != nil {
		course = namer(s.Course.ID)
	}
	learner := s.User.Name
	if learner == "" {
		learner = s.User.ID
	}

	var rating interface{}
	var tags, comment, evaluatedAt string
	if fb := s.Feedback; fb != nil {
		rating = fb.Rating
		tags = strings.Join(fb.Tags, ", ")
		comment = fb.Comment
		evaluatedAt = formatTime(fb.EvaluatedAt)
	}

	return []interface{}{
		s.ID, learner, s.User.Email, course, string(s.Status), formatTime(s.SubmittedAt),
		s.GithubLink, s.FileLink(uploadBaseURL), rating, tags, comment, evaluatedAt,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
