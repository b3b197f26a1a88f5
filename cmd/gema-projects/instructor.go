package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-projects/internal/app"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/export"
)

// errReported marks a failure the user has already been shown as a notification.
var errReported = errors.New("already reported")

type boardFlags struct {
	course string
	status string
}

func (f *boardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.course, "course", "c", "all", "only submissions for this course id")
	cmd.Flags().StringVarP(&f.status, "status", "s", "all", "all, pending or evaluated")
}

// loadBoard loads stats and courses, then applies the filters.
func (c *cli) loadBoard(cmd *cobra.Command, f boardFlags) error {
	if err := c.requireView(app.ViewInstructorDashboard); err != nil {
		return err
	}
	ctx := cmd.Context()
	board := c.app.Board
	state := board.State()
	if err := board.Load(ctx); err != nil {
		return err
	}
	if f.course != state.CourseFilter {
		if err := board.SetCourseFilter(ctx, f.course); err != nil {
			return err
		}
	}
	if f.status != state.StatusFilter {
		return board.SetStatusFilter(ctx, f.status)
	}
	return nil
}

func newBoardCommand(c *cli) *cobra.Command {
	var flags boardFlags

	cmd := &cobra.Command{
		Use:   "board",
		Short: "List learner submissions for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.loadBoard(cmd, flags); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			state := c.app.Board.State()
			printStats(out, state.Stats)
			fmt.Fprintln(out)
			if len(state.Submissions) == 0 {
				fmt.Fprintln(out, "No submissions match the current filters.")
				return nil
			}
			return printSubmissions(out, state.Submissions, c.app.Board.CourseName, c.cfg.UploadBaseURL)
		},
	}

	flags.register(cmd)
	return cmd
}

func newStatsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show submission counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireView(app.ViewInstructorDashboard); err != nil {
				return err
			}
			if err := c.app.Board.Load(cmd.Context()); err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), c.app.Board.State().Stats)
			return nil
		},
	}
}

func newEvaluateCommand(c *cli) *cobra.Command {
	var (
		submissionID string
		rating       int
		comment      string
		tags         []string
		dropTags     []string
		suggest      bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Rate a submission and leave feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.loadBoard(cmd, boardFlags{course: "all", status: "all"}); err != nil {
				return err
			}

			submission, ok := c.app.Board.Find(submissionID)
			if !ok {
				return fmt.Errorf("submission %s not found", submissionID)
			}

			draft := c.app.Evaluate.Open(submission)
			if cmd.Flags().Changed("rating") {
				draft.Rating = rating
			}
			if cmd.Flags().Changed("comment") {
				draft.Comment = comment
			}
			for _, tag := range dropTags {
				draft.RemoveTag(tag)
			}
			for _, tag := range tags {
				draft.AddTag(tag)
			}
			if suggest {
				printSuggestedTags(cmd.OutOrStdout(), draft.SuggestedTags())
				return nil
			}

			if err := c.app.Evaluate.Evaluate(cmd.Context(), draft); err != nil {
				if dto.IsValidationError(err) {
					return err
				}
				return errReported
			}

			updated, ok := c.app.Board.Find(submissionID)
			if !ok {
				updated = submission
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", updated.ID, submissionSummary(updated))
			printFeedback(out, updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&submissionID, "submission", "i", "", "submission id")
	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "rating from 1 to 10 (defaults to the existing rating or 7)")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "feedback comment")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "add a tag (repeatable)")
	cmd.Flags().StringArrayVar(&dropTags, "remove-tag", nil, "remove an existing tag (repeatable)")
	cmd.Flags().BoolVar(&suggest, "suggest-tags", false, "list preset tags not yet on the submission and exit")
	_ = cmd.MarkFlagRequired("submission")
	return cmd
}

func newExportCommand(c *cli) *cobra.Command {
	var flags boardFlags
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered submission list to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.loadBoard(cmd, flags); err != nil {
				return err
			}

			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}

			submissions := c.app.Board.State().Submissions
			if err := export.Submissions(file, submissions, c.app.Board.CourseName, c.cfg.UploadBaseURL); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", outPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d submissions to %s\n", len(submissions), outPath)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "submissions.xlsx", "workbook path")
	return cmd
}
