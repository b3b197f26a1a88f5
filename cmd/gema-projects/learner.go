package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-projects/internal/app"
	"github.com/noah-isme/gema-projects/internal/dto"
)

var errNothingToSubmit = errors.New("provide --file or --github")

func (c *cli) requireView(want app.View) error {
	switch c.app.View() {
	case want:
		return nil
	case app.ViewLanding:
		return app.ErrNotSignedIn
	case app.ViewSignInAgain:
		return app.ErrIdentityMissing
	default:
		return fmt.Errorf("this command is not available to the signed-in role")
	}
}

func newCoursesCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List courses and your submission for each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.app.LoadDashboard(ctx); err != nil {
				return err
			}

			if c.app.View() == app.ViewInstructorDashboard {
				return printCourses(cmd.OutOrStdout(), c.app.Catalog.State().Courses, nil)
			}
			return printCourses(cmd.OutOrStdout(), c.app.Catalog.State().Courses, c.app.Submissions.ForCourse)
		},
	}
}

func newSubmissionsCommand(c *cli) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List your submissions and their feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireView(app.ViewLearnerDashboard); err != nil {
				return err
			}
			if err := c.app.LoadDashboard(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			submissions := c.app.Submissions.State().Submissions
			courseName := func(id string) string {
				if course, ok := c.app.Catalog.Find(id); ok {
					return course.Name
				}
				return id
			}
			if !verbose {
				return printSubmissions(out, submissions, courseName, c.cfg.UploadBaseURL)
			}
			for _, s := range submissions {
				fmt.Fprintf(out, "%s  %s  %s\n", s.ID, courseName(s.Course.ID), submissionSummary(s))
				printFeedback(out, s)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "feedback", "f", false, "include instructor feedback")
	return cmd
}

func newSubmitCommand(c *cli) *cobra.Command {
	var courseID, githubLink, filePath string
	var yes bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit (or resubmit) a project for a course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireView(app.ViewLearnerDashboard); err != nil {
				return err
			}
			ctx := cmd.Context()
			state := c.app.Session.State()
			if state.User != nil {
				if err := c.app.Submissions.Fetch(ctx, state.User.ID); err != nil {
					c.logger.Debug().Err(err).Msg("could not load existing submissions")
				}
			}

			draft := c.app.Submit.Open(courseID)
			draft.GithubLink = githubLink
			if filePath != "" {
				file, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("open project file: %w", err)
				}
				defer file.Close()
				draft.File = &dto.FileAttachment{Name: file.Name(), Content: file}
			}

			if !draft.RequestConfirmation() {
				return errNothingToSubmit
			}

			out := cmd.OutOrStdout()
			if !yes {
				action := "Submit"
				if draft.Resubmission {
					action = "Resubmit"
				}
				fmt.Fprintf(out, "%s project for course %s? [y/N] ", action, draft.CourseID)
				if !confirm(cmd) {
					draft.CancelConfirmation()
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			ok, err := c.app.Submit.Submit(ctx, draft)
			if err != nil {
				return errors.New(draft.Error)
			}
			if !ok {
				return errNothingToSubmit
			}
			fmt.Fprintln(out, "Project submitted.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&courseID, "course", "c", "", "course id")
	cmd.Flags().StringVarP(&githubLink, "github", "g", "", "repository link")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "project file to upload")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func confirm(cmd *cobra.Command) bool {
	var answer string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
