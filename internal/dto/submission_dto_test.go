package dto

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestSubmissionDecodesBareAndPopulatedRefs(t *testing.T) {
	learnerView := `{"_id":"s1","userId":"u1","courseId":"c1","status":"pending","submittedAt":"2024-01-16T10:00:00Z"}`
	instructorView := `{"_id":"s1","userId":{"_id":"u1","name":"John","email":"john@example.com"},"courseId":{"_id":"c1","name":"React"},"status":"evaluated","submittedAt":"2024-01-16T10:00:00Z","feedback":{"rating":8,"tags":["React"],"comment":"Great","evaluatedAt":"2024-01-17T10:00:00Z"}}`

	var bare Submission
	require.NoError(t, json.Unmarshal([]byte(learnerView), &bare))
	require.Equal(t, Ref{ID: "u1"}, bare.User)
	require.Equal(t, Ref{ID: "c1"}, bare.Course)
	require.Nil(t, bare.Feedback)
	require.False(t, bare.IsEvaluated())

	var populated Submission
	require.NoError(t, json.Unmarshal([]byte(instructorView), &populated))
	require.Equal(t, "u1", populated.User.ID)
	require.Equal(t, "John", populated.User.Name)
	require.Equal(t, "React", populated.Course.Name)
	require.True(t, populated.IsEvaluated())
	require.Equal(t, 8, populated.Feedback.Rating)
}

func TestRefMarshalKeepsShape(t *testing.T) {
	bare, err := json.Marshal(Ref{ID: "c1"})
	require.NoError(t, err)
	require.JSONEq(t, `"c1"`, string(bare))

	populated, err := json.Marshal(Ref{ID: "c1", Name: "React"})
	require.NoError(t, err)
	require.JSONEq(t, `{"_id":"c1","name":"React"}`, string(populated))
}

func TestSubmissionFilterOmitsAll(t *testing.T) {
	require.Equal(t, "status=pending", SubmissionFilter{CourseID: FilterAll, Status: "pending"}.Values().Encode())
	require.Equal(t, "courseId=c1", SubmissionFilter{CourseID: "c1", Status: FilterAll}.Values().Encode())
	require.Empty(t, SubmissionFilter{}.Values().Encode())
}

func TestEvaluationRequestValidation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	valid := EvaluationRequest{SubmissionID: "s1", Rating: 10, Tags: []string{"Go", "go"}}
	require.NoError(t, validate.Struct(valid))

	for _, rating := range []int{0, 11, -1} {
		req := valid
		req.Rating = rating
		require.Error(t, validate.Struct(req), "rating %d", rating)
	}

	dup := valid
	dup.Tags = []string{"Go", "Go"}
	require.Error(t, validate.Struct(dup))

	empty := valid
	empty.Tags = []string{""}
	require.Error(t, validate.Struct(empty))
}

func TestFileLink(t *testing.T) {
	require.Equal(t, "http://localhost:5000/uploads/a.zip", Submission{FileURL: "/uploads/a.zip"}.FileLink("http://localhost:5000/"))
	require.Equal(t, "https://cdn.example.com/a.zip", Submission{FileURL: "https://cdn.example.com/a.zip"}.FileLink("http://localhost:5000"))
	require.Empty(t, Submission{}.FileLink("http://localhost:5000"))
}

func TestProjectUploadHasContent(t *testing.T) {
	require.False(t, ProjectUpload{CourseID: "c1", GithubLink: "   "}.HasContent())
	require.True(t, ProjectUpload{CourseID: "c1", GithubLink: "https://github.com/u1/proj"}.HasContent())
	require.True(t, ProjectUpload{CourseID: "c1", File: &FileAttachment{Name: "a.zip", Content: strings.NewReader("zip")}}.HasContent())
}

func TestFileAttachmentReplayable(t *testing.T) {
	streamed := &FileAttachment{Name: "a.zip", Content: io.MultiReader(strings.NewReader("payload"))}
	for i := 0; i < 2; i++ {
		require.NoError(t, streamed.Replayable())
		data, err := io.ReadAll(streamed.Content)
		require.NoError(t, err)
		require.Equal(t, "payload", string(data))
	}

	seekable := strings.NewReader("seek")
	file := &FileAttachment{Name: "b.txt", Content: seekable}
	_, _ = io.ReadAll(seekable)
	require.NoError(t, file.Replayable())
	require.Same(t, seekable, file.Content)
	data, err := io.ReadAll(file.Content)
	require.NoError(t, err)
	require.Equal(t, "seek", string(data))

	var missing *FileAttachment
	require.NoError(t, missing.Replayable())
}
