package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildPublicID(t *testing.T) {
	at := time.Unix(1700000000, 0)

	require.Equal(t, "final-project-1700000000.zip", buildPublicID("final project.ZIP", at))
	require.Equal(t, "project-1700000000.tar", buildPublicID("../../.tar", at))
	require.Equal(t, "report-1700000000", buildPublicID("report", at))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
	require.False(t, Config{CloudName: "demo", APIKey: "k"}.Enabled())
	require.True(t, Config{CloudName: "demo", APIKey: "k", APISecret: "s"}.Enabled())
}
