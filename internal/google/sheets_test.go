package google

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetServiceAccountEmail(t *testing.T) {
	s := &SheetsService{}

	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email": "bot@court.iam.gserviceaccount.com"}`), 0o600))

	email, err := s.GetServiceAccountEmail(path)
	require.NoError(t, err)
	assert.Equal(t, "bot@court.iam.gserviceaccount.com", email)

	_, err = s.GetServiceAccountEmail("non-existent")
	assert.Error(t, err)

	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0o600))
	_, err = s.GetServiceAccountEmail(badPath)
	assert.Error(t, err)
}
