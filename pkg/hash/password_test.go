package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "SecurePass123!"},
		{name: "minimum length password", password: "Pass123!"},
		{name: "password too short", password: "short", wantErr: ErrPasswordTooShort},
		{name: "empty password", password: "", wantErr: ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed, err := Hash(tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hashed)
			assert.True(t, strings.HasPrefix(hashed, "$2a$12$"), "unexpected bcrypt format")
		})
	}
}

func TestHash_Salted(t *testing.T) {
	h1, err := Hash("SamePassword123!")
	require.NoError(t, err)
	h2, err := Hash("SamePassword123!")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestCompare(t *testing.T) {
	password := "MySecurePassword123!"
	hashed, err := Hash(password)
	require.NoError(t, err)

	assert.NoError(t, Compare(hashed, password))
	assert.Error(t, Compare(hashed, "WrongPassword"))
	assert.Error(t, Compare(hashed, ""))
	assert.Error(t, Compare(hashed, strings.ToUpper(password)))
}

func TestProfileHash(t *testing.T) {
	a := map[string]any{"company_name": "Acme", "location": "SF"}
	b := map[string]any{"location": "SF", "company_name": "Acme"}

	ha, err := ProfileHash(a)
	require.NoError(t, err)
	hb, err := ProfileHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)

	hc, err := ProfileHash(map[string]any{"company_name": "Globex"})
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
