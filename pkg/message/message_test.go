package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

func TestNew(t *testing.T) {
	m := New("inc_1", 3, "Red Line delayed 20 minutes")

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "inc_1", m.IncidentID)
	assert.Equal(t, 3, m.IncidentVersion)
	assert.False(t, m.CreatedAt.IsZero())

	other := New("inc_1", 3, "Red Line delayed 20 minutes")
	assert.NotEqual(t, m.ID, other.ID)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, New("inc_1", 1, "service restored").Validate())
	})

	t.Run("blank content", func(t *testing.T) {
		err := New("inc_1", 1, "   ").Validate()
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidContent, errors.GetCode(err))
	})

	t.Run("missing incident", func(t *testing.T) {
		err := New("", 1, "service restored").Validate()
		require.Error(t, err)
		assert.Equal(t, errors.CodeMissingField, errors.GetCode(err))
	})
}

func TestAffectedRoutes(t *testing.T) {
	t.Run("no metadata", func(t *testing.T) {
		assert.Nil(t, New("inc_1", 1, "x").AffectedRoutes())
	})

	t.Run("string slice", func(t *testing.T) {
		m := New("inc_1", 1, "x").WithMetadata("routes", []string{"701", "704"})
		assert.Equal(t, []string{"701", "704"}, m.AffectedRoutes())
	})

	t.Run("decoded any slice", func(t *testing.T) {
		// JSON round-trips leave the slice as []any.
		m := New("inc_1", 1, "x").WithMetadata("routes", []any{"701", 704, "830"})
		assert.Equal(t, []string{"701", "830"}, m.AffectedRoutes())
	})
}

func TestPriority(t *testing.T) {
	assert.Equal(t, "normal", New("inc_1", 1, "x").Priority())
	assert.Equal(t, "critical", New("inc_1", 1, "x").WithMetadata("priority", "critical").Priority())
	assert.Equal(t, "normal", New("inc_1", 1, "x").WithMetadata("priority", "").Priority())
}
