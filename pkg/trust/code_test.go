package trust_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schooltrust/platform/pkg/trust"
)

func TestValidateCode(t *testing.T) {
	t.Parallel()

	t.Run("accepts valid codes", func(t *testing.T) {
		t.Parallel()

		for _, code := range []string{"demo", "maroon", "st-marys", "trust_07", "ab"} {
			got, err := trust.ValidateCode(code)
			require.NoError(t, err, "code %q should be valid", code)
			assert.Equal(t, code, got)
		}
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		t.Parallel()

		got, err := trust.ValidateCode("  Maroon ")
		require.NoError(t, err)
		assert.Equal(t, "maroon", got)
	})

	t.Run("rejects reserved words", func(t *testing.T) {
		t.Parallel()

		for _, code := range []string{"admin", "api", "system", "www", "app", "mail", "ftp", "ADMIN"} {
			_, err := trust.ValidateCode(code)
			require.Error(t, err, "code %q should be reserved", code)
			assert.ErrorIs(t, err, trust.ErrInvalidCode)
		}
	})

	t.Run("rejects bad lengths", func(t *testing.T) {
		t.Parallel()

		_, err := trust.ValidateCode("a")
		assert.ErrorIs(t, err, trust.ErrInvalidCode)

		_, err = trust.ValidateCode("abcdefghijklmnopqrstu")
		assert.ErrorIs(t, err, trust.ErrInvalidCode)
	})

	t.Run("rejects invalid characters", func(t *testing.T) {
		t.Parallel()

		for _, code := range []string{"acme corp", "acme.school", "-acme", "_acme", "ac/me", "school;drop"} {
			_, err := trust.ValidateCode(code)
			require.Error(t, err, "code %q should be invalid", code)
			assert.ErrorIs(t, err, trust.ErrInvalidCode)
		}
	})
}

func TestDatabaseName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "school_erp_trust_demo", trust.DatabaseName("school_erp_trust_", "demo"))
	assert.Equal(t, "school_erp_trust_maroon", trust.DatabaseName("school_erp_trust_", "Maroon"))
}

func TestIsReservedCode(t *testing.T) {
	t.Parallel()

	assert.True(t, trust.IsReservedCode("admin"))
	assert.True(t, trust.IsReservedCode("Admin"))
	assert.False(t, trust.IsReservedCode("maroon"))
}
