// File: internal/portal/selectors_test.go
package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelectorsValidate(t *testing.T) {
	require.NoError(t, DefaultSelectors().Validate())
}

func TestValidateMissingKey(t *testing.T) {
	s := DefaultSelectors()
	delete(s, SelDetailModal)

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), SelDetailModal)
}

func TestValidateEmptyExpression(t *testing.T) {
	s := DefaultSelectors()
	s[SelNextButton] = "   "

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), SelNextButton)
}

func TestValidateCoversAllKeys(t *testing.T) {
	err := SelectorMap{}.Validate()
	require.Error(t, err)
	for _, key := range requiredSelectors {
		assert.Contains(t, err.Error(), key)
	}
}
