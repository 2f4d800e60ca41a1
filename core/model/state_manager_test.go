package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager("SFA")
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("Transform")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "SFA", nf.ModelName)

	s.SetFitted(20, 50, 10)
	require.NoError(t, s.RequireFitted("Transform"))
	n, p := s.Dimensions()
	assert.Equal(t, 20, n)
	assert.Equal(t, []int{50, 10}, p)

	require.NoError(t, s.RequireFeatures("Transform", 1, 10))
	var de *errors.DimensionError
	assert.True(t, errors.As(s.RequireFeatures("Transform", 0, 49), &de))
	assert.Error(t, s.RequireFeatures("Transform", 2, 1))

	s.Reset()
	assert.False(t, s.IsFitted())
}
