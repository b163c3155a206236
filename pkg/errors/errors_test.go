package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	e := New(CodeNotFound, "project not found")
	assert.Equal(t, "not_found: project not found", e.Error())

	w := Wrap(stderrors.New("boom"), CodeInternal, "create failed")
	assert.Equal(t, "internal: create failed: boom", w.Error())

	var nilErr *AppError
	assert.Equal(t, "<nil>", nilErr.Error())
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	base := New(CodeBadRequest, "No requirement snapshot found. Generate requirements first.")
	wrapped := fmt.Errorf("generate estimate: %w", base)

	assert.Equal(t, CodeBadRequest, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeBadRequest))
	assert.False(t, IsCode(wrapped, CodeNotFound))
	assert.Equal(t, CodeUnknown, CodeOf(stderrors.New("plain")))

	ae, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, base.Message, ae.Message)
}

func TestWrapNilFallsBackToNew(t *testing.T) {
	e := Wrap(nil, CodeConflict, "version taken")
	assert.Nil(t, e.Err)
	assert.Equal(t, CodeConflict, e.Code)
}

func TestWithMeta(t *testing.T) {
	e := New(CodeUpstreamFailure, "ai call failed").WithMeta("task", "extract_features")
	assert.Equal(t, "extract_features", e.Meta["task"])
}
