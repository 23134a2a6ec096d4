package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/runoshun/issue-harvest/internal/domain"
	"github.com/runoshun/issue-harvest/internal/testutil"
	"github.com/runoshun/issue-harvest/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowStatus_Execute(t *testing.T) {
	store := testutil.NewMockCheckpointStore()
	store.LoadState = domain.CheckpointState{
		"SPARK":  {StartAt: 150},
		"KAFKA":  {StartAt: 900, Completed: true},
		"LEGACY": {StartAt: 20},
	}

	out, err := usecase.NewShowStatus(store, []string{"SPARK", "HADOOP", "KAFKA"}).Execute(context.Background(), usecase.ShowStatusInput{})
	require.NoError(t, err)

	assert.NoError(t, out.StateWarning)
	assert.Equal(t, []usecase.CollectionStatus{
		{Collection: "SPARK", StartAt: 150, Configured: true, Tracked: true},
		{Collection: "HADOOP", Configured: true},
		{Collection: "KAFKA", StartAt: 900, Completed: true, Configured: true, Tracked: true},
		{Collection: "LEGACY", StartAt: 20, Tracked: true},
	}, out.Collections)
}

func TestShowStatus_CorruptCheckpoint(t *testing.T) {
	store := testutil.NewMockCheckpointStore()
	store.LoadErr = domain.ErrCorruptCheckpoint

	out, err := usecase.NewShowStatus(store, []string{"SPARK"}).Execute(context.Background(), usecase.ShowStatusInput{})
	require.NoError(t, err)

	assert.ErrorIs(t, out.StateWarning, domain.ErrCorruptCheckpoint)
	assert.Equal(t, []usecase.CollectionStatus{{Collection: "SPARK", Configured: true}}, out.Collections)
}

func TestShowStatus_LoadError(t *testing.T) {
	store := testutil.NewMockCheckpointStore()
	store.LoadErr = errors.New("database disk image is malformed")

	_, err := usecase.NewShowStatus(store, nil).Execute(context.Background(), usecase.ShowStatusInput{})
	assert.Error(t, err)
}
