package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinKaiser/FinCal/internal/pkg/env"
)

func TestStartRejectsInvalidCronSpec(t *testing.T) {
	env.Env = map[string]string{"SCHEDULER_PROCESS_SPEC": "not a spec"}
	defer func() { env.Env = map[string]string{} }()

	s := New(nil, nil)
	assert.Error(t, s.Start())
}

func TestStartWithEmptySpecsDisablesAllJobs(t *testing.T) {
	env.Env = map[string]string{
		"SCHEDULER_PROCESS_SPEC": "",
		"SCHEDULER_DUE_SPEC":     "",
		"SCHEDULER_OVERDUE_SPEC": "",
	}
	defer func() { env.Env = map[string]string{} }()

	s := New(nil, nil)
	require.NoError(t, s.Start())
	assert.Empty(t, s.cronEngine.Entries())
	s.Stop()
}

func TestStartRegistersDefaultJobs(t *testing.T) {
	env.Env = map[string]string{}

	s := New(nil, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cronEngine.Entries(), 3)
	s.Stop()
}
