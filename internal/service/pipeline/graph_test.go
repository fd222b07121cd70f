package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/domain"
)

func job(id string, preceding ...string) domain.Job {
	j := domain.Job{ID: id, Name: id, WorkerClass: "Delay"}
	for _, p := range preceding {
		j.StartConditions = append(j.StartConditions, domain.StartCondition{
			JobID: id, PrecedingJobID: p, Condition: domain.ConditionSuccess,
		})
	}
	return j
}

func TestValidateGraph(t *testing.T) {
	tests := []struct {
		name    string
		jobs    []domain.Job
		wantErr string
	}{
		{
			name: "empty",
			jobs: nil,
		},
		{
			name: "chain",
			jobs: []domain.Job{job("a"), job("b", "a"), job("c", "b")},
		},
		{
			name: "diamond",
			jobs: []domain.Job{job("a"), job("b", "a"), job("c", "a"), job("d", "b", "c")},
		},
		{
			name:    "self dependency",
			jobs:    []domain.Job{job("a", "a")},
			wantErr: `job "a" depends on itself`,
		},
		{
			name:    "unknown preceding job",
			jobs:    []domain.Job{job("a"), job("b", "ghost")},
			wantErr: `references unknown preceding job`,
		},
		{
			name:    "two node cycle",
			jobs:    []domain.Job{job("a", "b"), job("b", "a")},
			wantErr: "dependency cycle",
		},
		{
			name:    "cycle behind a valid prefix",
			jobs:    []domain.Job{job("a"), job("b", "a", "d"), job("c", "b"), job("d", "c")},
			wantErr: "dependency cycle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGraph(tt.jobs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorAs(t, err, new(*domain.ValidationError))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
