package pipeline

import (
	"pipeflow/internal/domain"
)

// ValidateGraph checks that start conditions form a well-formed DAG: every
// edge references a job in the same set, no job depends on itself, and no
// cycle exists. Cycle detection is Kahn's algorithm; a topological pass that
// cannot consume every job proves a cycle.
func ValidateGraph(jobs []domain.Job) error {
	byID := make(map[string]*domain.Job, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID] = &jobs[i]
	}

	indegree := make(map[string]int, len(jobs))
	dependents := make(map[string][]string, len(jobs))
	for i := range jobs {
		indegree[jobs[i].ID] = 0
	}
	for i := range jobs {
		for _, c := range jobs[i].StartConditions {
			if c.PrecedingJobID == jobs[i].ID {
				return domain.ErrValidation("job %q depends on itself", jobs[i].Name)
			}
			if _, ok := byID[c.PrecedingJobID]; !ok {
				return domain.ErrValidation("job %q references unknown preceding job %s", jobs[i].Name, c.PrecedingJobID)
			}
			indegree[jobs[i].ID]++
			dependents[c.PrecedingJobID] = append(dependents[c.PrecedingJobID], jobs[i].ID)
		}
	}

	queue := make([]string, 0, len(jobs))
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited != len(jobs) {
		return domain.ErrValidation("start conditions contain a dependency cycle")
	}
	return nil
}
