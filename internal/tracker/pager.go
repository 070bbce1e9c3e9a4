package tracker

import (
	"sort"

	"github.com/Joseda-hg/taskgroove/internal/model"
)

const DefaultPageSize = 50

// completedPager holds the display limit over the completed subset. It is
// process-local and never persisted.
type completedPager struct {
	pageSize    int
	limit       int
	loadingMore bool
}

func newCompletedPager(pageSize int) completedPager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return completedPager{pageSize: pageSize, limit: pageSize}
}

func (p *completedPager) loadMore() {
	p.loadingMore = true
	p.limit += p.pageSize
	p.loadingMore = false
}

func (p completedPager) visible(completed []model.Task) []model.Task {
	if len(completed) <= p.limit {
		return completed
	}
	return completed[:p.limit]
}

func (p completedPager) hasMore(completed []model.Task) bool {
	return len(completed) > p.limit
}

func (p completedPager) remaining(completed []model.Task) int {
	return max(0, len(completed)-p.limit)
}

// sortCompleted returns completed tasks by due date, newest first. Undated
// tasks sort as the oldest possible date and keep collection order among
// themselves.
func sortCompleted(tasks []model.Task) []model.Task {
	completed := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed {
			completed = append(completed, task)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		a, b := completed[i].DueDate, completed[j].DueDate
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.After(*b)
	})
	return completed
}
