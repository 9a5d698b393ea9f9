// Package report renders the stored entities as TSV files, XLSX workbooks and the task summary
// shown on the analysis page.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/uhppoted/uhppoted-app-tasks/model"
)

type Count struct {
	Name  string
	Count int
}

type Summary struct {
	Total      int
	Active     int
	Done       int
	Overdue    int
	Progress   float64
	ByStatus   []Count
	ByCategory []Count
	ByAssignee []Count
}

const Unassigned = "(sin asignar)"

// Summarise counts tasks by status, category and assignee. Statuses are listed in workflow order
// followed by any other status found in the sheet, categories and assignees by descending count.
// Progress is the average completion across all tasks, rounded to one decimal place.
func Summarise(tasks []model.Task, today time.Time) Summary {
	summary := Summary{
		Total: len(tasks),
	}

	statuses := map[string]int{}
	categories := map[string]int{}
	assignees := map[string]int{}
	progress := 0

	for _, t := range tasks {
		if t.Status.Done() {
			summary.Done++
		} else {
			summary.Active++
		}

		if t.Overdue(today) {
			summary.Overdue++
		}

		progress += t.Progress

		statuses[string(t.Status)]++
		categories[label(t.Category)]++
		assignees[label(t.Assignee)]++
	}

	if len(tasks) > 0 {
		summary.Progress = math.Round(10*float64(progress)/float64(len(tasks))) / 10
	}

	for _, s := range model.Statuses {
		summary.ByStatus = append(summary.ByStatus, Count{string(s), statuses[string(s)]})
		delete(statuses, string(s))
	}

	summary.ByStatus = append(summary.ByStatus, ranked(statuses)...)
	summary.ByCategory = ranked(categories)
	summary.ByAssignee = ranked(assignees)

	return summary
}

func ranked(counts map[string]int) []Count {
	list := []Count{}
	for k, v := range counts {
		list = append(list, Count{k, v})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Count == list[j].Count {
			return list[i].Name < list[j].Name
		}

		return list[i].Count > list[j].Count
	})

	return list
}

func label(v string) string {
	if v == "" {
		return Unassigned
	}

	return v
}
