package client

import (
	"strings"
	"time"

	"github.com/splitlist/taskboard/domain"
)

// BucketUnassigned restricts the per-person view to tasks nobody holds.
const BucketUnassigned = "unassigned"

// Filter narrows every projection. Zero value means: all dues, all
// categories, no search, completed rows hidden.
type Filter struct {
	Due           domain.DueFilter
	CategoryID    string
	Search        string
	ShowCompleted bool
}

// BoardItem is one task as a projection renders it.
type BoardItem struct {
	Task domain.Task
	// Assignment is the row the item was bucketed by: the viewer's own row
	// in the self view, the bucket profile's row in the per-person view.
	// It is nil only in the unassigned bucket.
	Assignment   *domain.Assignment
	Bucket       domain.Bucket
	CategoryName string
}

// SelfView partitions the viewer's tasks into open and closed.
type SelfView struct {
	Open   []BoardItem
	Closed []BoardItem
	// Conflicted lists task ids whose rows for the viewer are duplicated.
	// They are excluded from both partitions rather than resolved silently.
	Conflicted []string
}

// AdminBucket is one column of the per-person view.
type AdminBucket struct {
	// Profile is nil for the unassigned bucket.
	Profile   *domain.Profile
	Items     []BoardItem
	OpenCount int
	DoneCount int
}

// AdminView fans every task out to each of its assignees and collects tasks
// without assignees into the unassigned bucket.
type AdminView struct {
	Unassigned AdminBucket
	Profiles   []AdminBucket
	Conflicted []string
}

// ProjectSelf renders the viewer's board from a task snapshot. Tasks pass the
// filter as a whole; the open/closed split follows the viewer's own row. The
// Closed partition stays empty unless the filter shows completed rows.
func ProjectSelf(tasks []domain.Task, viewerID string, categories []domain.Category, f Filter, now time.Time) SelfView {
	var view SelfView
	for _, task := range tasks {
		row, err := task.AssignmentFor(viewerID)
		if err != nil {
			if err == domain.ErrDuplicateAssignment {
				view.Conflicted = append(view.Conflicted, task.ID)
			}
			continue
		}
		if !matchesFilter(&task, categories, f, now) {
			continue
		}

		item := BoardItem{
			Task:         task,
			Assignment:   row,
			Bucket:       domain.BucketOf(task.Due, now),
			CategoryName: domain.CategoryName(categories, task.CategoryID),
		}
		if row.IsComplete() {
			if f.ShowCompleted {
				view.Closed = append(view.Closed, item)
			}
			continue
		}
		view.Open = append(view.Open, item)
	}
	return view
}

// ProjectAdmin renders the per-person board. Tasks with several assignees
// appear once per assignee bucket. Bucket counts always cover the full
// filtered membership; hiding completed rows only trims the listed items.
// A non-empty only argument restricts the view to that single bucket, either
// BucketUnassigned or a profile id.
func ProjectAdmin(tasks []domain.Task, profiles []domain.Profile, categories []domain.Category, f Filter, only string, now time.Time) AdminView {
	var view AdminView
	conflicted := make(map[string]struct{})

	filtered := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if matchesFilter(&task, categories, f, now) {
			filtered = append(filtered, task)
		}
	}

	if only == "" || only == BucketUnassigned {
		for _, task := range filtered {
			if len(task.Assignments) > 0 {
				continue
			}
			view.Unassigned.Items = append(view.Unassigned.Items, BoardItem{
				Task:         task,
				Bucket:       domain.BucketOf(task.Due, now),
				CategoryName: domain.CategoryName(categories, task.CategoryID),
			})
		}
		// Unassigned tasks have no completion state, so they all count open.
		view.Unassigned.OpenCount = len(view.Unassigned.Items)
	}

	for i := range profiles {
		profile := &profiles[i]
		if only != "" && only != profile.ID {
			continue
		}

		bucket := AdminBucket{Profile: profile}
		for _, task := range filtered {
			if !task.HasAssignee(profile.ID) {
				continue
			}
			row, err := task.AssignmentFor(profile.ID)
			if err != nil {
				if err == domain.ErrDuplicateAssignment {
					if _, seen := conflicted[task.ID]; !seen {
						conflicted[task.ID] = struct{}{}
						view.Conflicted = append(view.Conflicted, task.ID)
					}
				}
				continue
			}

			if row.IsComplete() {
				bucket.DoneCount++
			} else {
				bucket.OpenCount++
			}
			if row.IsComplete() && !f.ShowCompleted {
				continue
			}
			bucket.Items = append(bucket.Items, BoardItem{
				Task:         task,
				Assignment:   row,
				Bucket:       domain.BucketOf(task.Due, now),
				CategoryName: domain.CategoryName(categories, task.CategoryID),
			})
		}
		view.Profiles = append(view.Profiles, bucket)
	}

	return view
}

// matchesFilter applies the due-state, category and search narrowing shared
// by both projections.
func matchesFilter(task *domain.Task, categories []domain.Category, f Filter, now time.Time) bool {
	if !domain.MatchesDueFilter(task.Due, now, f.Due) {
		return false
	}
	if f.CategoryID != "" && f.CategoryID != "all" && task.CategoryID != f.CategoryID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		if needle != "" {
			haystack := strings.ToLower(task.Title + "\n" + task.Note + "\n" + domain.CategoryName(categories, task.CategoryID))
			if !strings.Contains(haystack, needle) {
				return false
			}
		}
	}
	return true
}
