package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/splitlist/taskboard/client"
	"github.com/splitlist/taskboard/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printNotice(w io.Writer, notice string) {
	if notice == "" {
		return
	}
	fmt.Fprintln(w, notice)
	fmt.Fprintln(w)
}

// formatItem renders one board line:
//
//	[ ] task-1  Water the plants  (late since 2026-08-19)  #Chores
func formatItem(item client.BoardItem) string {
	mark := "[ ]"
	if item.Assignment.IsComplete() {
		mark = "[x]"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s  %s", mark, item.Task.ID, item.Task.Title)
	if tag := dueTag(item); tag != "" {
		fmt.Fprintf(&sb, "  (%s)", tag)
	}
	if item.CategoryName != "" {
		fmt.Fprintf(&sb, "  #%s", item.CategoryName)
	}
	if item.Assignment != nil && item.Assignment.CompletionNote != "" {
		fmt.Fprintf(&sb, "  %q", item.Assignment.CompletionNote)
	}
	return sb.String()
}

func dueTag(item client.BoardItem) string {
	switch item.Bucket {
	case domain.BucketLate:
		return "late since " + item.Task.Due.String()
	case domain.BucketToday:
		return "due today"
	case domain.BucketFuture:
		return "due " + item.Task.Due.String()
	}
	return ""
}

func renderSelfView(w io.Writer, view client.SelfView) {
	if len(view.Open) == 0 && len(view.Closed) == 0 && len(view.Conflicted) == 0 {
		fmt.Fprintln(w, "nothing on your board")
		return
	}
	for _, item := range view.Open {
		fmt.Fprintln(w, formatItem(item))
	}
	if len(view.Closed) > 0 {
		if len(view.Open) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "done:")
		for _, item := range view.Closed {
			fmt.Fprintln(w, formatItem(item))
		}
	}
	warnConflicts(w, view.Conflicted)
}

func renderAdminView(w io.Writer, view client.AdminView) {
	wrote := false
	if len(view.Unassigned.Items) > 0 || len(view.Profiles) == 0 {
		fmt.Fprintf(w, "unassigned  %d open\n", view.Unassigned.OpenCount)
		for _, item := range view.Unassigned.Items {
			fmt.Fprintln(w, "  "+formatItem(item))
		}
		wrote = true
	}
	for _, bucket := range view.Profiles {
		if wrote {
			fmt.Fprintln(w)
		}
		wrote = true
		name := "(unknown)"
		if bucket.Profile != nil {
			name = bucket.Profile.DisplayName
			if name == "" {
				name = bucket.Profile.ID
			}
		}
		fmt.Fprintf(w, "%s  %d open, %d done\n", name, bucket.OpenCount, bucket.DoneCount)
		for _, item := range bucket.Items {
			fmt.Fprintln(w, "  "+formatItem(item))
		}
	}
	warnConflicts(w, view.Conflicted)
}

func warnConflicts(w io.Writer, taskIDs []string) {
	if len(taskIDs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nwarning: duplicate assignment rows on %s; these tasks are hidden until repaired\n",
		strings.Join(taskIDs, ", "))
}

func renderSyncResult(w io.Writer, taskID string, result client.SyncResult) {
	if result.NoChange() {
		fmt.Fprintf(w, "%s: assignees already match\n", taskID)
		return
	}
	if len(result.Added) > 0 {
		fmt.Fprintf(w, "%s: added %s\n", taskID, strings.Join(result.Added, ", "))
	}
	if len(result.Removed) > 0 {
		fmt.Fprintf(w, "%s: removed %s\n", taskID, strings.Join(result.Removed, ", "))
	}
	if !result.Refreshed {
		fmt.Fprintln(w, "note: the change applied remotely but re-reading the board failed; run \"boardctl list\" to catch up")
	}
}

func renderTask(w io.Writer, task *domain.Task) {
	if task == nil {
		return
	}
	fmt.Fprintf(w, "%s  %s\n", task.ID, task.Title)
	if task.Due != nil {
		fmt.Fprintf(w, "  due: %s\n", task.Due.String())
	}
	if task.Note != "" {
		fmt.Fprintf(w, "  note: %s\n", task.Note)
	}
	if len(task.Assignments) > 0 {
		fmt.Fprintf(w, "  assignees: %s\n", strings.Join(task.AssigneeIDs(), ", "))
	}
}
