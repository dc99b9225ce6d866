package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"adi/internal/taskengine"
)

func openTaskStore(root string) (*taskengine.Store, error) {
	path := tasksDBPath(root)
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	return taskengine.Open(path, root, logger)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the project's task DAG",
}

var (
	taskTitle       string
	taskDescription string
	taskDependsOn   []int64
)

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		dependsOn := make([]taskengine.TaskID, len(taskDependsOn))
		for i, id := range taskDependsOn {
			dependsOn[i] = taskengine.TaskID(id)
		}

		id, err := store.CreateTask(taskengine.CreateTask{
			Title:       taskTitle,
			Description: taskDescription,
			ProjectPath: root,
			DependsOn:   dependsOn,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created task %d\n", id)
		return nil
	},
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		tasks, err := store.ListTasks(&root)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(tasks)
	},
}

var tasksShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its dependency edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		task, err := store.GetTaskWithDependencies(id)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(task)
	},
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set a task's status (todo|in_progress|done|blocked|cancelled)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return store.UpdateStatus(id, taskengine.Status(args[1]))
	},
}

var tasksDepCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage dependency edges between tasks",
}

var tasksDepAddCmd = &cobra.Command{
	Use:   "add <from> <to>",
	Short: "Make <from> depend on <to>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		from, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		to, err := parseTaskID(args[1])
		if err != nil {
			return err
		}
		return store.AddDependency(from, to)
	},
}

var tasksDepRemoveCmd = &cobra.Command{
	Use:   "remove <from> <to>",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		from, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		to, err := parseTaskID(args[1])
		if err != nil {
			return err
		}
		return store.RemoveDependency(from, to)
	},
}

var tasksReadyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List tasks with no unmet dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		tasks, err := store.GetReadyTasks()
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(tasks)
	},
}

var tasksBlockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List tasks waiting on an incomplete dependency",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		store, err := openTaskStore(root)
		if err != nil {
			return err
		}
		defer store.Close()

		tasks, err := store.GetBlockedTasks()
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(tasks)
	},
}

func parseTaskID(s string) (taskengine.TaskID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q: %w", s, err)
	}
	return taskengine.TaskID(n), nil
}

func init() {
	tasksAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	tasksAddCmd.Flags().StringVar(&taskDescription, "description", "", "Task description")
	tasksAddCmd.Flags().Int64SliceVar(&taskDependsOn, "depends-on", nil, "Task IDs this task depends on")
	tasksAddCmd.MarkFlagRequired("title")

	tasksDepCmd.AddCommand(tasksDepAddCmd, tasksDepRemoveCmd)
	tasksCmd.AddCommand(tasksAddCmd, tasksListCmd, tasksShowCmd, tasksStatusCmd, tasksDepCmd, tasksReadyCmd, tasksBlockedCmd)
}
