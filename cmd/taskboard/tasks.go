// ABOUTME: Task commands: list, create, show, edit and delete
// ABOUTME: All of them require a session started with 'taskboard login'

package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/taskboard/internal/board"
	"github.com/2389/taskboard/internal/tasks"
)

// TasksCmd groups the task subcommands.
type TasksCmd struct {
	List   TasksListCmd   `cmd:"" default:"1" help:"List tasks"`
	Create TasksCreateCmd `cmd:"" help:"Create a task"`
	Show   TasksShowCmd   `cmd:"" help:"Show one task"`
	Edit   TasksEditCmd   `cmd:"" help:"Edit a task"`
	Delete TasksDeleteCmd `cmd:"" help:"Delete a task"`
}

type TasksListCmd struct {
	Status string `help:"Only show tasks with this status (Pendiente, En progreso, Completada)"`
}

func (l *TasksListCmd) Run(g *Global) error {
	if err := checkStatus(l.Status); err != nil {
		return err
	}
	return g.withBoard(func(svc *board.Service) error {
		list, err := svc.ListTasks(g.Ctx)
		if err != nil {
			return describe(err)
		}

		tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTÍTULO\tFECHA\tESTADO\tRESPONSABLE")
		shown := 0
		for _, t := range list {
			if l.Status != "" && t.Status != l.Status {
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.DueDate, t.Status, t.Owner)
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(g.Out, "No hay tareas.")
			return nil
		}
		return tw.Flush()
	})
}

type TasksCreateCmd struct {
	Title       string `help:"Task title" required:""`
	Description string `help:"Markdown description"`
	Due         string `help:"Due date (YYYY-MM-DD)" required:""`
	Status      string `help:"Initial status (Pendiente, En progreso, Completada)" default:"Pendiente"`
}

func (c *TasksCreateCmd) Run(g *Global) error {
	if err := checkStatus(c.Status); err != nil {
		return err
	}
	return g.withBoard(func(svc *board.Service) error {
		task, err := svc.CreateTask(g.Ctx, board.TaskInput{
			Title:       c.Title,
			Description: c.Description,
			DueDate:     c.Due,
			Status:      c.Status,
		})
		if err != nil {
			return describe(err)
		}
		color.New(color.FgGreen).Fprint(g.Out, "✓ ")
		fmt.Fprintf(g.Out, "Created task %d: %s\n", task.ID, task.Title)
		return nil
	})
}

type TasksShowCmd struct {
	ID int64 `arg:"" help:"Task id"`
}

func (s *TasksShowCmd) Run(g *Global) error {
	return g.withBoard(func(svc *board.Service) error {
		task, err := svc.GetTask(g.Ctx, s.ID)
		if err != nil {
			return describe(err)
		}
		printTask(g, task)
		return nil
	})
}

func printTask(g *Global, t *tasks.Task) {
	label := color.New(color.FgHiBlack)
	color.New(color.Bold).Fprintf(g.Out, "%s\n", t.Title)
	label.Fprint(g.Out, "ID:          ")
	fmt.Fprintf(g.Out, "%d\n", t.ID)
	label.Fprint(g.Out, "Fecha:       ")
	fmt.Fprintln(g.Out, t.DueDate)
	label.Fprint(g.Out, "Estado:      ")
	fmt.Fprintln(g.Out, t.Status)
	label.Fprint(g.Out, "Responsable: ")
	fmt.Fprintln(g.Out, t.Owner)
	if t.Description != "" {
		fmt.Fprintf(g.Out, "\n%s\n", t.Description)
	}
}

// TasksEditCmd overwrites a task. Flags left empty keep the current value.
type TasksEditCmd struct {
	ID               int64  `arg:"" help:"Task id"`
	Title            string `help:"New title"`
	Description      string `help:"New Markdown description"`
	ClearDescription bool   `help:"Remove the description"`
	Due              string `help:"New due date (YYYY-MM-DD)"`
	Status           string `help:"New status (Pendiente, En progreso, Completada)"`
}

func (e *TasksEditCmd) Run(g *Global) error {
	if err := checkStatus(e.Status); err != nil {
		return err
	}
	return g.withBoard(func(svc *board.Service) error {
		current, err := svc.GetTask(g.Ctx, e.ID)
		if err != nil {
			return describe(err)
		}

		in := board.TaskInput{
			Title:       pick(e.Title, current.Title),
			Description: pick(e.Description, current.Description),
			DueDate:     pick(e.Due, current.DueDate),
			Status:      pick(e.Status, current.Status),
		}
		if e.ClearDescription {
			in.Description = ""
		}

		task, err := svc.EditTask(g.Ctx, e.ID, in)
		if err != nil {
			return describe(err)
		}
		color.New(color.FgGreen).Fprint(g.Out, "✓ ")
		fmt.Fprintf(g.Out, "Updated task %d\n", task.ID)
		return nil
	})
}

// checkStatus accepts an empty value or one of tasks.Statuses.
func checkStatus(status string) error {
	if status == "" || slices.Contains(tasks.Statuses, status) {
		return nil
	}
	return fmt.Errorf("unknown status %q, want one of: %s", status, strings.Join(tasks.Statuses, ", "))
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

type TasksDeleteCmd struct {
	ID int64 `arg:"" help:"Task id"`
}

func (d *TasksDeleteCmd) Run(g *Global) error {
	return g.withBoard(func(svc *board.Service) error {
		if err := svc.DeleteTask(g.Ctx, d.ID); err != nil {
			return describe(err)
		}
		fmt.Fprintf(g.Out, "Deleted task %d\n", d.ID)
		return nil
	})
}
