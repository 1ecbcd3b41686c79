// ABOUTME: Account and session commands: register, login, logout, whoami, accounts
// ABOUTME: They share the profile's session with the web UI

package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/taskboard/internal/accounts"
	"github.com/2389/taskboard/internal/board"
	"github.com/2389/taskboard/internal/tasks"
)

// RegisterCmd creates an account.
type RegisterCmd struct {
	Name     string `help:"Display name"`
	Email    string `help:"Login email"`
	Password string `help:"Password (prompted when omitted)"`
	Role     string `help:"Account role" enum:"estudiante,docente" default:"estudiante"`
}

func (r *RegisterCmd) Run(g *Global) error {
	if r.Name == "" {
		r.Name = g.prompt("Nombre", "")
	}
	if r.Email == "" {
		r.Email = g.prompt("Correo", "")
	}
	if r.Password == "" {
		r.Password = g.prompt("Contraseña", "")
	}

	return g.withBoard(func(svc *board.Service) error {
		acct, err := svc.Register(g.Ctx, board.RegisterInput{
			Name:     r.Name,
			Email:    r.Email,
			Password: r.Password,
			Role:     r.Role,
		})
		if err != nil {
			return describe(err)
		}
		color.New(color.FgGreen).Fprint(g.Out, "✓ ")
		fmt.Fprintf(g.Out, "Registered %s <%s> as %s\n", acct.Name, acct.Email, acct.Role)
		return nil
	})
}

// LoginCmd starts a session.
type LoginCmd struct {
	Email    string `arg:"" help:"Login email"`
	Password string `help:"Password (prompted when omitted)"`
}

func (l *LoginCmd) Run(g *Global) error {
	if l.Password == "" {
		l.Password = g.prompt("Contraseña", "")
	}

	return g.withBoard(func(svc *board.Service) error {
		acct, err := svc.Login(g.Ctx, l.Email, l.Password)
		if err != nil {
			return describe(err)
		}
		color.New(color.FgGreen).Fprint(g.Out, "✓ ")
		fmt.Fprintf(g.Out, "Bienvenido, %s\n", acct.Name)
		return nil
	})
}

// LogoutCmd ends the session.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(g *Global) error {
	return g.withBoard(func(svc *board.Service) error {
		if err := svc.Logout(g.Ctx); err != nil {
			return err
		}
		fmt.Fprintln(g.Out, "Logged out")
		return nil
	})
}

// WhoamiCmd prints the session's account.
type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(g *Global) error {
	return g.withBoard(func(svc *board.Service) error {
		acct, err := currentUser(g.Ctx, svc)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "%s <%s>", acct.Name, acct.Email)
		if acct.Role != "" {
			color.New(color.FgHiBlack).Fprintf(g.Out, " (%s)", acct.Role)
		}
		fmt.Fprintln(g.Out)
		return nil
	})
}

// AccountsCmd lists accounts. Passwords are never printed.
type AccountsCmd struct{}

func (a *AccountsCmd) Run(g *Global) error {
	return g.withBoard(func(svc *board.Service) error {
		all, err := svc.ListAccounts(g.Ctx)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Fprintln(g.Out, "No accounts registered")
			return nil
		}

		tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tEMAIL\tROLE")
		for _, acct := range all {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", acct.Name, acct.Email, acct.Role)
		}
		return tw.Flush()
	})
}

// currentUser is CurrentUser with a friendlier message for a missing session.
func currentUser(ctx context.Context, svc *board.Service) (*accounts.Account, error) {
	acct, err := svc.CurrentUser(ctx)
	if errors.Is(err, board.ErrSessionRequired) {
		return nil, errors.New("not logged in; run 'taskboard login <email>' first")
	}
	return acct, err
}

// describe turns the service's rejections into short messages for the terminal.
func describe(err error) error {
	var fe *board.FieldError
	switch {
	case errors.As(err, &fe):
		return fmt.Errorf("%s es obligatorio", fe.Field)
	case errors.Is(err, accounts.ErrDuplicateEmail):
		return errors.New("este correo ya está registrado")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return errors.New("credenciales incorrectas")
	case errors.Is(err, board.ErrSessionRequired):
		return errors.New("not logged in; run 'taskboard login <email>' first")
	case errors.Is(err, board.ErrForbidden):
		return errors.New("task belongs to another account")
	case errors.Is(err, tasks.ErrTaskNotFound):
		return errors.New("task not found")
	default:
		return err
	}
}
