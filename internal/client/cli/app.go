// Package cli implements the interactive admin client for the account
// server: register, login and basic account management from a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dmpavlov/userkeeper/internal/client/api"
	"github.com/dmpavlov/userkeeper/internal/server/httpapi"
)

type App struct {
	client *api.Client
	in     *bufio.Reader
	out    io.Writer
}

func NewApp(client *api.Client, in io.Reader, out io.Writer) *App {
	return &App{
		client: client,
		in:     bufio.NewReader(in),
		out:    out,
	}
}

// Exec dispatches a single command. Unknown commands print usage.
func (a *App) Exec(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "list":
		return a.List(ctx, args)
	case "get":
		return a.Get(ctx, args)
	case "update":
		return a.Update(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	default:
		a.printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *App) printUsage() {
	fmt.Fprintln(a.out, "Commands:")
	fmt.Fprintln(a.out, "  register          — create an account")
	fmt.Fprintln(a.out, "  login             — authenticate and print a session token")
	fmt.Fprintln(a.out, "  list [page size]  — list accounts (requires -token)")
	fmt.Fprintln(a.out, "  get <id>          — show one account (requires -token)")
	fmt.Fprintln(a.out, "  update <id>       — change account fields (requires -token)")
	fmt.Fprintln(a.out, "  delete <id>       — remove an account (requires -token)")
}

func (a *App) Register(ctx context.Context) error {
	name, err := GetSimpleText(a.in, "Enter name", a.out)
	if err != nil {
		return err
	}

	email, err := GetSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	number, cityCode, countryCode, err := GetPhone(a.in, a.out)
	if err != nil {
		return err
	}

	req := &httpapi.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: string(password),
	}
	if number != "" {
		req.Phones = []httpapi.PhoneRequest{{
			Number:      number,
			CityCode:    cityCode,
			CountryCode: countryCode,
		}}
	}

	user, err := a.client.Register(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", user.Name, user.ID)
	fmt.Fprintf(a.out, "Session token: %s\n", user.Token)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	user, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", user.Name, user.ID)
	fmt.Fprintf(a.out, "Session token: %s\n", user.Token)
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	page, size := 0, 10
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			page = v
		}
	}
	if len(args) >= 2 {
		if v, err := strconv.Atoi(args[1]); err == nil {
			size = v
		}
	}

	paged, err := a.client.ListUsers(ctx, page, size)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Page %d/%d, %d accounts total\n", paged.Page+1, paged.TotalPages, paged.TotalElements)
	for _, user := range paged.Content {
		fmt.Fprintf(a.out, "  %s  %-25s %s\n", user.ID, user.Email, user.Name)
	}
	return nil
}

func (a *App) Get(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: get <id>")
	}

	user, err := a.client.GetUser(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ID:         %s\n", user.ID)
	fmt.Fprintf(a.out, "Name:       %s\n", user.Name)
	fmt.Fprintf(a.out, "Email:      %s\n", user.Email)
	fmt.Fprintf(a.out, "Active:     %t\n", user.Active)
	fmt.Fprintf(a.out, "Created:    %s\n", user.Created)
	fmt.Fprintf(a.out, "Last login: %s\n", user.LastLogin)
	for _, phone := range user.Phones {
		fmt.Fprintf(a.out, "Phone:      %s %s %s\n", phone.CountryCode, phone.CityCode, phone.Number)
	}
	return nil
}

func (a *App) Update(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: update <id>")
	}

	name, err := GetSimpleText(a.in, "Enter new name (empty to keep)", a.out)
	if err != nil {
		return err
	}

	email, err := GetSimpleText(a.in, "Enter new email (empty to keep)", a.out)
	if err != nil {
		return err
	}

	req := &httpapi.UpdateUserRequest{}
	if name != "" {
		req.Name = &name
	}
	if email != "" {
		req.Email = &email
	}

	user, err := a.client.UpdateUser(ctx, args[0], req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Updated %s: %s <%s>\n", user.ID, user.Name, user.Email)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: delete <id>")
	}

	if err := a.client.DeleteUser(ctx, args[0]); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}
