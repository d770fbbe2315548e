package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"arbpanel/internal/models"
	"arbpanel/internal/panel"
	"arbpanel/internal/stream"

	flag "github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.auth.Logout(ctx)
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	switch cmd {
	case "list":
		return a.list(ctx)
	case "add":
		return a.add(ctx, args)
	case "set":
		return a.set(ctx, args)
	case "rm":
		return a.remove(ctx, args)
	case "start":
		return a.command(ctx, args, a.lifecycle.Start)
	case "stop":
		return a.command(ctx, args, a.lifecycle.Stop)
	case "logs":
		return a.logs(ctx, args)
	case "live":
		return a.live(ctx, args)
	case "env":
		return a.envCmd(ctx, args)
	case "daily":
		return a.daily(ctx, args)
	case "trades":
		return a.trades(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) requireSession(ctx context.Context) error {
	ok, err := a.auth.Verify(ctx)
	if err != nil {
		return fmt.Errorf("stored credential no longer valid, run login: %w", err)
	}
	if !ok {
		return fmt.Errorf("not logged in, run login: %w", panel.ErrNotAuthenticated)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.StringP("user", "u", a.cfg.Panel.User, "username")
	password := fs.StringP("password", "p", a.cfg.Panel.Password, "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := a.auth.Login(ctx, *user, *password); err != nil {
		return err
	}
	fmt.Println("logged in as", *user)
	return nil
}

func (a *app) list(ctx context.Context) error {
	if err := a.sync.Load(ctx); err != nil {
		return err
	}
	return printRows(os.Stdout, a.sync.Rows())
}

func (a *app) add(ctx context.Context, args []string) error {
	if err := a.sync.Load(ctx); err != nil {
		return err
	}
	template := models.DefaultTemplate()
	for _, kv := range args {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: expected KEY=VALUE, got %q", errUsage, kv)
		}
		template[key] = value
	}
	id := a.sync.Add(template)
	if err := a.sync.Save(ctx); err != nil {
		return err
	}
	fmt.Println("added", id)
	return nil
}

func (a *app) set(ctx context.Context, args []string) error {
	id, rest, err := parseIdentity(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("%w: set needs at least one KEY=VALUE", errUsage)
	}
	if err := a.sync.Load(ctx); err != nil {
		return err
	}

	dialog, err := a.sync.OpenEdit(id)
	if err != nil {
		return err
	}
	for _, kv := range rest {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			dialog.Close()
			return fmt.Errorf("%w: expected KEY=VALUE, got %q", errUsage, kv)
		}
		if err := dialog.Set(key, value); err != nil {
			return err
		}
	}
	return dialog.Save(ctx)
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, _, err := parseIdentity(args)
	if err != nil {
		return err
	}
	if err := a.sync.Load(ctx); err != nil {
		return err
	}
	dialog, err := a.sync.OpenEdit(id)
	if err != nil {
		return err
	}
	return dialog.ConfirmDelete(ctx)
}

func (a *app) command(ctx context.Context, args []string, fn func(context.Context, models.Identity) error) error {
	id, _, err := parseIdentity(args)
	if err != nil {
		return err
	}
	cmdErr := fn(ctx, id)
	if !errors.Is(cmdErr, panel.ErrUnauthorized) && !errors.Is(cmdErr, panel.ErrNotAuthenticated) {
		fmt.Printf("%s running: %t\n", id, a.sync.IsRunning(id))
	}
	return cmdErr
}

func (a *app) logs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	follow := fs.BoolP("follow", "f", false, "keep polling")
	lines := fs.IntP("lines", "n", a.cfg.Stream.LogLines, "lines to fetch")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, _, err := parseIdentity(fs.Args())
	if err != nil {
		return err
	}

	if !*follow {
		text, err := a.client.Logs(ctx, id, *lines)
		if text != "" {
			fmt.Println(text)
		}
		return err
	}
	return a.watch(ctx, stream.NewSlot(a.logTail), id)
}

func (a *app) live(ctx context.Context, args []string) error {
	id, _, err := parseIdentity(args)
	if err != nil {
		return err
	}
	return a.watch(ctx, stream.NewSlot(a.ticker), id)
}

// watch prints every update of a subscription until ctx ends or the feed stops.
func (a *app) watch(ctx context.Context, slot *stream.Slot, id models.Identity) error {
	sub, err := slot.Switch(ctx, id)
	if err != nil {
		return err
	}
	defer slot.Close()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Updates():
			if !ok {
				if !a.store.Active() {
					return panel.ErrUnauthorized
				}
				return nil
			}
			if snap.Payload == last {
				continue
			}
			last = snap.Payload
			fmt.Printf("\033[H\033[2J%s [%s]\n\n%s\n", id, snap.Status, snap.Payload)
		}
	}
}

func (a *app) envCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "get":
		text, err := a.env.Load(ctx)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	case "put":
		if len(args) != 2 {
			return errUsage
		}
		text, err := readInput(args[1])
		if err != nil {
			return err
		}
		return a.env.Save(ctx, text)
	default:
		return errUsage
	}
}

func (a *app) daily(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("daily", flag.ContinueOnError)
	venue := fs.String("venue", string(panel.VenueLighter), "lig or ext")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	records, err := a.client.Daily(ctx, panel.Venue(*venue))
	if err != nil {
		return err
	}
	return printRecords(os.Stdout, records)
}

func (a *app) trades(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trades", flag.ContinueOnError)
	venue := fs.String("venue", string(panel.VenueLighter), "lig or ext")
	view := fs.String("view", "", "empty, fifo or cycle")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	records, err := a.client.Trades(ctx, panel.Venue(*venue), panel.TradeView(*view))
	if err != nil {
		return err
	}
	return printRecords(os.Stdout, records)
}

func parseIdentity(args []string) (models.Identity, []string, error) {
	if len(args) == 0 {
		return models.Identity{}, nil, fmt.Errorf("%w: missing LIGHTER symbol", errUsage)
	}
	id := models.Identity{Lighter: strings.ToUpper(args[0])}
	rest := args[1:]
	if len(rest) > 0 && !strings.Contains(rest[0], "=") {
		id.Extended = strings.ToUpper(rest[0])
		rest = rest[1:]
	}
	return id, rest, nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
