package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/client/api"
	"github.com/atinyakov/ItemKeeper/internal/client/storage"
	"github.com/atinyakov/ItemKeeper/internal/models"
)

var (
	version   string
	buildDate string
)

var errNotLoggedIn = errors.New("not logged in or session expired, run -cmd login first")

// app bundles the collaborators of one client invocation.
type app struct {
	client *api.Client
	store  *storage.LocalStorage
	prompt *storage.Prompter
	out    io.Writer
	now    func() time.Time
}

// main parses command-line flags and dispatches to the selected command.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	var (
		cmd         string
		baseURL     string
		sessionFile string
		showVer     bool
	)

	fs := flag.NewFlagSet("itemkeeper", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&cmd, "cmd", "shell", "command: register | login | logout | shell")
	fs.StringVar(&baseURL, "url", "", "server base URL (defaults to the logged-in server or "+api.DefaultBaseURL+")")
	fs.StringVar(&sessionFile, "session", "", "path to the session file")
	fs.BoolVar(&showVer, "version", false, "show build version and date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		fmt.Fprintf(out, "ItemKeeper Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return nil
	}

	store := storage.NewLocalStorage(sessionFile)
	session, err := store.Load()
	if err != nil {
		return err
	}
	if baseURL == "" && session != nil {
		baseURL = session.BaseURL
	}
	client, err := api.New(baseURL)
	if err != nil {
		return err
	}

	a := &app{
		client: client,
		store:  store,
		prompt: storage.NewPrompter(in, out),
		out:    out,
		now:    time.Now,
	}

	switch cmd {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out")
		return nil
	case "shell":
		if !session.Valid(a.now()) {
			return errNotLoggedIn
		}
		client.SetToken(session.AccessToken)
		return a.repl(ctx)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *app) register(ctx context.Context) error {
	var (
		reg models.Registration
		err error
	)
	if reg.Username, err = a.prompt.Line("Username: "); err != nil {
		return err
	}
	if reg.Email, err = a.prompt.Line("Email: "); err != nil {
		return err
	}
	if reg.FullName, err = a.prompt.Line("Full name (optional): "); err != nil {
		return err
	}
	if reg.Password, err = a.prompt.Password("Password: "); err != nil {
		return err
	}

	acc, err := a.client.Register(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (id %d)\n", acc.Username, acc.ID)
	return nil
}

func (a *app) login(ctx context.Context) error {
	username, err := a.prompt.Line("Username: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.Password("Password: ")
	if err != nil {
		return err
	}

	tok, err := a.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	err = a.store.Save(&storage.Session{
		BaseURL:     a.client.BaseURL(),
		Username:    username,
		AccessToken: tok.AccessToken,
		ExpiresAt:   a.now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", username)
	return nil
}

const helpText = `Available commands:
  list [category]   list items, optionally in one category
  search <text>     search item names and descriptions
  mine              list your items
  get <id>          show one item
  add               create an item
  edit <id>         change an item you own
  delete <id>       delete an item you own
  categories        per-category counts and prices
  stats             service statistics
  me                show your account
  exit              leave the shell`

// repl runs the interactive shell loop until exit or end of input.
func (a *app) repl(ctx context.Context) error {
	for {
		line, err := a.prompt.Line("itemkeeper> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(a.out, "Bye")
			return nil
		}
		if err := a.dispatch(ctx, args); err != nil {
			if api.IsUnauthorized(err) {
				fmt.Fprintln(a.out, "Session is no longer valid, please log in again")
				return nil
			}
			fmt.Fprintln(a.out, "Error:", err)
		}
	}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(a.out, helpText)
	case "list":
		var p api.ListParams
		if len(args) > 1 {
			p.Category = strings.Join(args[1:], " ")
		}
		page, err := a.client.ListItems(ctx, p)
		if err != nil {
			return err
		}
		a.printItems(page.Items)
		fmt.Fprintf(a.out, "Page %d of %d, %d items total\n", page.Page, page.Pages, page.Total)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(a.out, "Usage: search <text>")
			return nil
		}
		items, err := a.client.Search(ctx, api.ListParams{Query: strings.Join(args[1:], " ")})
		if err != nil {
			return err
		}
		a.printItems(items)
	case "mine":
		page, err := a.client.MyItems(ctx, api.ListParams{})
		if err != nil {
			return err
		}
		a.printItems(page.Items)
	case "get":
		id, ok := a.idArg(args)
		if !ok {
			return nil
		}
		rec, err := a.client.GetItem(ctx, id)
		if err != nil {
			return err
		}
		a.printItems([]api.Item{{Record: *rec}})
	case "add":
		in, err := a.prompt.PromptForItem()
		if err != nil {
			return err
		}
		rec, err := a.client.CreateItem(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Item %d created\n", rec.ID)
	case "edit":
		id, ok := a.idArg(args)
		if !ok {
			return nil
		}
		patch, err := a.prompt.PromptEditItem()
		if err != nil {
			return err
		}
		if patch.Empty() {
			fmt.Fprintln(a.out, "Nothing to change")
			return nil
		}
		if _, err := a.client.UpdateItem(ctx, id, patch); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Item updated")
	case "delete":
		id, ok := a.idArg(args)
		if !ok {
			return nil
		}
		if err := a.client.DeleteItem(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Item deleted")
	case "categories":
		cats, err := a.client.Categories(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tCOUNT\tMIN\tMAX\tAVG")
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", c.Category, c.Count, c.MinPrice, c.MaxPrice, c.AvgPrice)
		}
		tw.Flush()
	case "stats":
		st, err := a.client.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Users: %d\nItems: %d\nYour items: %d\nAverage price: %.2f\n",
			st.TotalUsers, st.TotalItems, st.YourItems, st.AveragePrice)
	case "me":
		acc, err := a.client.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s <%s> id %d, joined %s\n", acc.Username, acc.Email, acc.ID, acc.CreatedAt.Format(time.RFC3339))
	default:
		fmt.Fprintln(a.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (a *app) idArg(args []string) (int64, bool) {
	if len(args) < 2 {
		fmt.Fprintf(a.out, "Usage: %s <id>\n", args[0])
		return 0, false
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(a.out, "Invalid id %q\n", args[1])
		return 0, false
	}
	return id, true
}

func (a *app) printItems(items []api.Item) {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tOWNER")
	for _, it := range items {
		owner := strconv.FormatInt(it.OwnerID, 10)
		if it.IsOwner != nil && *it.IsOwner {
			owner += " (you)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", it.ID, it.Name, it.Price, it.Category, owner)
	}
	tw.Flush()
}
