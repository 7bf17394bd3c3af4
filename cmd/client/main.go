package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/cerevyn/internal/client"
	"github.com/atinyakov/cerevyn/internal/models"
)

var (
	version   string
	buildDate string
)

// shell runs the interactive loop against an authenticated client.
type shell struct {
	api    *client.Client
	prompt *client.Prompter
	out    io.Writer
}

// run reads commands until exit or end of input. Commands and item prompts
// share one Prompter, so they read from the same buffered input.
func (s *shell) run() {
	for {
		line, err := s.prompt.Line("cerevyn> ")
		if err != nil {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.exec(args); err != nil {
			fmt.Fprintln(s.out, "Error:", err)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Unauthorized() {
				fmt.Fprintln(s.out, "Your session is no longer valid, run -cmd login again.")
				return
			}
		}
	}
}

func (s *shell) exec(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, "Available commands: help, list, summary, add, edit <id>, delete <id>, exit")
	case "list":
		inv, err := s.api.ListItems(ctx)
		if err != nil {
			return err
		}
		printItems(s.out, inv.Data.Items)
		printSummary(s.out, inv.Summary)
	case "summary":
		inv, err := s.api.ListItems(ctx)
		if err != nil {
			return err
		}
		printSummary(s.out, inv.Summary)
	case "add":
		in, err := s.prompt.ItemInput()
		if err != nil {
			return err
		}
		item, err := s.api.CreateItem(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Item %s added\n", item.ID)
	case "edit":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: edit <id>")
			return nil
		}
		patch, err := s.prompt.ItemPatch()
		if err != nil {
			return err
		}
		if patch.Empty() {
			fmt.Fprintln(s.out, "Nothing to change")
			return nil
		}
		if _, err := s.api.UpdateItem(ctx, args[1], patch); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Item updated")
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: delete <id>")
			return nil
		}
		if err := s.api.DeleteItem(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Item deleted")
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func printItems(out io.Writer, items []models.InventoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items yet.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tQUANTITY\tSTATUS\tPLANTED\tHARVEST")
	for _, it := range items {
		harvest := "-"
		if it.HarvestDate != nil {
			harvest = it.HarvestDate.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g %s\t%s\t%s\t%s\n",
			it.ID, it.Name, it.Category, it.Quantity, it.Unit, it.Status,
			it.PlantedDate.Format("2006-01-02"), harvest)
	}
	_ = tw.Flush()
}

func printSummary(out io.Writer, s models.Summary) {
	fmt.Fprintf(out, "Total crops: %d\nTotal quantity: %g\n", s.TotalCrops, s.TotalQuantity)
}

func saveSession(path, baseURL string, res *client.AuthResponse) {
	sess := &client.Session{BaseURL: baseURL, Token: res.Token, User: res.Data.User}
	if err := sess.Save(path); err != nil {
		log.Fatalf("failed to save session: %v", err)
	}
	fmt.Printf("Logged in as %s (%s)\n", res.Data.User.FullName, res.Data.User.Email)
}

func newAPI(baseURL, caFile string) *client.Client {
	if caFile == "" {
		return client.New(baseURL)
	}
	api, err := client.NewWithCA(baseURL, caFile)
	if err != nil {
		log.Fatal(err)
	}
	return api
}

// main parses command-line flags and dispatches to the register, login,
// logout or shell commands.
func main() {
	var (
		cmd         string
		baseURL     string
		caFile      string
		sessionFile string
		showVer     bool
	)

	flag.StringVar(&cmd, "cmd", "shell", "command: register | login | logout | shell")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for HTTPS servers with a private CA")
	flag.StringVar(&sessionFile, "session", client.DefaultSessionFile, "path to the session file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Cerevyn Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	prompt := client.NewPrompter(os.Stdin, os.Stdout)
	ctx := context.Background()

	switch cmd {
	case "register":
		reg, err := prompt.Registration()
		if err != nil {
			log.Fatal(err)
		}
		res, err := newAPI(baseURL, caFile).Register(ctx, reg)
		if err != nil {
			log.Fatal(err)
		}
		saveSession(sessionFile, baseURL, res)
	case "login":
		creds, err := prompt.Credentials()
		if err != nil {
			log.Fatal(err)
		}
		res, err := newAPI(baseURL, caFile).Login(ctx, creds)
		if err != nil {
			log.Fatal(err)
		}
		saveSession(sessionFile, baseURL, res)
	case "logout":
		// Tokens are stateless; forgetting it locally is all logout can do.
		if err := client.ClearSession(sessionFile); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Logged out")
	case "shell":
		sess, err := client.LoadSession(sessionFile)
		if err != nil {
			log.Fatalf("%v: run -cmd login or -cmd register first", err)
		}
		api := newAPI(sess.BaseURL, caFile)
		api.Token = sess.Token
		fmt.Printf("Welcome back, %s\n", sess.User.FullName)
		sh := &shell{api: api, prompt: prompt, out: os.Stdout}
		sh.run()
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
