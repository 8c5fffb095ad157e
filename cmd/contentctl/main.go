// contentctl 命令行客户端：登录后提交、查询和审核内容
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"ContentFlow/internal/client"
	"ContentFlow/internal/model"
	"ContentFlow/internal/session"
)

const usage = `usage: contentctl [-server URL] [-session FILE] <command> [args]

commands:
  signup <email> <password>
  login <email> <password>
  logout
  whoami
  list [-page N] [-limit N] [-status S] [-keyword K]
  submit <title> <description>
  approve <id>
  reject <id>
  stats
  recent
`

// savedSession 本地保存的登录态
type savedSession struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".contentctl.json"
	}
	return filepath.Join(dir, "contentctl", "session.json")
}

func loadSession(path string) session.State {
	b, err := os.ReadFile(path)
	if err != nil {
		return session.New()
	}
	var s savedSession
	if json.Unmarshal(b, &s) != nil {
		return session.New()
	}
	return session.Restore(s.Token, s.User)
}

func saveSession(path string, st session.State) error {
	if st.Phase != session.Authenticated {
		err := os.Remove(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(savedSession{Token: st.Token, User: st.User})
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func main() {
	server := flag.String("server", envOr("CONTENTFLOW_URL", "http://localhost:5000"), "API base URL")
	sessionPath := flag.String("session", defaultSessionPath(), "file holding the saved login")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*server, client.WithSession(loadSession(*sessionPath)))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := dispatch(ctx, c, os.Stdout, flag.Arg(0), flag.Args()[1:])
	cancel()

	if saveErr := saveSession(*sessionPath, c.Session()); saveErr != nil {
		fmt.Fprintln(os.Stderr, "contentctl: save session:", saveErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "contentctl:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func need(args []string, n int, what string) error {
	if len(args) != n {
		return fmt.Errorf("expected %s", what)
	}
	return nil
}

func dispatch(ctx context.Context, c *client.Client, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "signup", "login":
		if err := need(args, 2, "<email> <password>"); err != nil {
			return err
		}
		auth := c.Login
		if cmd == "signup" {
			auth = c.Signup
		}
		st, err := auth(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "logged in as %s (%s)\n", st.User.Email, st.User.Role)
		return nil

	case "logout":
		if err := c.Logout(ctx); err != nil && !errors.Is(err, client.ErrNotLoggedIn) {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil

	case "whoami":
		me, err := c.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s (%s)\n", me.ID, me.Email, me.Role)
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var opts client.ListOptions
		var status string
		fs.IntVar(&opts.Page, "page", 1, "page number")
		fs.IntVar(&opts.Limit, "limit", 10, "items per page")
		fs.StringVar(&status, "status", "", "pending|approved|rejected")
		fs.StringVar(&opts.Keyword, "keyword", "", "search title and description")
		if err := fs.Parse(args); err != nil {
			return err
		}
		opts.Status = model.Status(status)
		page, err := c.List(ctx, opts)
		if err != nil {
			return err
		}
		printContent(out, page.Content)
		p := page.Pagination
		fmt.Fprintf(out, "page %d/%d, %d items\n", p.CurrentPage, p.TotalPages, p.TotalItems)
		return nil

	case "submit":
		if err := need(args, 2, "<title> <description>"); err != nil {
			return err
		}
		item, err := c.Submit(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "submitted %s (%s)\n", item.ID, item.Status)
		return nil

	case "approve", "reject":
		if err := need(args, 1, "<id>"); err != nil {
			return err
		}
		decide := c.Approve
		if cmd == "reject" {
			decide = c.Reject
		}
		item, err := decide(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s is now %s\n", item.ID, item.Status)
		return nil

	case "stats":
		stats, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "total %d, approved %d, rejected %d, pending %d\n",
			stats.TotalSubmissions, stats.Approved, stats.Rejected, stats.Pending)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MONTH\tSTATUS\tCOUNT")
		for _, m := range stats.MonthlyStats {
			fmt.Fprintf(tw, "%04d-%02d\t%s\t%d\n", m.ID.Year, m.ID.Month, m.ID.Status, m.Count)
		}
		return tw.Flush()

	case "recent":
		list, err := c.Recent(ctx)
		if err != nil {
			return err
		}
		printContent(out, list)
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printContent(out io.Writer, list []model.ContentView) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tOWNER\tCREATED")
	for _, c := range list {
		owner := "-"
		if c.CreatedBy != nil {
			owner = c.CreatedBy.Email
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Status, strings.TrimSpace(c.Title), owner, c.CreatedAt.Format(time.DateTime))
	}
	_ = tw.Flush()
}
