package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fruitsalade/explorer/internal/events"
	"github.com/fruitsalade/explorer/internal/session"
	"github.com/fruitsalade/explorer/pkg/models"
)

const prompt = "explorer> "

var errUsage = errors.New("usage")

// shell runs explorer commands against one session.
type shell struct {
	sess *session.Session
	out  io.Writer
	sub  chan events.Event // non-nil while events are traced
}

func newShell(sess *session.Session, out io.Writer) *shell {
	return &shell{sess: sess, out: out}
}

// run reads commands from in until EOF, quit or ctx is done. Command errors
// are printed and do not stop the loop.
func (sh *shell) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	defer sh.traceEvents(false)
	sh.printListing()
	for {
		fmt.Fprint(sh.out, prompt)
		if ctx.Err() != nil || !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return
		}
		quit, err := sh.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
		if quit {
			return
		}
	}
}

func (sh *shell) exec(ctx context.Context, line string) (bool, error) {
	quit, err := sh.dispatch(ctx, line)
	sh.printEvents()
	return quit, err
}

func (sh *shell) dispatch(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "ls":
		sh.printListing()
	case "cd":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: cd <id|..|/|none>", errUsage)
		}
		if err := sh.cd(ctx, args[0]); err != nil {
			return false, err
		}
		sh.printListing()
	case "pwd":
		return false, sh.pwd(ctx)
	case "refresh":
		if err := sh.sess.Refresh(ctx); err != nil {
			return false, err
		}
		sh.printListing()
	case "select", "toggle", "deselect":
		return false, sh.selection(cmd, args)
	case "all":
		sh.sess.SelectAll()
		sh.printSelection()
	case "clear":
		sh.sess.ClearSelection()
		sh.printSelection()
	case "selected":
		sh.printSelection()
	case "sort":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: sort <name|size|date|created_at|type>", errUsage)
		}
		if err := sh.sess.Sort(ctx, args[0]); err != nil {
			return false, err
		}
		sh.printListing()
	case "search":
		if err := sh.sess.Search(ctx, strings.Join(args, " ")); err != nil {
			return false, err
		}
		sh.printListing()
	case "view":
		fmt.Fprintf(sh.out, "View: %s\n", sh.sess.ToggleView())
		sh.printListing()
	case "mkdir":
		if len(args) == 0 {
			return false, fmt.Errorf("%w: mkdir <name>", errUsage)
		}
		f, err := sh.sess.CreateFolder(ctx, strings.Join(args, " "))
		if err != nil {
			return false, err
		}
		fmt.Fprintf(sh.out, "Created %s (id %d)\n", f.Path, f.ID)
	case "rm":
		n, err := sh.sess.DeleteSelected(ctx)
		fmt.Fprintf(sh.out, "Deleted %d item(s)\n", n)
		return false, err
	case "mv":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: mv <folderID|none>", errUsage)
		}
		dest, err := parseFolderArg(args[0])
		if err != nil {
			return false, err
		}
		n, err := sh.sess.MoveSelectedFiles(ctx, dest)
		fmt.Fprintf(sh.out, "Moved %d file(s)\n", n)
		return false, err
	case "fav":
		return false, sh.fav(ctx, args)
	case "favs":
		return false, sh.printFavorites(ctx)
	case "tree":
		return false, sh.printTree(ctx)
	case "stats":
		return false, sh.printStats(ctx)
	case "events":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return false, fmt.Errorf("%w: events <on|off>", errUsage)
		}
		sh.traceEvents(args[0] == "on")
		fmt.Fprintf(sh.out, "Events: %s\n", args[0])
	case "help", "?":
		printShellHelp(sh.out)
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

func (sh *shell) cd(ctx context.Context, arg string) error {
	switch arg {
	case "..":
		return sh.sess.Up(ctx)
	case "/":
		return sh.sess.Home(ctx)
	}
	id, err := parseFolderArg(arg)
	if err != nil {
		return err
	}
	return sh.sess.Open(ctx, id)
}

func (sh *shell) pwd(ctx context.Context) error {
	crumbs, err := sh.sess.Breadcrumbs(ctx)
	if err != nil {
		return err
	}
	if len(crumbs) == 0 {
		fmt.Fprintln(sh.out, "(no folder)")
		return nil
	}
	fmt.Fprintln(sh.out, crumbs[len(crumbs)-1].Path)
	return nil
}

func (sh *shell) selection(cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s <id>...", errUsage, cmd)
	}
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", arg)
		}
		switch cmd {
		case "select":
			err = sh.sess.Select(id)
		case "toggle":
			err = sh.sess.Toggle(id)
		default:
			sh.sess.Deselect(id)
		}
		if err != nil {
			return err
		}
	}
	sh.printSelection()
	return nil
}

func (sh *shell) fav(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: fav <folder|file> <id>", errUsage)
	}
	t, err := models.ParseItemType(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[1])
	}
	ref := models.ItemRef{Type: t, ID: id}
	on, err := sh.sess.ToggleFavorite(ctx, ref)
	if err != nil {
		return err
	}
	if on {
		fmt.Fprintf(sh.out, "Added %s to favorites\n", ref)
	} else {
		fmt.Fprintf(sh.out, "Removed %s from favorites\n", ref)
	}
	return nil
}

func (sh *shell) traceEvents(on bool) {
	switch {
	case on && sh.sub == nil:
		sh.sub = sh.sess.Events().Subscribe()
	case !on && sh.sub != nil:
		sh.sess.Events().Unsubscribe(sh.sub)
		sh.sub = nil
	}
}

// printEvents writes the events published since the last command.
func (sh *shell) printEvents() {
	if sh.sub == nil {
		return
	}
	for {
		select {
		case ev := <-sh.sub:
			folder := "none"
			if id := ev.State.CurrentFolderID; id != nil {
				folder = strconv.FormatInt(*id, 10)
			}
			fmt.Fprintf(sh.out, "[%s] folder=%s selected=%d\n", ev.Kind, folder, len(ev.State.SelectedItems))
		default:
			return
		}
	}
}

// parseFolderArg reads a folder id; "none" means no folder.
func parseFolderArg(arg string) (*int64, error) {
	if arg == "none" {
		return nil, nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid folder id %q", arg)
	}
	return &id, nil
}

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, `Commands:
  ls                       List the current folder
  cd <id|..|/|none>        Open a folder, its parent, the start folder, or no folder
  pwd                      Print the current folder path
  refresh                  Re-fetch the current folder
  select|toggle|deselect <id>...
  all | clear | selected   Select everything, nothing, or show the selection
  sort <field>             Sort by name, size, date, created_at or type; repeat to reverse
  search [query]           Filter by name; no query clears the filter
  view                     Switch between list and grid
  mkdir <name>             Create a folder here
  rm                       Delete the selected items
  mv <folderID|none>       Move the selected files
  fav <folder|file> <id>   Toggle a favorite
  favs                     List favorites
  tree                     Print the folder tree
  stats                    Show storage statistics
  events <on|off>          Trace navigation events after each command
  quit`)
}
