package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/report"
	"storefront/internal/session"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	errExit           = errors.New("exit")
	errUnknownCommand = errors.New("unknown command")
	errUnknownProduct = errors.New("unknown product")
	errBadThreshold   = errors.New("threshold must be a non-negative number")
)

type usageError struct {
	cmd command
	msg string
}

func (e *usageError) Error() string {
	usage := strings.TrimSpace(e.cmd.name + " " + e.cmd.args)
	if e.msg == "" {
		return "usage: " + usage
	}
	return fmt.Sprintf("%s (usage: %s)", e.msg, usage)
}

type command struct {
	name    string
	aliases []string
	args    string
	help    string
	run     func(sh *shell, cmd command, args []string) error
}

func commandTable() []command {
	return []command{
		{name: "help", aliases: []string{"?"}, help: "List commands", run: (*shell).help},
		{name: "products", aliases: []string{"ls"}, args: "[query] [--band budget|standard|premium|all]", help: "Search the catalog", run: (*shell).products},
		{name: "add", args: "<id>", help: "Add one unit of a product to the cart", run: (*shell).add},
		{name: "remove", aliases: []string{"rm"}, args: "<id>", help: "Remove a product from the cart", run: (*shell).remove},
		{name: "qty", args: "<id> <quantity>", help: "Set the quantity of a cart line; 0 or less removes it", run: (*shell).qty},
		{name: "inc", args: "<id>", help: "Increase a cart line by one", run: (*shell).inc},
		{name: "dec", args: "<id>", help: "Decrease a cart line by one", run: (*shell).dec},
		{name: "clear", help: "Empty the cart", run: (*shell).clear},
		{name: "cart", help: "Show the cart and its totals", run: (*shell).cart},
		{name: "report", help: "Show cart analytics", run: (*shell).report},
		{name: "mode", args: "<value|quantity>", help: "Set the report analysis mode", run: (*shell).mode},
		{name: "threshold", args: "<price>", help: "Set the high-value price threshold", run: (*shell).threshold},
		{name: "sort", args: "<subtotal|quantity|name>", help: "Set the report sort key", run: (*shell).sort},
		{name: "login", args: "<email>", help: "Sign in with any email", run: (*shell).login},
		{name: "logout", help: "Sign out", run: (*shell).logout},
		{name: "whoami", help: "Show the current user and session", run: (*shell).whoami},
		{name: "theme", args: "[light|dark]", help: "Toggle or set the color theme", run: (*shell).theme},
		{name: "contact", args: "name=... email=... subject=... category=... message=... [phone=...] [priority=...] [subscribe=true]", help: "Send the contact form", run: (*shell).contact},
		{name: "history", args: "[clear]", help: "Show or clear recent shell lines", run: (*shell).showHistory},
		{name: "exit", aliases: []string{"quit"}, help: "Leave the shell", run: (*shell).exit},
	}
}

type shellDeps struct {
	out     io.Writer
	json    bool
	logger  *zap.Logger
	store   *cart.Store
	catalog *catalog.Catalog
	memo    *report.Memo
	session *session.State
	history *History
	params  report.Params
}

type shell struct {
	out      io.Writer
	json     bool
	logger   *zap.Logger
	store    *cart.Store
	catalog  *catalog.Catalog
	memo     *report.Memo
	session  *session.State
	history  *History
	params   report.Params
	renderer *lipgloss.Renderer
	styles   styles
	commands []command
	index    map[string]int
}

func newShell(deps shellDeps) *shell {
	if deps.logger == nil {
		deps.logger = zap.NewNop()
	}
	if deps.history == nil {
		deps.history = NewHistory(0, deps.logger)
	}
	sh := &shell{
		out:      deps.out,
		json:     deps.json,
		logger:   deps.logger,
		store:    deps.store,
		catalog:  deps.catalog,
		memo:     deps.memo,
		session:  deps.session,
		history:  deps.history,
		params:   deps.params,
		renderer: lipgloss.NewRenderer(deps.out),
		commands: commandTable(),
	}
	sh.index = make(map[string]int, len(sh.commands))
	for i, c := range sh.commands {
		sh.index[c.name] = i
		for _, alias := range c.aliases {
			sh.index[alias] = i
		}
	}
	sh.restyle()
	return sh
}

func (sh *shell) restyle() {
	sh.styles = newStyles(sh.renderer, sh.session.Theme())
}

func (sh *shell) exec(args []string) error {
	if len(args) == 0 {
		return nil
	}
	name := strings.ToLower(args[0])
	i, ok := sh.index[name]
	if !ok {
		return fmt.Errorf("%w: %s (type 'help')", errUnknownCommand, args[0])
	}

	cmd := sh.commands[i]
	sh.logger.Info("command",
		zap.String("name", cmd.name),
		zap.Strings("args", args[1:]),
		zap.Uint64("revision", sh.store.Revision()),
	)
	return cmd.run(sh, cmd, args[1:])
}

func (sh *shell) prompt() string {
	count := sh.store.Count()
	return sh.styles.muted.Render(fmt.Sprintf("[%s | cart %d]", sh.session.DisplayName(), count)) + " > "
}

// emit writes v as one JSON line in JSON mode and calls human otherwise.
func (sh *shell) emit(v any, human func()) error {
	if sh.json {
		return json.NewEncoder(sh.out).Encode(v)
	}
	human()
	return nil
}

func (sh *shell) printError(err error) {
	if sh.json {
		_ = json.NewEncoder(sh.out).Encode(map[string]string{"error": err.Error()})
		return
	}
	fmt.Fprintln(sh.out, sh.styles.err.Render("error: "+err.Error()))
}

func (sh *shell) println(a ...any) {
	fmt.Fprintln(sh.out, a...)
}

func (sh *shell) printf(format string, a ...any) {
	fmt.Fprintf(sh.out, format, a...)
}

func parseID(cmd command, args []string) (int, error) {
	if len(args) != 1 {
		return 0, &usageError{cmd: cmd}
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, &usageError{cmd: cmd, msg: fmt.Sprintf("invalid product id %q", args[0])}
	}
	return id, nil
}

func validThreshold(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %v", errBadThreshold, v)
	}
	return v, nil
}
