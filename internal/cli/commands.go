package cli

import (
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/contact"
	"storefront/internal/report"
	"storefront/internal/session"
)

type helpEntry struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Args    string   `json:"args,omitempty"`
	Help    string   `json:"help"`
}

func (sh *shell) help(_ command, _ []string) error {
	entries := make([]helpEntry, 0, len(sh.commands))
	for _, c := range sh.commands {
		entries = append(entries, helpEntry{Name: c.name, Aliases: c.aliases, Args: c.args, Help: c.help})
	}
	return sh.emit(entries, func() {
		sh.println(sh.styles.title.Render("Commands"))
		for _, e := range entries {
			usage := strings.TrimSpace(e.Name + " " + e.Args)
			sh.printf("  %s\n      %s\n", sh.styles.label.Render(usage), e.Help)
		}
	})
}

type productRow struct {
	cart.Product
	Band   catalog.Band `json:"band"`
	InCart int          `json:"in_cart"`
}

type productsResult struct {
	Query     string       `json:"query,omitempty"`
	Band      string       `json:"band,omitempty"`
	Products  []productRow `json:"products"`
	CartCount int          `json:"cart_count"`
}

func (sh *shell) products(cmd command, args []string) error {
	var (
		words []string
		band  string
	)
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "--band" || a == "-b":
			if i+1 >= len(args) {
				return &usageError{cmd: cmd, msg: "missing band"}
			}
			i++
			band = args[i]
		case strings.HasPrefix(a, "--band="):
			band = strings.TrimPrefix(a, "--band=")
		default:
			words = append(words, a)
		}
	}

	query := strings.Join(words, " ")
	matches, err := sh.catalog.Filter(query, band)
	if err != nil {
		return err
	}

	res := productsResult{Query: query, Band: band, Products: make([]productRow, 0, len(matches)), CartCount: sh.store.Count()}
	for _, p := range matches {
		row := productRow{Product: p, Band: catalog.BandOf(p.Price)}
		if line, ok := sh.store.Line(p.ID); ok {
			row.InCart = line.Quantity
		}
		res.Products = append(res.Products, row)
	}

	return sh.emit(res, func() { sh.renderProducts(res) })
}

func (sh *shell) add(cmd command, args []string) error {
	id, err := parseID(cmd, args)
	if err != nil {
		return err
	}
	p, ok := sh.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", errUnknownProduct, id)
	}

	sh.store.AddItem(p)
	line, _ := sh.store.Line(id)
	return sh.emit(line, func() {
		sh.printf("Added %s (quantity %d)\n", sh.styles.value.Render(line.Name), line.Quantity)
	})
}

type lineResult struct {
	ID      int        `json:"id"`
	Removed bool       `json:"removed"`
	Line    *cart.Line `json:"line,omitempty"`
}

func (sh *shell) lineResult(id int, before cart.Line, existed bool) error {
	after, ok := sh.store.Line(id)
	res := lineResult{ID: id, Removed: existed && !ok}
	if ok {
		res.Line = &after
	}
	return sh.emit(res, func() {
		switch {
		case !existed:
			sh.printf("Product %d is not in the cart\n", id)
		case res.Removed:
			sh.printf("Removed %s\n", sh.styles.value.Render(before.Name))
		default:
			sh.printf("%s: quantity %d, subtotal $%.2f\n", sh.styles.value.Render(after.Name), after.Quantity, after.Subtotal())
		}
	})
}

func (sh *shell) remove(cmd command, args []string) error {
	id, err := parseID(cmd, args)
	if err != nil {
		return err
	}
	before, existed := sh.store.Line(id)
	sh.store.RemoveItem(id)
	return sh.lineResult(id, before, existed)
}

func (sh *shell) qty(cmd command, args []string) error {
	if len(args) != 2 {
		return &usageError{cmd: cmd}
	}
	id, err := parseID(cmd, args[:1])
	if err != nil {
		return err
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return &usageError{cmd: cmd, msg: fmt.Sprintf("invalid quantity %q", args[1])}
	}

	before, existed := sh.store.Line(id)
	sh.store.UpdateQty(id, quantity)
	return sh.lineResult(id, before, existed)
}

func (sh *shell) inc(cmd command, args []string) error {
	return sh.step(cmd, args, 1)
}

func (sh *shell) dec(cmd command, args []string) error {
	return sh.step(cmd, args, -1)
}

// step moves a line by delta, never asking for less than zero.
func (sh *shell) step(cmd command, args []string, delta int) error {
	id, err := parseID(cmd, args)
	if err != nil {
		return err
	}
	before, existed := sh.store.Line(id)
	if existed {
		sh.store.UpdateQty(id, max(0, before.Quantity+delta))
	}
	return sh.lineResult(id, before, existed)
}

func (sh *shell) clear(_ command, _ []string) error {
	sh.store.ClearCart()
	return sh.emit(map[string]bool{"cleared": true}, func() {
		sh.println("Cart cleared")
	})
}

type cartResult struct {
	Lines   []cart.Line  `json:"lines"`
	Summary cart.Summary `json:"summary"`
}

func (sh *shell) cart(_ command, _ []string) error {
	res := cartResult{Lines: sh.store.Lines(), Summary: sh.store.Summary()}
	if res.Lines == nil {
		res.Lines = []cart.Line{}
	}
	return sh.emit(res, func() { sh.renderCart(res) })
}

type reportResult struct {
	report.Snapshot
	TrendLine string `json:"trend_line"`
}

func (sh *shell) report(_ command, _ []string) error {
	snap := sh.memo.Snapshot(sh.store, sh.params)
	return sh.emit(reportResult{Snapshot: snap, TrendLine: snap.TrendLine()}, func() { sh.renderReport(snap) })
}

func (sh *shell) mode(cmd command, args []string) error {
	if len(args) != 1 {
		return &usageError{cmd: cmd}
	}
	m, err := report.ParseMode(args[0])
	if err != nil {
		return err
	}
	sh.params.Mode = m
	return sh.emitParams("Analysis mode: " + string(m))
}

func (sh *shell) threshold(cmd command, args []string) error {
	if len(args) != 1 {
		return &usageError{cmd: cmd}
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(args[0], "$"), 64)
	if err != nil {
		return &usageError{cmd: cmd, msg: fmt.Sprintf("invalid price %q", args[0])}
	}
	if v, err = validThreshold(v); err != nil {
		return err
	}
	sh.params.HighValueThreshold = v
	return sh.emitParams(fmt.Sprintf("High-value threshold: $%s", formatAmount(v)))
}

func (sh *shell) sort(cmd command, args []string) error {
	if len(args) != 1 {
		return &usageError{cmd: cmd}
	}
	key, err := report.ParseSortKey(args[0])
	if err != nil {
		return err
	}
	sh.params.SortBy = key
	return sh.emitParams("Sort items by: " + string(key))
}

func (sh *shell) emitParams(msg string) error {
	return sh.emit(sh.params, func() { sh.println(msg) })
}

type whoamiResult struct {
	SessionID string        `json:"session_id"`
	User      session.User  `json:"user"`
	Display   string        `json:"display_name"`
	Theme     session.Theme `json:"theme"`
	CartCount int           `json:"cart_count"`
}

func (sh *shell) login(cmd command, args []string) error {
	if len(args) > 1 {
		return &usageError{cmd: cmd}
	}
	email := ""
	if len(args) == 1 {
		email = args[0]
	}
	sh.session.Login(email)
	return sh.whoami(cmd, nil)
}

func (sh *shell) logout(cmd command, _ []string) error {
	sh.session.Logout()
	return sh.whoami(cmd, nil)
}

func (sh *shell) whoami(_ command, _ []string) error {
	res := whoamiResult{
		SessionID: sh.session.ID(),
		User:      sh.session.User(),
		Display:   sh.session.DisplayName(),
		Theme:     sh.session.Theme(),
		CartCount: sh.store.Count(),
	}
	return sh.emit(res, func() {
		sh.printf("Welcome, %s\n", sh.styles.title.Render(res.Display))
		sh.printf("  %s %s\n", sh.styles.label.Render("Email:"), res.User.Email)
		sh.printf("  %s %s\n", sh.styles.label.Render("Theme:"), strings.ToUpper(string(res.Theme)))
		sh.printf("  %s %d\n", sh.styles.label.Render("In cart:"), res.CartCount)
	})
}

func (sh *shell) theme(cmd command, args []string) error {
	switch len(args) {
	case 0:
		sh.session.ToggleTheme()
	case 1:
		t, err := session.ParseTheme(args[0])
		if err != nil {
			return err
		}
		sh.session.SetTheme(t)
	default:
		return &usageError{cmd: cmd}
	}
	sh.restyle()

	t := sh.session.Theme()
	return sh.emit(map[string]session.Theme{"theme": t}, func() {
		sh.printf("Theme: %s\n", sh.styles.title.Render(strings.ToUpper(string(t))))
	})
}

func (sh *shell) contact(cmd command, args []string) error {
	if len(args) == 0 {
		return &usageError{cmd: cmd}
	}

	var form contact.Form
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return &usageError{cmd: cmd, msg: fmt.Sprintf("expected key=value, got %q", arg)}
		}
		switch strings.ToLower(key) {
		case "name", "full_name":
			form.FullName = value
		case "email":
			form.Email = value
		case "phone":
			form.Phone = value
		case "subject":
			form.Subject = value
		case "category":
			form.Category = value
		case "message":
			form.Message = value
		case "priority":
			form.Priority = value
		case "subscribe":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return &usageError{cmd: cmd, msg: fmt.Sprintf("invalid subscribe value %q", value)}
			}
			form.Subscribe = b
		default:
			return &usageError{cmd: cmd, msg: fmt.Sprintf("unknown field %q", key)}
		}
	}

	sent, err := contact.Submit(form, sh.logger)
	if err != nil {
		return formError(err)
	}
	return sh.emit(map[string]any{"submitted": true, "form": sent}, func() {
		sh.printf("Thanks, %s! We will reply to %s.\n", sh.styles.value.Render(sent.FullName), sent.Email)
	})
}

// formError keeps the field errors reachable through errors.Is and
// multierr.Errors.
func formError(err error) error {
	return fmt.Errorf("contact form: %w", err)
}

func (sh *shell) showHistory(cmd command, args []string) error {
	switch {
	case len(args) == 1 && strings.EqualFold(args[0], "clear"):
		sh.history.Clear()
		return sh.emit(map[string]bool{"cleared": true}, func() {
			sh.println("History cleared")
		})
	case len(args) > 0:
		return &usageError{cmd: cmd}
	}

	lines := sh.history.Lines()
	if lines == nil {
		lines = []string{}
	}
	return sh.emit(map[string][]string{"history": lines}, func() {
		for i, line := range lines {
			sh.printf("%4d  %s\n", i+1, line)
		}
	})
}

func (sh *shell) exit(_ command, _ []string) error {
	return errExit
}
