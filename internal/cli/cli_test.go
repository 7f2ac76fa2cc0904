package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/contact"
	"storefront/internal/report"
	"storefront/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type fixture struct {
	runner  *Runner
	store   *cart.Store
	session *session.State
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	memo, err := report.NewMemo(4, nil)
	require.NoError(t, err)

	store := cart.NewStore(nil)
	sess := session.New(session.ThemeLight, nil)
	return fixture{
		runner:  NewRunner(config.Default(), zap.NewNop(), store, catalog.Default(), memo, sess),
		store:   store,
		session: sess,
	}
}

// execute runs the root command with args and stdin and returns stdout.
func (f fixture) execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := f.runner.Command()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

// decodeAll reads every JSON value written in JSON mode.
func decodeAll(t *testing.T, out string) []json.RawMessage {
	t.Helper()

	var values []json.RawMessage
	dec := json.NewDecoder(strings.NewReader(out))
	for {
		var v json.RawMessage
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return values
		}
		require.NoError(t, err)
		values = append(values, v)
	}
}

func TestOneShot_ReportJSON(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "add 1; add 1; add 5; report")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 4)

	var res reportResult
	require.NoError(t, json.Unmarshal(values[3], &res))
	assert.Equal(t, 3, res.TotalItems)
	assert.InDelta(t, 119.97, res.TotalValue, 1e-9)
	assert.Equal(t, 2, res.UniqueItems)
	assert.Equal(t, 1, res.HighValueCount)
	assert.Equal(t, 1, res.LowStockCount)
	assert.InDelta(t, 50, res.StockHealth, 1e-9)
	require.Len(t, res.Distribution, 3)
	assert.InDelta(t, 59.98/119.97*100, res.Distribution[0].Percent, 1e-9)
	assert.InDelta(t, 0, res.Distribution[1].Percent, 1e-9)
	assert.InDelta(t, 59.99/119.97*100, res.Distribution[2].Percent, 1e-9)
	require.NotNil(t, res.TopItem)
	assert.Equal(t, "Advanced CSS Course", res.TopItem.Name)
	require.Len(t, res.Trend, 2)
	assert.InDelta(t, 0, res.Trend[0].X, 1e-9)
	assert.Equal(t, report.Point{X: 300, Y: 20}, res.Trend[1])
	assert.True(t, strings.HasSuffix(res.TrendLine, " 300,20"), res.TrendLine)
	assert.Equal(t, report.DefaultParams(), res.Params)

	assert.Equal(t, 3, f.store.Count())
}

func TestOneShot_SeparateArgs(t *testing.T) {
	f := newFixture(t)

	_, err := f.execute(t, "", "add", "3")
	require.NoError(t, err)

	line, ok := f.store.Line(3)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestOneShot_HumanReport(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "add 1; add 1; report")
	require.NoError(t, err)

	assert.Contains(t, out, "Added React Book (quantity 2)")
	assert.Contains(t, out, "Top performer: React Book ($59.98)")
	assert.Contains(t, out, "Add more than one item to visualize trend.")
	assert.Contains(t, out, "Budget")
}

func TestOneShot_EmptyReport(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "report")
	require.NoError(t, err)

	assert.Contains(t, out, "Top performer: N/A")
	assert.Contains(t, out, "No products in cart yet.")
	assert.Contains(t, out, "Stock health")
}

func TestOneShot_ReportFlags(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "--mode", "quantity", "--sort", "name", "--threshold", "30", "add 2; add 1; report")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 3)

	var res reportResult
	require.NoError(t, json.Unmarshal(values[2], &res))
	assert.Equal(t, report.Params{Mode: report.ModeQuantity, HighValueThreshold: 30, SortBy: report.SortByName}, res.Params)
	assert.Equal(t, 1, res.HighValueCount)
	require.Len(t, res.SortedItems, 2)
	assert.Equal(t, "JavaScript Course", res.SortedItems[0].Name)
	assert.Equal(t, "React Book", res.SortedItems[1].Name)
	assert.InDelta(t, 50, res.Distribution[0].Percent, 1e-9)
	assert.InDelta(t, 50, res.Distribution[1].Percent, 1e-9)
	assert.InDelta(t, 0, res.Distribution[2].Percent, 1e-9)
}

func TestOneShot_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "mode", args: []string{"--mode", "bogus", "report"}, want: report.ErrUnknownMode},
		{name: "sort", args: []string{"--sort", "price", "report"}, want: report.ErrUnknownSortKey},
		{name: "threshold", args: []string{"--threshold", "-1", "report"}, want: errBadThreshold},
		{name: "theme", args: []string{"--theme", "blue", "report"}, want: session.ErrUnknownTheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.execute(t, "", tt.args...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOneShot_CartCommands(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "add 4; inc 4; qty 2 3; dec 4; remove 9; cart")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 6)

	var missing lineResult
	require.NoError(t, json.Unmarshal(values[4], &missing))
	assert.Equal(t, lineResult{ID: 9}, missing)

	var res cartResult
	require.NoError(t, json.Unmarshal(values[5], &res))
	assert.Equal(t, []cart.Line{{ID: 4, Name: "Web Dev Guide", Price: 34.99, Quantity: 1}}, res.Lines)
	assert.Equal(t, cart.Summary{TotalItems: 1, TotalPrice: 34.99, AvgPrice: 34.99}, res.Summary)

	// qty on a product that is not in the cart is a no-op
	_, ok := f.store.Line(2)
	assert.False(t, ok)
}

func TestOneShot_DecToZeroRemoves(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "add 1; dec 1; cart")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 3)

	var removed lineResult
	require.NoError(t, json.Unmarshal(values[1], &removed))
	assert.Equal(t, lineResult{ID: 1, Removed: true}, removed)
	assert.Zero(t, f.store.Count())
	assert.JSONEq(t, `{"lines":[],"summary":{"total_items":0,"total_price":0,"avg_price":0}}`, string(values[2]))
}

func TestOneShot_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{name: "unknown command", line: "bogus", want: errUnknownCommand},
		{name: "unknown product", line: "add 42", want: errUnknownProduct},
		{name: "unknown band", line: "products --band luxury", want: catalog.ErrUnknownBand},
		{name: "unknown mode", line: "mode bogus", want: report.ErrUnknownMode},
		{name: "unknown sort", line: "sort price", want: report.ErrUnknownSortKey},
		{name: "bad threshold", line: "threshold -5", want: errBadThreshold},
		{name: "unterminated quote", line: `products "ui`, want: errUnterminatedQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.execute(t, "", tt.line)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOneShot_UsageErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.execute(t, "", "add x")
	var usage *usageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, `invalid product id "x" (usage: add <id>)`, err.Error())

	_, err = f.execute(t, "", "qty 1")
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, "usage: qty <id> <quantity>", err.Error())
}

func TestOneShot_StopsAtFirstError(t *testing.T) {
	f := newFixture(t)

	_, err := f.execute(t, "", "add 1; bogus; add 2")
	require.ErrorIs(t, err, errUnknownCommand)

	_, ok := f.store.Line(2)
	assert.False(t, ok)
	assert.Equal(t, 1, f.store.Count())
}

func TestProducts(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "add 5; products course --band premium")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 2)

	var res productsResult
	require.NoError(t, json.Unmarshal(values[1], &res))
	assert.Equal(t, "course", res.Query)
	assert.Equal(t, 1, res.CartCount)
	require.Len(t, res.Products, 1)
	assert.Equal(t, 5, res.Products[0].ID)
	assert.Equal(t, catalog.BandPremium, res.Products[0].Band)
	assert.Equal(t, 1, res.Products[0].InCart)
}

func TestProducts_Human(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "products --band=budget")
	require.NoError(t, err)

	assert.Contains(t, out, "React Book")
	assert.Contains(t, out, "Web Dev Guide")
	assert.NotContains(t, out, "JavaScript Course")
	assert.Contains(t, out, "2 products, 0 in cart")
}

func TestCatalogFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "products:\n  - id: 10\n    name: Go Workshop\n    price: 120\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	f := newFixture(t)
	out, err := f.execute(t, "", "--json", "--catalog", path, "add 10; add 1")
	require.ErrorIs(t, err, errUnknownProduct)

	values := decodeAll(t, out)
	require.Len(t, values, 1)

	line, ok := f.store.Line(10)
	require.True(t, ok)
	assert.Equal(t, cart.Line{ID: 10, Name: "Go Workshop", Price: 120, Quantity: 1}, line)
}

func TestREPL(t *testing.T) {
	f := newFixture(t)

	stdin := "add 2\nbogus\nadd 2; cart\nexit\nadd 3\n"
	out, err := f.execute(t, stdin)
	require.NoError(t, err)

	assert.Contains(t, out, "Storefront")
	assert.Contains(t, out, "[Guest | cart 0] > ")
	assert.Contains(t, out, "[Guest | cart 1] > ")
	assert.Contains(t, out, "error: unknown command: bogus")
	assert.Contains(t, out, "Items: 2")

	assert.Equal(t, 2, f.store.Count())
	_, ok := f.store.Line(3)
	assert.False(t, ok)
}

func TestREPL_EndOfInput(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = f.execute(t, "add 1\n", "--json")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 1)
	assert.Equal(t, 1, f.store.Count())
}

func TestREPL_JSONErrors(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "bogus\n", "--json")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 1)
	assert.JSONEq(t, `{"error":"unknown command: bogus (type 'help')"}`, string(values[0]))
}

func TestReportFollowsCart(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "add 1\nreport\nadd 2\nreport\nmode quantity\nreport\n", "--json")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 6)

	var first, second, third reportResult
	require.NoError(t, json.Unmarshal(values[1], &first))
	require.NoError(t, json.Unmarshal(values[3], &second))
	require.NoError(t, json.Unmarshal(values[5], &third))

	assert.Equal(t, 1, first.TotalItems)
	assert.Equal(t, 2, second.TotalItems)
	assert.Equal(t, report.ModeValue, second.Params.Mode)
	assert.Equal(t, report.ModeQuantity, third.Params.Mode)
	assert.InDelta(t, 50, third.Distribution[0].Percent, 1e-9)
}

func TestSessionCommands(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "login jane@example.com; logout; whoami")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 3)

	var loggedIn, loggedOut whoamiResult
	require.NoError(t, json.Unmarshal(values[0], &loggedIn))
	require.NoError(t, json.Unmarshal(values[2], &loggedOut))

	assert.Equal(t, "jane", loggedIn.Display)
	assert.Equal(t, session.User{Name: "jane", Email: "jane@example.com", LoggedIn: true}, loggedIn.User)
	assert.Equal(t, f.session.ID(), loggedIn.SessionID)
	assert.Equal(t, "Guest", loggedOut.Display)
	assert.Equal(t, "jane@example.com", loggedOut.User.Email)
}

func TestThemeCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "theme; theme; theme dark")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 3)
	assert.JSONEq(t, `{"theme":"dark"}`, string(values[0]))
	assert.JSONEq(t, `{"theme":"light"}`, string(values[1]))
	assert.JSONEq(t, `{"theme":"dark"}`, string(values[2]))
	assert.Equal(t, session.ThemeDark, f.session.Theme())

	_, err = f.execute(t, "", "theme blue")
	require.ErrorIs(t, err, session.ErrUnknownTheme)
}

func TestThemeFlag(t *testing.T) {
	f := newFixture(t)

	_, err := f.execute(t, "", "--theme", "dark", "whoami")
	require.NoError(t, err)
	assert.Equal(t, session.ThemeDark, f.session.Theme())
}

func TestContactCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json",
		`contact name="Ann Lee" email=ann@example.com subject=Hello category=Support "message=Need help" subscribe=true`)
	require.NoError(t, err)

	var res struct {
		Submitted bool         `json:"submitted"`
		Form      contact.Form `json:"form"`
	}
	values := decodeAll(t, out)
	require.Len(t, values, 1)
	require.NoError(t, json.Unmarshal(values[0], &res))
	assert.True(t, res.Submitted)
	assert.Equal(t, contact.Form{
		FullName:  "Ann Lee",
		Email:     "ann@example.com",
		Subject:   "Hello",
		Category:  "support",
		Message:   "Need help",
		Priority:  "normal",
		Subscribe: true,
	}, res.Form)
}

func TestContactCommand_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.execute(t, "", "contact name=Ann email=nope category=spam")
	require.ErrorIs(t, err, contact.ErrRequired)
	require.ErrorIs(t, err, contact.ErrInvalid)
	assert.Equal(t,
		"contact form: subject is required; message is required; email is invalid; category is invalid",
		err.Error())

	var fieldErrs []string
	for _, e := range multierr.Errors(errors.Unwrap(err)) {
		var fe *contact.FieldError
		require.ErrorAs(t, e, &fe)
		fieldErrs = append(fieldErrs, fe.Field)
	}
	assert.Equal(t, []string{"subject", "message", "email", "category"}, fieldErrs)

	_, err = f.execute(t, "", "contact name")
	var usage *usageError
	require.ErrorAs(t, err, &usage)

	_, err = f.execute(t, "", "contact colour=red")
	require.ErrorAs(t, err, &usage)
}

func TestHelp(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "help")
	require.NoError(t, err)

	var entries []helpEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, len(commandTable()))
	assert.Equal(t, "help", entries[0].Name)

	out, err = f.execute(t, "", "?")
	require.NoError(t, err)
	assert.Contains(t, out, "qty <id> <quantity>")
}

func TestHistoryCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "add 1\n\ncart\nhistory\nhistory clear\nhistory\n", "--json")
	require.NoError(t, err)

	values := decodeAll(t, out)
	require.Len(t, values, 5)
	assert.JSONEq(t, `{"history":["add 1","cart","history"]}`, string(values[2]))
	assert.JSONEq(t, `{"cleared":true}`, string(values[3]))
	assert.JSONEq(t, `{"history":["history"]}`, string(values[4]))
}

func TestCatalogFlag_RejectsNonFinitePrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "products:\n  - id: 1\n    name: Broken\n    price: .nan\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	f := newFixture(t)
	out, err := f.execute(t, "", "--json", "--catalog", path, "add 1; report")
	require.ErrorIs(t, err, catalog.ErrInvalidPrice)
	assert.Empty(t, out)
	assert.Zero(t, f.store.Count())
}

func TestOneShot_SemicolonInsideArgument(t *testing.T) {
	f := newFixture(t)

	out, err := f.execute(t, "", "--json", "contact", "name=Ann", "email=ann@example.com",
		"subject=Hi", "category=general", "message=hi;there")
	require.NoError(t, err)

	var res struct {
		Form contact.Form `json:"form"`
	}
	values := decodeAll(t, out)
	require.Len(t, values, 1)
	require.NoError(t, json.Unmarshal(values[0], &res))
	assert.Equal(t, "hi;there", res.Form.Message)
}

// promptWriter signals once the shell has printed its prompt.
type promptWriter struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	prompted chan struct{}
	once     sync.Once
}

func (w *promptWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.buf.Write(p)
	if strings.HasSuffix(w.buf.String(), "> ") {
		w.once.Do(func() { close(w.prompted) })
	}
	return n, err
}

func TestREPL_StopsOnCancelWhileWaitingForInput(t *testing.T) {
	f := newFixture(t)

	memo, err := report.NewMemo(1, nil)
	require.NoError(t, err)
	out := &promptWriter{prompted: make(chan struct{})}
	sh := newShell(shellDeps{
		out:     out,
		store:   f.store,
		catalog: catalog.Default(),
		memo:    memo,
		session: f.session,
		params:  report.DefaultParams(),
	})

	// stdin stays open, so only cancellation can end the loop
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.repl(ctx, in) }()

	select {
	case <-out.prompted:
	case <-time.After(time.Second):
		t.Fatal("shell never prompted")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shell did not stop after cancel")
	}
	assert.Zero(t, f.store.Count())
}
