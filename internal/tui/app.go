// internal/tui/app.go
//
// This is the root of the fetchcards TUI. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the App below, which owns two fetchstate models
// 2. Update: folds key presses and fetch responses into the App
// 3. View: renders the two cards, the details block and the log tail
//
// The flow is: URL -> fetchstate.Observe -> command -> response message ->
// Update -> Result -> card.Render -> Screen

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fetchcards/internal/api"
	"github.com/kingrea/fetchcards/internal/card"
	"github.com/kingrea/fetchcards/internal/config"
	"github.com/kingrea/fetchcards/internal/fetch"
	"github.com/kingrea/fetchcards/internal/fetchstate"
	"github.com/kingrea/fetchcards/internal/logbook"
)

const (
	defaultWidth    = 100
	sideBySideWidth = 80
	logTailLines    = 5
)

// focus marks which card the id keys act on.
type focus int

const (
	focusPokemon focus = iota
	focusCharacter
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClient overrides the HTTP client both cards fetch with.
func WithClient(c *fetch.Client) AppOption {
	return func(a *App) {
		if c != nil {
			a.client = c
		}
	}
}

// WithLogbook sets the logbook activity is written to and tailed from.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// App is the root model: two fetch hooks, two cards and a details block.
type App struct {
	config  *config.Config
	client  *fetch.Client
	logbook *logbook.Logbook
	ctx     context.Context

	pokemon     fetchstate.Model[api.Pokemon]
	character   fetchstate.Model[api.Character]
	pokemonID   int
	characterID int

	spinner spinner.Model
	keys    keyMap
	help    help.Model
	focus   focus

	width    int
	height   int
	closed   bool
	saveErr  error
	statuses map[string]fetchstate.Status
}

// NewApp creates the root model from cfg. No request is issued until Init.
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	a := &App{
		config:      cfg,
		ctx:         context.Background(),
		pokemonID:   cfg.Project.Endpoints.Pokemon.ID,
		characterID: cfg.Project.Endpoints.Character.ID,
		keys:        defaultKeyMap(),
		help:        help.New(),
		statuses:    map[string]fetchstate.Status{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.client == nil {
		clientOpts := []fetch.Option{
			fetch.WithTimeout(cfg.Timeout()),
			fetch.WithUserAgent(cfg.UserAgent()),
		}
		if a.logbook != nil {
			clientOpts = append(clientOpts, fetch.WithLogger(a.logbook))
		}
		a.client = fetch.NewClient(clientOpts...)
	}
	hookOpts := []fetchstate.Option{fetchstate.WithClient(a.client), fetchstate.WithContext(a.ctx)}
	a.pokemon = fetchstate.New[api.Pokemon](hookOpts...)
	a.character = fetchstate.New[api.Character](hookOpts...)
	a.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))
	return a
}

// Init observes both configured URLs and starts the spinner.
func (a *App) Init() tea.Cmd {
	a.logInfo("session opened · %s · %s", a.pokemonURL(), a.characterURL())
	cmds := a.observeAll()
	cmds = append(cmds, a.spinner.Tick)
	return tea.Batch(cmds...)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.pokemon, cmd = a.pokemon.Update(msg)
	cmds = append(cmds, cmd)
	a.character, cmd = a.character.Update(msg)
	cmds = append(cmds, cmd)
	a.recordTransitions()
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.Close()
		return a, tea.Quit
	case key.Matches(msg, a.keys.Switch):
		if a.focus == focusPokemon {
			a.focus = focusCharacter
		} else {
			a.focus = focusPokemon
		}
	case key.Matches(msg, a.keys.Next):
		return a, a.step(1)
	case key.Matches(msg, a.keys.Prev):
		return a, a.step(-1)
	case key.Matches(msg, a.keys.Refresh):
		return a, a.refreshFocused()
	}
	return a, nil
}

// step moves the focused card to a neighbouring id, which changes the URL
// its hook observes.
func (a *App) step(delta int) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case focusPokemon:
		if a.pokemonID+delta < 1 {
			return nil
		}
		a.pokemonID += delta
		a.pokemon, cmd = a.pokemon.Observe(a.pokemonURL())
	case focusCharacter:
		if a.characterID+delta < 1 {
			return nil
		}
		a.characterID += delta
		a.character, cmd = a.character.Observe(a.characterURL())
	}
	a.recordTransitions()
	return cmd
}

func (a *App) refreshFocused() tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case focusPokemon:
		a.pokemon, cmd = a.pokemon.Refresh()
	case focusCharacter:
		a.character, cmd = a.character.Refresh()
	}
	a.recordTransitions()
	return cmd
}

func (a *App) observeAll() []tea.Cmd {
	var pokemonCmd, characterCmd tea.Cmd
	a.pokemon, pokemonCmd = a.pokemon.Observe(a.pokemonURL())
	a.character, characterCmd = a.character.Observe(a.characterURL())
	a.recordTransitions()
	return []tea.Cmd{pokemonCmd, characterCmd}
}

// Close tears both hooks down and remembers the ids for the next launch.
// It is safe to call more than once.
func (a *App) Close() {
	if a.closed {
		return
	}
	a.closed = true
	a.pokemon = a.pokemon.Close()
	a.character = a.character.Close()
	if a.config == nil || a.config.StateDir == "" {
		return
	}
	if err := a.config.SetEndpointIDs(a.pokemonID, a.characterID); err != nil {
		a.saveErr = err
		a.logError("save ids: %v", err)
		return
	}
	a.logInfo("session closed · pokemon #%d · character #%d", a.pokemonID, a.characterID)
}

// Err reports a failure to persist state on Close.
func (a *App) Err() error {
	return a.saveErr
}

// Failed reports whether either card ended in an error.
func (a *App) Failed() bool {
	return a.pokemon.Status() == fetchstate.StatusFailed || a.character.Status() == fetchstate.StatusFailed
}

func (a *App) pokemonURL() string {
	return a.config.PokemonURLAt(a.pokemonID)
}

func (a *App) characterURL() string {
	return a.config.CharacterURLAt(a.characterID)
}

// recordTransitions logs each status change once.
func (a *App) recordTransitions() {
	a.recordTransition("pokemon", a.pokemon.Status(), a.pokemon.URL(), a.pokemon.Result().ErrorMessage())
	a.recordTransition("character", a.character.Status(), a.character.URL(), a.character.Result().ErrorMessage())
}

func (a *App) recordTransition(name string, status fetchstate.Status, url, errMsg string) {
	if prev, seen := a.statuses[name]; seen && prev == status {
		return
	}
	a.statuses[name] = status
	switch status {
	case fetchstate.StatusLoading:
		a.logInfo("%s loading %s", name, url)
	case fetchstate.StatusLoaded:
		a.logInfo("%s loaded %s", name, url)
	case fetchstate.StatusFailed:
		a.logWarn("%s failed %s: %s", name, url, errMsg)
	}
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// View renders the whole screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = defaultWidth
	}
	sections := []string{
		a.renderHeader(),
		a.renderCards(width),
	}
	if details := a.renderDetails(width); details != "" {
		sections = append(sections, details)
	}
	sections = append(sections, a.renderExplanation(width))
	if logPanel := a.renderLogPanel(width); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.help.View(a.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderHeader() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("Hook Demo"),
		subtitleStyle.Render("One fetch hook, two public APIs"),
		"",
	)
}

func (a *App) renderCards(width int) string {
	cardWidth := width
	sideBySide := width >= sideBySideWidth
	if sideBySide {
		cardWidth = (width - 1) / 2
	}
	left := card.Render(a.pokemonProps(cardWidth))
	right := card.Render(a.characterProps(cardWidth))
	if sideBySide {
		return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	}
	return lipgloss.JoinVertical(lipgloss.Left, left, right)
}

func (a *App) pokemonProps(width int) card.Props {
	res := a.pokemon.Result()
	props := card.Props{
		Title:   fmt.Sprintf("%s #%d", a.config.Project.Endpoints.Pokemon.Title, a.pokemonID),
		Loading: res.Loading,
		Error:   res.ErrorMessage(),
		Idle:    a.pokemon.Status() == fetchstate.StatusIdle,
		Spinner: a.spinner.View(),
		Width:   width,
		Focused: a.focus == focusPokemon,
	}
	if res.Data != nil {
		props.Name = res.Data.Name
		props.Image = res.Data.Sprites.FrontDefault
	}
	return props
}

func (a *App) characterProps(width int) card.Props {
	res := a.character.Result()
	props := card.Props{
		Title:   fmt.Sprintf("%s #%d", a.config.Project.Endpoints.Character.Title, a.characterID),
		Loading: res.Loading,
		Error:   res.ErrorMessage(),
		Idle:    a.character.Status() == fetchstate.StatusIdle,
		Spinner: a.spinner.View(),
		Width:   width,
		Focused: a.focus == focusCharacter,
	}
	if res.Data != nil {
		props.Name = res.Data.Name
		props.Image = res.Data.Image
	}
	return props
}

// renderDetails draws the details block, which only exists once both
// hooks have settled with data.
func (a *App) renderDetails(width int) string {
	pokemon := a.pokemon.Result()
	character := a.character.Result()
	if !pokemon.Ready() || !character.Ready() {
		return ""
	}
	columnWidth := max(20, (width-6)/2)
	left := renderDetailColumn(a.config.Project.Endpoints.Pokemon.Title, api.PokemonDetails(*pokemon.Data), columnWidth)
	right := renderDetailColumn(a.config.Project.Endpoints.Character.Title, api.CharacterDetails(*character.Data), columnWidth)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	return panelStyle.Width(width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, panelHeadStyle.Render("Details"), body),
	)
}

func renderDetailColumn(title string, details []api.Detail, width int) string {
	lines := []string{valueStyle.Bold(true).Render(title)}
	for _, d := range details {
		lines = append(lines, labelStyle.Render(d.Label+": ")+valueStyle.Render(d.Value))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (a *App) renderExplanation(width int) string {
	rows := [][2]string{
		{"fetchstate.New[T]()", "one hook per URL input, idle until observed"},
		{"Observe(url)", "a new URL starts exactly one request"},
		{"Update(msg)", "applies the response; stale ones are dropped"},
		{"Result()", "{data, loading, error} for the card"},
	}
	lines := []string{panelHeadStyle.Render("How the hook works")}
	for _, row := range rows {
		lines = append(lines, codeStyle.Render(row[0])+labelStyle.Render(" - "+row[1]))
	}
	return panelStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logTailLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	rendered := make([]string, 0, len(lines)+1)
	rendered = append(rendered, panelHeadStyle.Render(fmt.Sprintf("LOG · %s (%d)", fileName, total)))
	for _, line := range lines {
		entry, ok := logbook.ParseEntry(line)
		if !ok {
			rendered = append(rendered, labelStyle.Render(line))
			continue
		}
		stamp := entry.Time.Local().Format("15:04:05")
		rendered = append(rendered, labelStyle.Render(stamp+" ")+logLevelStyle(entry.Level).Render(entry.Message))
	}
	return panelStyle.Width(width - 2).Render(strings.Join(rendered, "\n"))
}
