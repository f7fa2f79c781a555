// Package tui is the interactive dashboard over one aggregation run.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/browser"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeHelp
)

// FetchFunc runs one aggregation for the refresh key.
type FetchFunc func(ctx context.Context) aggregate.BucketMap

// RunOpts holds all parameters for launching the dashboard.
type RunOpts struct {
	Title   string
	Buckets aggregate.BucketMap
	// Fetch is optional; without it refresh is disabled. When Buckets is
	// empty and Fetch is set, the dashboard fetches on start.
	Fetch        FetchFunc
	Source       string
	HideSummary  bool
	FetchTimeout time.Duration
	Now          func() time.Time
}

type App struct {
	title   string
	fetch   FetchFunc
	timeout time.Duration
	now     func() time.Time

	buckets  aggregate.BucketMap
	items    []item.Item
	cursor   int
	focus    focusPane
	mode     mode
	width    int
	height   int
	tabs     sourceTabs
	category categoryFilter

	searchInput   textinput.Model
	spinner       spinner.Model
	query         string
	refreshing    bool
	showFull      bool
	hideSummary   bool
	previewScroll int
	notice        string
	err           error
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search titles and summaries..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	title := opts.Title
	if title == "" {
		title = "research-newsfeed"
	}

	a := &App{
		title:       title,
		fetch:       opts.Fetch,
		timeout:     timeout,
		now:         now,
		buckets:     opts.Buckets,
		tabs:        newSourceTabs(opts.Buckets.Names, opts.Source),
		searchInput: ti,
		spinner:     sp,
		hideSummary: opts.HideSummary,
	}
	a.resetCategory()
	a.applyView()
	return a
}

func (a *App) Init() tea.Cmd {
	if a.buckets.Len() == 0 && a.fetch != nil {
		a.refreshing = true
		return tea.Batch(a.refreshCmd(), a.spinner.Tick)
	}
	return nil
}

func (a *App) refreshCmd() tea.Cmd {
	fetch := a.fetch
	timeout := a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		started := time.Now()
		b := fetch(ctx)
		return bucketsLoadedMsg{buckets: b, took: time.Since(started)}
	}
}

func openItemCmd(it item.Item) tea.Cmd {
	return func() tea.Msg {
		if err := browser.OpenItem(it); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

// tabItems returns the items of the active tab before category and search
// filtering.
func (a *App) tabItems() []item.Item {
	if tab := a.tabs.current(); tab != allTab {
		return a.buckets.Get(tab)
	}
	return aggregate.Combined(a.buckets)
}

func (a *App) resetCategory() {
	if a.tabs.current() == allTab {
		a.category = newCategoryFilter(nil)
		return
	}
	cats := aggregate.Categories(a.tabItems())
	if len(cats) < 2 {
		cats = nil
	}
	a.category = newCategoryFilter(cats)
}

// applyView recomputes the visible list from tab, category and query.
func (a *App) applyView() {
	items := aggregate.FilterCategory(a.tabItems(), a.category.current())
	if a.query != "" {
		kws := []string{a.query}
		var kept []item.Item
		for _, it := range items {
			if filter.AnyMatch(filter.Haystack(it.Title, it.Summary, it.FullText, item.FormatAuthors(it.Authors)), kws) {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	a.items = items
	if a.cursor >= len(a.items) {
		a.cursor = max(0, len(a.items)-1)
	}
	a.previewScroll = 0
}

func (a *App) selected() *item.Item {
	if a.cursor < len(a.items) {
		return &a.items[a.cursor]
	}
	return nil
}

// body picks the preview body mode.
func (a *App) body() bodyMode {
	switch {
	case a.hideSummary:
		return bodyHidden
	case a.showFull:
		return bodyFull
	}
	return bodySummary
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		a.err = nil
		return a.handleKey(msg)

	case bucketsLoadedMsg:
		a.refreshing = false
		a.buckets = msg.buckets
		a.tabs.setNames(msg.buckets.Names)
		a.resetCategory()
		a.applyView()
		a.notice = fmt.Sprintf("fetched %d in %s", msg.buckets.Total(), msg.took.Round(time.Second))
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeHelp:
		switch msg.String() {
		case "?", "esc", "q":
			a.mode = modeNormal
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.items)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
	case "g", "home":
		a.cursor = 0
		a.previewScroll = 0
	case "G", "end":
		a.cursor = max(0, len(a.items)-1)
		a.previewScroll = 0
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
	case "]", "right", "l":
		a.tabs.next()
		a.cursor = 0
		a.resetCategory()
		a.applyView()
	case "[", "left", "h":
		a.tabs.prev()
		a.cursor = 0
		a.resetCategory()
		a.applyView()
	case "c":
		a.category.next()
		a.cursor = 0
		a.applyView()
	case "a":
		a.showFull = !a.showFull
		a.previewScroll = 0
	case "s":
		a.hideSummary = !a.hideSummary
		a.previewScroll = 0
	case "o", "enter":
		if it := a.selected(); it != nil {
			return a, openItemCmd(*it)
		}
	case "/":
		a.mode = modeSearch
		a.searchInput.SetValue(a.query)
		a.searchInput.Focus()
		return a, textinput.Blink
	case "esc":
		if a.query != "" {
			a.query = ""
			a.applyView()
		}
	case "r":
		if a.fetch != nil && !a.refreshing {
			a.refreshing = true
			a.notice = ""
			return a, tea.Batch(a.refreshCmd(), a.spinner.Tick)
		}
	case "?":
		a.mode = modeHelp
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.query = a.searchInput.Value()
		a.cursor = 0
		a.applyView()
		return a, nil
	}
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) counts() map[string]int {
	counts := map[string]int{allTab: a.buckets.Total()}
	a.buckets.Each(func(name string, items []item.Item) {
		counts[name] = len(items)
	})
	return counts
}

func (a *App) withBottomBar(content, hints string) string {
	bar := statusBarStyle.Width(a.width).Render(fmt.Sprintf("%*s", max(a.width-2, 0), hints+" "))
	contentHeight := max(a.height-1, 0)
	return lipgloss.NewStyle().Height(contentHeight).Render(content) + "\n" + bar
}

func (a *App) View() string {
	if a.width == 0 {
		return headerStyle.Render(a.title)
	}
	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), "? close  q quit")
	}

	contentHeight := max(a.height-3-4, 3)
	listWidth := int(float64(a.width) * 0.4)
	previewWidth := a.width - listWidth - 1
	now := a.now()

	headerLeft := headerStyle.Render(a.title)
	headerRight := headerDateStyle.Render(now.Format("Jan 2 15:04"))
	gap := max(a.width-lipgloss.Width(headerLeft)-lipgloss.Width(headerRight), 0)
	header := headerLeft + fmt.Sprintf("%*s", gap, "") + headerRight

	bar := a.tabs.render(a.width, a.counts())
	if a.mode == modeSearch {
		bar = a.searchInput.View()
	}

	listContent := renderList(a.items, a.cursor, contentHeight, listWidth-4, now)
	listStyle, previewStyle := listPaneStyle, previewPaneActiveStyle
	if a.focus == focusList {
		listStyle, previewStyle = listPaneActiveStyle, previewPaneStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	previewContent := renderPreview(a.selected(), a.body(), previewWidth-4, contentHeight, a.previewScroll)
	previewPane := previewStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(statusInfo{
		count:      len(a.items),
		tab:        a.tabs.current(),
		category:   a.category.current(),
		query:      a.query,
		searching:  a.mode == modeSearch,
		refreshing: a.refreshing,
		notice:     a.notice,
	}, a.width)
	if a.refreshing {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, content, status)
}

func (a *App) renderHelp() string {
	title := headerStyle.UnsetPaddingLeft().Render(a.title)
	dim := helpDimStyle

	help := title + dim.Render(" · keyboard shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓      Move through items\n" +
		"  g/G           First / last item\n" +
		"  tab           Switch focus between list and preview\n" +
		"  [/], h/l      Previous / next source tab\n\n" +
		dim.Render("Filtering") + "\n" +
		"  c             Cycle category (subreddit, feed)\n" +
		"  /             Search titles, summaries and authors\n" +
		"  esc           Clear search\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open PDF, else link, in browser\n" +
		"  a             Toggle full text in preview\n" +
		"  s             Show / hide summaries\n" +
		"  r             Refresh all sources\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c     Quit"

	card := helpCardStyle.Render(help)
	return lipgloss.Place(a.width, max(a.height-1, 0), lipgloss.Center, lipgloss.Center, card)
}

func Run(opts RunOpts) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
