package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/format"
	"github.com/spiffcs/ghissues/internal/model"
)

// Column widths for the issue list
const (
	colNumber   = 6
	colComments = 4
	colAge      = 4
)

// splitWidth is the narrowest window that shows both panes side by side.
const splitWidth = 100

// layout is the size of each region for the current window.
type layout struct {
	split        bool
	listWidth    int
	detailsWidth int
	bodyHeight   int
}

func (m Model) layout() layout {
	l := layout{
		split:        m.windowWidth >= splitWidth,
		listWidth:    m.windowWidth,
		detailsWidth: m.windowWidth,
	}
	if l.split {
		l.listWidth = m.windowWidth * 45 / 100
		l.detailsWidth = m.windowWidth - l.listWidth
	}
	// Pane borders take two lines
	l.bodyHeight = max(3, m.windowHeight-constants.TabBarLines-constants.FooterLines-2)
	return l
}

// resize fits the widgets to the window.
func (m *Model) resize() {
	l := m.layout()
	m.details.Width = max(10, l.detailsWidth-4)
	m.details.Height = l.bodyHeight
	m.input.Width = max(10, m.windowWidth-12)
	m.area.SetWidth(max(10, m.windowWidth-8))
	m.area.SetHeight(max(3, min(10, l.bodyHeight-4)))
	m.refreshDetails(false)
}

// refreshDetails re-renders the details pane content.
func (m *Model) refreshDetails(top bool) {
	m.details.SetContent(m.detailsContent(m.details.Width))
	if top {
		m.details.GotoTop()
	}
}

// renderApp renders the complete screen
func renderApp(m Model) string {
	var b strings.Builder

	b.WriteString(renderTabBar(m))
	b.WriteString("\n\n")

	if len(m.prompts) > 0 {
		b.WriteString(renderPrompt(m))
	} else {
		b.WriteString(renderBody(m))
	}
	b.WriteString("\n")
	b.WriteString(renderFooter(m))
	return b.String()
}

// renderTabBar renders the numbered tabs and the repository
func renderTabBar(m Model) string {
	search := "3: Search"
	if m.state.SearchTerm != "" {
		search = fmt.Sprintf("3: Search %q", format.Truncate(m.state.SearchTerm, 20))
	}
	labels := []struct {
		tab  Tab
		text string
	}{
		{TabOpen, "1: Open"},
		{TabClosed, "2: Closed"},
		{TabSearch, search},
		{TabCreate, "4: New issue"},
		{TabLimits, "5: Limits"},
	}

	parts := make([]string, 0, len(labels)+1)
	for _, l := range labels {
		text := "[ " + l.text + " ]"
		if l.tab == m.tab {
			parts = append(parts, tabActiveStyle.Render(text))
		} else {
			parts = append(parts, tabInactiveStyle.Render(text))
		}
	}
	repo := fmt.Sprintf("%s/%s  page %d", m.state.Owner, m.state.Repo, max(1, m.state.Page))
	parts = append(parts, dimStyle.Render(repo))
	return strings.Join(parts, " ")
}

// renderBody renders the list and details panes
func renderBody(m Model) string {
	l := m.layout()

	listStyle, detailStyle := paneStyle, paneStyle
	if m.focus == PaneList {
		listStyle = paneFocusedStyle
	} else {
		detailStyle = paneFocusedStyle
	}

	list := listStyle.Width(l.listWidth - 2).Height(l.bodyHeight).
		Render(renderList(m, l.listWidth-4, l.bodyHeight))
	details := detailStyle.Width(l.detailsWidth - 2).Height(l.bodyHeight).
		Padding(0, 1).
		Render(m.details.View())

	if !l.split {
		if m.focus == PaneDetails {
			return details
		}
		return list
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list, details)
}

// renderList renders the issue rows that fit in height
func renderList(m Model, width, height int) string {
	items := m.state.Items
	if len(items) == 0 {
		switch {
		case m.pending > 0:
			return emptyStyle.Render("Loading issues...")
		case m.state.Searching():
			return emptyStyle.Render(fmt.Sprintf("No issues match %q.", m.state.SearchTerm))
		default:
			return emptyStyle.Render(fmt.Sprintf("No %s issues.", m.state.Filter))
		}
	}

	titleWidth := max(10, width-colNumber-colComments-colAge-6)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %s %s %s %s",
		format.PadRight("#", colNumber),
		format.PadRight("Title", titleWidth),
		format.PadRight("Cmts", colComments),
		"Age")))
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(0, width))))
	b.WriteString("\n")

	start, end := calculateScrollWindow(m.cursor, len(items), max(1, height-constants.HeaderLines))
	now := time.Now()
	for i := start; i < end; i++ {
		b.WriteString(renderRow(items[i], i == m.cursor, titleWidth, now))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderRow renders one issue; the selected row is drawn without inner
// styles so the highlight is not interrupted by reset codes.
func renderRow(issue model.Issue, selected bool, titleWidth int, now time.Time) string {
	number := format.PadRight(fmt.Sprintf("#%d", issue.Number), colNumber)
	title := format.Fit(format.SingleLine(issue.Title), titleWidth)
	comments := format.PadRight(fmt.Sprintf("%d", issue.Comments), colComments)
	age := format.PadRight(format.Age(issue.UpdatedAt, now), colAge)

	if selected {
		return cursorStyle.Render("▸ ") + selectedStyle.Render(strings.Join([]string{number, title, comments, age}, " "))
	}
	stateStyle := openStyle
	if !issue.IsOpen() {
		stateStyle = closedStyle
	}
	return "  " + strings.Join([]string{stateStyle.Render(number), title, dimStyle.Render(comments), dimStyle.Render(age)}, " ")
}

// calculateScrollWindow returns the visible row range keeping cursor
// roughly centred.
func calculateScrollWindow(cursor, total, viewHeight int) (start, end int) {
	if total <= viewHeight {
		return 0, total
	}

	start = max(0, cursor-viewHeight/2)
	end = start + viewHeight
	if end > total {
		end = total
		start = max(0, end-viewHeight)
	}
	return start, end
}

// detailsContent renders the details pane text for width columns.
func (m Model) detailsContent(width int) string {
	if m.tab == TabLimits && m.limits != nil {
		return renderLimits(*m.limits, time.Now())
	}
	issue, ok := m.selectedIssue()
	if !ok {
		return emptyStyle.Render("Select an issue to see its details.")
	}
	loaded := m.issue != nil && m.issue.Number == issue.Number
	if loaded {
		issue = *m.issue
	}
	return renderIssue(issue, m.comments, loaded, width, time.Now())
}

// renderIssue renders an issue body and, once loaded, its comments
func renderIssue(issue model.Issue, comments []model.Comment, loaded bool, width int, now time.Time) string {
	var b strings.Builder

	b.WriteString(titleStyle.Width(width).Render(fmt.Sprintf("#%d %s", issue.Number, issue.Title)))
	b.WriteString("\n")

	state := openStyle.Render(issue.State)
	if !issue.IsOpen() {
		state = closedStyle.Render(issue.State)
	}
	b.WriteString(fmt.Sprintf("%s  %s  opened %s ago  %d comments\n",
		state, authorStyle.Render("@"+issue.User.Login), format.Age(issue.CreatedAt, now), issue.Comments))
	if labels := issue.LabelNames(); len(labels) > 0 {
		b.WriteString(labelStyle.Render(format.Labels(labels)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if body := format.RenderMarkdown(issue.Body, width); body != "" {
		b.WriteString(body)
	} else {
		b.WriteString(emptyStyle.Render("No description provided."))
	}
	b.WriteString("\n")

	if !loaded {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Press enter to load comments."))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(fmt.Sprintf("── Comments (%d) ", len(comments)) + strings.Repeat("─", max(0, width-16))))
	b.WriteString("\n")
	for _, c := range comments {
		b.WriteString("\n")
		b.WriteString(authorStyle.Render("@"+c.User.Login) + dimStyle.Render(fmt.Sprintf("  %s ago", format.Age(c.CreatedAt, now))))
		b.WriteString("\n")
		b.WriteString(format.RenderMarkdown(c.Body, width))
		b.WriteString("\n")
	}
	return b.String()
}

// renderLimits renders the rate limit panel
func renderLimits(snap model.RateLimitSnapshot, now time.Time) string {
	var b strings.Builder

	mode := "authenticated"
	if !snap.Authenticated {
		mode = "unauthenticated"
	}
	b.WriteString(titleStyle.Render("GitHub API rate limits"))
	b.WriteString(dimStyle.Render(" (" + mode + ")"))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %9s %9s  %s", "Resource", "Remaining", "Limit", "Resets")))
	b.WriteString("\n")

	for _, name := range snap.ResourceNames() {
		r := snap.Resources[name]
		row := fmt.Sprintf("%-10s %9d %9d  in %s", name, r.Remaining, r.Limit, format.FormatAge(r.ResetAt.Sub(now)))
		check := model.RateLimitSnapshot{Limit: r.Limit, Remaining: r.Remaining}
		if check.Low(constants.RateLimitWarnRemaining, constants.RateLimitWarnFraction) {
			row = statusStyles[controller.SeverityWarning].Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if !snap.Authenticated {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("Set GITHUB_TOKEN to raise the core limit from %d to %d requests per hour.",
			constants.AnonymousRateLimit, constants.AuthenticatedRateLimit)))
	}
	return b.String()
}

// renderPrompt renders the active prompt in place of the panes
func renderPrompt(m Model) string {
	p := m.prompts[0]

	var body, hint string
	switch p.kind {
	case PromptConfirm:
		body = p.label
		hint = "y: yes   n/esc: no"
	case PromptMultiline:
		body = p.label + "\n\n" + m.area.View()
		hint = "ctrl+s: submit   esc: cancel"
	default:
		body = p.label + "\n\n" + m.input.View()
		hint = "enter: submit   esc: cancel"
	}

	l := m.layout()
	box := promptStyle.Width(max(20, m.windowWidth-4)).Render(body + "\n\n" + helpStyle.Render(hint))
	return lipgloss.PlaceVertical(l.bodyHeight+2, lipgloss.Top, box)
}

// renderFooter renders the status line, context line and key help
func renderFooter(m Model) string {
	var b strings.Builder

	if m.pending > 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
	} else {
		b.WriteString("  ")
	}
	if m.status != "" {
		b.WriteString(statusStyles[m.severity].Render(m.status))
	}
	b.WriteString("\n")

	info := []string{fmt.Sprintf("%d issues", len(m.state.Items))}
	if m.state.NeedsAuth {
		info = append(info, "token needed: press r to retry")
	}
	if m.cacheStats != nil {
		if s, ok := m.cacheStats(); ok {
			info = append(info, fmt.Sprintf("cache %d/%d fresh, ttl %s", s.Valid, s.Total, s.TTL))
		} else {
			info = append(info, "cache off")
		}
	}
	b.WriteString(dimStyle.Render("  " + strings.Join(info, " · ")))
	b.WriteString("\n")
	b.WriteString(renderHelp())
	return b.String()
}

// renderHelp renders the key help line
func renderHelp() string {
	return helpStyle.Render("  1-5: tabs   j/k: move   enter: details   tab: focus   n/p: page   r/R: refresh   c: comment   o: open   esc: reset   q: quit")
}
