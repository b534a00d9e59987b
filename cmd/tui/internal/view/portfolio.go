package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/investor"
)

type portfolioState int

const (
	portfolioStateLookup portfolioState = iota
	portfolioStateBrowse
)

// PortfolioModel shows one investor's holdings with their headline analytics.
type PortfolioModel struct {
	CommonModel
	investorService   *investor.Service
	investmentService *investment.Service
	analyticsService  *analytics.Service

	state portfolioState
	form  *huh.Form
	email *string

	holder      *investor.Investor
	investments []*investment.Investment
	metrics     analytics.PortfolioMetrics
	sectors     []analytics.SectorShare
	table       table.Model

	loading bool
	err     error
}

func NewPortfolioModel(investors *investor.Service, investments *investment.Service, analyticsSvc *analytics.Service) PortfolioModel {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Sector", Width: 12},
		{Title: "Status", Width: 16},
		{Title: "Invested", Width: 14},
		{Title: "Value", Width: 14},
		{Title: "Gain %", Width: 8},
		{Title: "MOIC", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	m := PortfolioModel{
		investorService:   investors,
		investmentService: investments,
		analyticsService:  analyticsSvc,
		table:             t,
	}
	m.resetLookup()

	return m
}

func (m *PortfolioModel) resetLookup() {
	m.state = portfolioStateLookup
	m.email = new(string)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Investor email").
				Placeholder("investor@example.com").
				Value(m.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter an email address")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m PortfolioModel) Title() string { return "Portfolio" }

func (m PortfolioModel) ShortHelp() string {
	if m.state == portfolioStateLookup {
		return "Enter: look up | Esc: back"
	}

	return "Esc: back | n: other investor | r: refresh"
}

func (m PortfolioModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m PortfolioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case portfolioLoadedMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.holder = msg.holder
			m.investments = msg.investments
			m.metrics = msg.metrics
			m.sectors = msg.sectors
			m.refreshTable()
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 16)
		return m, nil
	}

	if m.state == portfolioStateLookup {
		return m.updateLookup(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "n":
			m.resetLookup()
			m.err = nil

			return m, m.form.Init()
		case "r":
			if m.holder == nil {
				return m, nil
			}

			m.loading = true
			return m, m.loadCmd(m.holder.Email)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m PortfolioModel) updateLookup(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = portfolioStateBrowse
	m.loading = true

	return m, m.loadCmd(strings.TrimSpace(*m.email))
}

func (m PortfolioModel) View() string {
	if m.state == portfolioStateLookup {
		return lipgloss.NewStyle().Padding(2).Render(m.form.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading portfolio...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(
			errorStyle(fmt.Sprintf("Error: %v", m.err)) + "\n\n(n: other investor, Esc: back)",
		)
	}

	summary := fmt.Sprintf(
		"%s <%s>\n\nValue %s | Invested %s | Gain %s (%.2f%%) | Avg IRR %.2f%% | %d open",
		m.holder.Name, m.holder.Email,
		activeStyle(FormatAmount(m.metrics.TotalValue)),
		FormatAmount(m.metrics.TotalInvested),
		FormatAmount(m.metrics.UnrealizedGains),
		m.metrics.GainsPct,
		m.metrics.AverageIRR,
		m.metrics.InvestmentCount,
	)

	sectors := make([]string, 0, len(m.sectors))
	for _, s := range m.sectors {
		sectors = append(sectors, fmt.Sprintf("%s %.1f%%", s.Label, s.Percentage))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		summary,
		lipgloss.NewStyle().Faint(true).PaddingBottom(1).Render("Sectors: "+strings.Join(sectors, ", ")),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	))
}

func (m *PortfolioModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.investments))
	for _, inv := range m.investments {
		rows = append(rows, table.Row{
			inv.Name,
			inv.Sector.Label(),
			string(inv.Status),
			FormatAmount(inv.TotalInvested),
			FormatAmount(inv.CurrentValue),
			inv.UnrealizedGainPct().StringFixed(1),
			inv.MOIC().StringFixed(2) + "x",
		})
	}

	m.table.SetRows(rows)
}

type portfolioLoadedMsg struct {
	holder      *investor.Investor
	investments []*investment.Investment
	metrics     analytics.PortfolioMetrics
	sectors     []analytics.SectorShare
	err         error
}

func (m PortfolioModel) loadCmd(email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		holder, err := m.investorService.GetByEmail(ctx, email)
		if err != nil {
			return portfolioLoadedMsg{err: err}
		}

		invs, err := m.investmentService.ListByOwner(ctx, holder.ID)
		if err != nil {
			return portfolioLoadedMsg{err: err}
		}

		metrics, err := m.analyticsService.GetPortfolioMetrics(ctx, holder.ID)
		if err != nil {
			return portfolioLoadedMsg{err: err}
		}

		sectors, err := m.analyticsService.GetSectorAllocation(ctx, holder.ID)
		if err != nil {
			return portfolioLoadedMsg{err: err}
		}

		return portfolioLoadedMsg{holder: holder, investments: invs, metrics: metrics, sectors: sectors}
	}
}
