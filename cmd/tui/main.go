package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/privcap/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/audit"
	auditStore "github.com/MrJamesThe3rd/privcap/internal/audit/store"
	"github.com/MrJamesThe3rd/privcap/internal/config"
	"github.com/MrJamesThe3rd/privcap/internal/database"
	"github.com/MrJamesThe3rd/privcap/internal/importer"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	investmentStore "github.com/MrJamesThe3rd/privcap/internal/investment/store"
	"github.com/MrJamesThe3rd/privcap/internal/investor"
	investorStore "github.com/MrJamesThe3rd/privcap/internal/investor/store"
	"github.com/MrJamesThe3rd/privcap/internal/logger"
	"github.com/MrJamesThe3rd/privcap/internal/settlement"
	settlementStore "github.com/MrJamesThe3rd/privcap/internal/settlement/store"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
	transferStore "github.com/MrJamesThe3rd/privcap/internal/transfer/store"
)

const logFile = "privcap-tui.log"

type model struct {
	transferService   *transfer.Service
	investorService   *investor.Service
	investmentService *investment.Service
	analyticsService  *analytics.Service
	importService     *importer.Service
	operator          transfer.Actor

	currentView View

	reviewView    view.ReviewModel
	portfolioView view.PortfolioModel
	importView    view.ImportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewReview    View = 1
	ViewPortfolio View = 2
	ViewImport    View = 3
)

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func initialModel(cfg *config.Config, log zerolog.Logger) model {
	operatorID, err := cfg.OperatorID()
	if err != nil {
		fail("invalid operator", err)
	}

	ctx, cancel := view.DbCtx()
	defer cancel()

	db, err := database.New(ctx, cfg.ConnectionString(), cfg.Pool())
	if err != nil {
		fail("failed to connect to database", err)
	}

	var (
		auditSvc      = audit.NewService(auditStore.New(db), log)
		investorSvc   = investor.NewService(investorStore.New(db))
		investmentSvc = investment.NewService(investmentStore.New(db), log)
		executor      = settlement.NewExecutor(settlementStore.New(db), auditSvc, log)
		transferSvc   = transfer.NewService(transferStore.New(db), investmentSvc, investorSvc, executor, auditSvc, log)
		analyticsSvc  = analytics.NewService(investmentSvc, log, analytics.Settings{
			RiskFreeRate:  cfg.Analytics.RiskFreeRate,
			VaRConfidence: cfg.Analytics.VaRConfidence,
		})
		importSvc = importer.NewService()
	)

	operator, err := investorSvc.Get(ctx, operatorID)
	if err != nil {
		fail("failed to load operator", err)
	}

	if !operator.IsStaff {
		fail("invalid operator", fmt.Errorf("%s is not a staff account", operator.Email))
	}

	actor := transfer.Actor{ID: operator.ID, Staff: true}

	return model{
		transferService:   transferSvc,
		investorService:   investorSvc,
		investmentService: investmentSvc,
		analyticsService:  analyticsSvc,
		importService:     importSvc,
		operator:          actor,
		currentView:       ViewMenu,
		reviewView:        view.NewReviewModel(transferSvc, actor),
		portfolioView:     view.NewPortfolioModel(investorSvc, investmentSvc, analyticsSvc),
		importView:        view.NewImportModel(investmentSvc, importSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.transferService, m.operator)

				return m, m.reviewView.Init()
			case "2":
				m.currentView = ViewPortfolio
				m.portfolioView = view.NewPortfolioModel(m.investorService, m.investmentService, m.analyticsService)

				return m, m.portfolioView.Init()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.investmentService, m.importService)

				return m, m.importView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewPortfolio:
		var newModel tea.Model
		newModel, cmd = m.portfolioView.Update(msg)
		m.portfolioView = newModel.(view.PortfolioModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"PrivCap Operator Console\n\n" +
				"1. Review Transfers\n" +
				"2. Investor Portfolio\n" +
				"3. Import Capital Statement\n\n" +
				"q. Quit",
		)
	case ViewReview:
		return m.reviewView.View()
	case ViewPortfolio:
		return m.portfolioView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("failed to load config", err)
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fail("failed to open log file", err)
	}
	defer f.Close()

	log := logger.NewWithWriter(logger.Config{Level: cfg.Log.Level}, f).
		With().Str("app", "tui").Logger()

	p := tea.NewProgram(initialModel(cfg, log))
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run TUI")
		fail("failed to run TUI", err)
	}
}
