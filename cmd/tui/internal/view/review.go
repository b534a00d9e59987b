package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

type reviewMode int

const (
	reviewQueue reviewMode = iota
	reviewUnsettled
)

func (m reviewMode) String() string {
	if m == reviewUnsettled {
		return "Unsettled"
	}

	return "Review Queue"
}

type reviewState int

const (
	reviewStateBrowse reviewState = iota
	reviewStateConfirm
)

// ReviewModel lets a reviewer work through pending transfers and reconcile
// completed transfers whose settlement did not run.
type ReviewModel struct {
	CommonModel
	transferService *transfer.Service
	operator        transfer.Actor

	mode      reviewMode
	state     reviewState
	table     table.Model
	transfers []*transfer.Transfer

	form          *huh.Form
	pendingAction transfer.Action
	confirmed     *bool

	loading bool
	err     error
	status  string
}

func NewReviewModel(svc *transfer.Service, operator transfer.Actor) ReviewModel {
	columns := []table.Column{
		{Title: "Initiated", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "Type", Width: 8},
		{Title: "Amount", Width: 14},
		{Title: "Fee", Width: 10},
		{Title: "Recipient", Width: 28},
		{Title: "Reason", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ReviewModel{
		transferService: svc,
		operator:        operator,
		table:           t,
		loading:         true,
	}
}

func (m ReviewModel) Title() string { return "Transfer Review" }

func (m ReviewModel) ShortHelp() string {
	if m.state == reviewStateConfirm {
		return "Enter: confirm | Esc: cancel"
	}

	if m.mode == reviewUnsettled {
		return "Esc: back | s: retry settlement | m: mode | r: refresh"
	}

	return "Esc: back | a: approve | c: complete | x: reject | m: mode | r: refresh"
}

func (m ReviewModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadTransfersMsg:
		m.loading = false
		m.err = msg.err
		m.transfers = msg.transfers
		m.refreshTable()

		return m, nil

	case transferActionMsg:
		m.state = reviewStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
		} else {
			m.status = successStyle(describeOutcome(msg.action, msg.transfer))
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == reviewStateConfirm {
		return m.updateConfirm(msg)
	}

	return m.updateBrowse(msg)
}

func (m ReviewModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "m":
			m.mode = (m.mode + 1) % 2
			m.loading = true
			m.status = ""

			return m, m.loadCmd()
		case "a":
			if m.mode == reviewQueue {
				return m, m.actionCmd(transfer.ActionApprove)
			}
		case "c":
			if m.mode == reviewQueue {
				return m, m.actionCmd(transfer.ActionComplete)
			}
		case "x":
			if m.mode == reviewQueue {
				return m.confirmReject()
			}
		case "s":
			if m.mode == reviewUnsettled {
				return m, m.retryCmd()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ReviewModel) confirmReject() (tea.Model, tea.Cmd) {
	if m.selected() == nil {
		return m, nil
	}

	// The form writes through a pointer so the choice survives model copies.
	m.confirmed = new(bool)
	m.pendingAction = transfer.ActionReject
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reject this transfer?").
				Description("Rejected transfers cannot be reopened.").
				Affirmative("Reject").
				Negative("Keep").
				Value(m.confirmed),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = reviewStateConfirm
	m.table.Blur()

	return m, m.form.Init()
}

func (m ReviewModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = reviewStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.confirmed {
		m.state = reviewStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	return m, m.actionCmd(m.pendingAction)
}

func (m ReviewModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transfers...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("[m] Mode: %s | %d transfers", activeStyle(m.mode.String()), len(m.transfers))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.state == reviewStateConfirm && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = m.status + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ReviewModel) selected() *transfer.Transfer {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.transfers) {
		return nil
	}

	return m.transfers[idx]
}

func (m *ReviewModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.transfers))
	for _, t := range m.transfers {
		rows = append(rows, table.Row{
			FormatDate(t.InitiatedAt),
			string(t.Status),
			string(t.Type),
			FormatAmount(t.Amount),
			FormatAmount(t.Fee),
			recipient(t),
			t.Reason,
		})
	}

	m.table.SetRows(rows)
}

func recipient(t *transfer.Transfer) string {
	switch {
	case t.ToEmail != "":
		return t.ToEmail
	case t.ToUserID != nil:
		return t.ToUserID.String()
	}

	return "-"
}

func describeOutcome(action transfer.Action, t *transfer.Transfer) string {
	if t == nil {
		return fmt.Sprintf("Transfer %s done.", action)
	}

	msg := fmt.Sprintf("Transfer of %s is now %s.", FormatAmount(t.Amount), t.Status)
	if t.Status == transfer.StatusCompleted && !t.IsProcessed {
		msg += " Settlement did not run; see the Unsettled list."
	}

	return msg
}

// Messages

type loadTransfersMsg struct {
	transfers []*transfer.Transfer
	err       error
}

type transferActionMsg struct {
	action   transfer.Action
	transfer *transfer.Transfer
	err      error
}

func (m ReviewModel) loadCmd() tea.Cmd {
	mode := m.mode

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		list := m.transferService.ListReviewQueue
		if mode == reviewUnsettled {
			list = m.transferService.ListUnsettled
		}

		ts, err := list(ctx, m.operator)

		return loadTransfersMsg{transfers: ts, err: err}
	}
}

func (m ReviewModel) actionCmd(action transfer.Action) tea.Cmd {
	t := m.selected()
	if t == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			out *transfer.Transfer
			err error
		)

		switch action {
		case transfer.ActionApprove:
			out, err = m.transferService.Approve(ctx, t.ID, m.operator)
		case transfer.ActionComplete:
			out, err = m.transferService.Complete(ctx, t.ID, m.operator)
		case transfer.ActionReject:
			out, err = m.transferService.Reject(ctx, t.ID, m.operator)
		default:
			err = fmt.Errorf("unsupported action %s", action)
		}

		return transferActionMsg{action: action, transfer: out, err: err}
	}
}

func (m ReviewModel) retryCmd() tea.Cmd {
	t := m.selected()
	if t == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		out, err := m.transferService.RetrySettlement(ctx, t.ID, m.operator)

		return transferActionMsg{action: "settle", transfer: out, err: err}
	}
}
