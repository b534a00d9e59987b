package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/importer"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateTarget importState = iota
	importStateFilePick
	importStateImporting
	importStateConflicts
	importStateResult
)

// ImportModel loads an administrator capital statement into one investment's ledger.
type ImportModel struct {
	CommonModel
	investmentService *investment.Service
	importService     *importer.Service

	state      importState
	form       *huh.Form
	targetID   *string
	target     *investment.Investment
	filePicker filepicker.Model

	newParams    []investment.ActivityParams
	conflicts    []investment.Conflict
	conflictList list.Model
	selected     map[int]bool

	status string
	err    error
}

func NewImportModel(investmentSvc *investment.Service, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt", ".tsv"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	m := ImportModel{
		investmentService: investmentSvc,
		importService:     impSvc,
		filePicker:        fp,
		selected:          make(map[int]bool),
	}
	m.resetTarget()

	return m
}

func (m *ImportModel) resetTarget() {
	m.state = importStateTarget
	m.target = nil
	m.targetID = new(string)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("investment_id").
				Title("Investment ID").
				Placeholder("00000000-0000-0000-0000-000000000000").
				Value(m.targetID).
				Validate(func(s string) error {
					_, err := uuid.Parse(s)
					return err
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) Title() string { return "Import Capital Statement" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateConflicts {
		return "Space: toggle | a: all | n: none | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}

	case targetLoadedMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.target = msg.investment
		m.state = importStateFilePick

		return m, m.filePicker.Init()

	case importResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		if len(msg.result.Conflicts) == 0 {
			m.state = importStateResult
			m.status = fmt.Sprintf("Imported %d activities into %s.", len(msg.result.Imported), m.target.Name)

			return m, nil
		}

		m.newParams = msg.result.New
		m.conflicts = msg.result.Conflicts
		m.selected = make(map[int]bool)
		m.state = importStateConflicts

		items := make([]list.Item, len(m.conflicts))
		for i, c := range m.conflicts {
			items[i] = conflictItem{conflict: c, index: i}
		}

		delegate := conflictDelegate{selected: &m.selected}
		m.conflictList = list.New(items, delegate, 80, 20)
		m.conflictList.Title = "Duplicate Activities"
		m.conflictList.SetShowStatusBar(false)
		m.conflictList.SetFilteringEnabled(false)
		m.conflictList.SetShowHelp(false)

		return m, nil

	case confirmResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d activities into %s.", msg.count, m.target.Name)

		return m, nil
	}

	switch m.state {
	case importStateTarget:
		return m.updateTarget(msg)
	case importStateFilePick:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.state = importStateImporting
			m.status = fmt.Sprintf("Importing from %s...", path)

			return m, m.importCmd(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m ImportModel) updateTarget(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = importStateImporting
	m.status = "Looking up investment..."

	return m, m.loadTargetCmd(*m.targetID)
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick, importStateResult, importStateConflicts:
		m.resetTarget()
		m.err = nil
		m.status = ""
		m.conflicts = nil
		m.newParams = nil
		m.selected = make(map[int]bool)

		return m, m.form.Init()
	}

	return m, Back
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateTarget:
		return lipgloss.NewStyle().Padding(2).Render(m.form.View())
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select statement for %s:\n\n%s", m.target.Name, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateConflicts:
		return lipgloss.NewStyle().Padding(1).Render(m.conflictList.View() + "\n" + m.ShortHelp())
	case importStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(2).Render(errorStyle(m.status) + "\n\n(Esc to go back)")
		}

		return lipgloss.NewStyle().Padding(2).Render(successStyle(m.status) + "\n\n(Esc to go back)")
	}

	return ""
}

// Messages

type targetLoadedMsg struct {
	investment *investment.Investment
	err        error
}

type importResultMsg struct {
	result *investment.ImportResult
	err    error
}

type confirmResultMsg struct {
	count int
	err   error
}

func (m ImportModel) loadTargetCmd(raw string) tea.Cmd {
	return func() tea.Msg {
		id, err := uuid.Parse(raw)
		if err != nil {
			return targetLoadedMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		inv, err := m.investmentService.Get(ctx, id)

		return targetLoadedMsg{investment: inv, err: err}
	}
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	target := m.target

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		params, err := m.importService.Import(importer.FormatStatement, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.investmentService.ImportActivities(ctx, target.ID, target.OwnerID, params)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{result: result}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	target := m.target
	newParams := m.newParams
	conflicts := m.conflicts
	selected := m.selected

	return func() tea.Msg {
		var allParams []investment.ActivityParams
		allParams = append(allParams, newParams...)

		for i, c := range conflicts {
			if !selected[i] {
				continue
			}

			allParams = append(allParams, c.Incoming)
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		activities, err := m.investmentService.CreateActivities(ctx, target.ID, target.OwnerID, allParams)
		if err != nil {
			return confirmResultMsg{err: err}
		}

		return confirmResultMsg{count: len(activities)}
	}
}

// Conflict list item

type conflictItem struct {
	conflict investment.Conflict
	index    int
}

func (i conflictItem) Title() string       { return "" }
func (i conflictItem) Description() string { return "" }
func (i conflictItem) FilterValue() string { return "" }

// Conflict list delegate

type conflictDelegate struct {
	selected *map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if (*d.selected)[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming
	existing := item.conflict.Existing

	line1 := fmt.Sprintf("%s%s %s  %-18s  %12s  %s",
		cursor, checkbox,
		FormatDate(incoming.Date),
		incoming.Type,
		FormatAmount(investment.SignedAmount(incoming.Type, incoming.Amount)),
		incoming.Details,
	)

	line2 := fmt.Sprintf("      Existing: %s  %-18s  %12s  %s",
		FormatDate(existing.Date),
		existing.Type,
		FormatAmount(existing.Amount),
		existing.Details,
	)

	fmt.Fprintf(w, "%s\n%s\n", line1, line2)
}
