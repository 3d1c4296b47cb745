package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/order-tracker/internal/credential"
	"github.com/nhle/order-tracker/internal/keys"
	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source"
	"github.com/nhle/order-tracker/internal/source/gmail"
	"github.com/nhle/order-tracker/internal/source/imap"
	"github.com/nhle/order-tracker/internal/source/mbox"
	"github.com/nhle/order-tracker/internal/store"
	"github.com/nhle/order-tracker/internal/theme"
)

// ConfigMode represents the current state of the configuration view.
type ConfigMode int

const (
	ModeList           ConfigMode = iota // List configured sources
	ModeSelectType                       // Select source type to add
	ModeFormGmail                        // Gmail-specific form
	ModeFormIMAP                         // IMAP-specific form
	ModeFormMbox                         // Mbox-specific form
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
	ModeConfirmDelete                    // Confirm source deletion
)

// ConfigDoneMsg signals the config view should close and return to the main app.
type ConfigDoneMsg struct{}

// SourceSavedMsg signals a source was saved successfully.
type SourceSavedMsg struct {
	Source model.SourceConfig
}

// SourceDeletedMsg signals a source was deleted.
type SourceDeletedMsg struct {
	ID string
}

// ValidateResultMsg carries the result of a connection validation attempt.
type ValidateResultMsg struct {
	Name string
	Err  error
}

// sourcesLoadedMsg is sent when sources have been loaded from the store.
type sourcesLoadedMsg struct {
	sources []model.SourceConfig
	err     error
}

// sourceSavedInternalMsg is sent after a source is persisted.
type sourceSavedInternalMsg struct {
	source model.SourceConfig
	hint   string
	err    error
}

// sourceDeletedInternalMsg is sent after a source is removed.
type sourceDeletedInternalMsg struct {
	id  string
	err error
}

// formValues holds the working state of the add/edit forms. It lives
// behind a pointer so huh field bindings stay valid while the model is
// copied through the update loop.
type formValues struct {
	Name string

	// Gmail
	CredsFile string

	// IMAP
	IMAPHost string
	IMAPPort string
	Username string
	Password string
	Mailbox  string
	TLS      bool

	// Mbox
	FilePath string

	SelectedType  string
	DeleteConfirm bool
}

// Model is the Bubble Tea model for the source configuration UI.
type Model struct {
	mode          ConfigMode
	store         store.Store
	sources       []model.SourceConfig
	selectedIdx   int
	editingSource *model.SourceConfig
	isNewSource   bool

	// Huh forms for each source type
	gmailForm  *huh.Form
	imapForm   *huh.Form
	mboxForm   *huh.Form
	typeSelect *huh.Form

	// Form field values (huh binds to these)
	vals *formValues

	// Validation
	validating  bool
	validResult string
	validError  error
	spinner     spinner.Model

	// pendingSource is a not-yet-saved source whose validation failed,
	// kept so retry re-validates it rather than the list selection.
	pendingSource *model.SourceConfig

	// Delete confirmation
	confirmDelete *huh.Form

	// Status message for transient feedback
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new configuration view model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeList,
		store:   s,
		keys:    k,
		vals:    &formValues{TLS: true},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads sources from the store on first render.
func (m Model) Init() tea.Cmd {
	return m.loadSources()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sourcesLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading sources: %v", msg.err)
			return m, nil
		}
		m.sources = msg.sources
		return m, nil

	case sourceSavedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving source: %v", msg.err)
			m.mode = ModeList
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Source %q saved", msg.source.Name)
		if msg.hint != "" {
			m.statusMsg += ". " + msg.hint
		}
		m.mode = ModeList
		m.pendingSource = nil
		return m, tea.Batch(
			m.loadSources(),
			func() tea.Msg { return SourceSavedMsg{Source: msg.source} },
		)

	case sourceDeletedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error deleting source: %v", msg.err)
			m.mode = ModeList
			return m, nil
		}
		m.statusMsg = "Source deleted"
		m.mode = ModeList
		if m.selectedIdx >= len(m.sources)-1 && m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, tea.Batch(
			m.loadSources(),
			func() tea.Msg { return SourceDeletedMsg{ID: msg.id} },
		)

	case ValidateResultMsg:
		m.validating = false
		m.validResult = msg.Name
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to active form
	return m.updateActiveForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeSelectType:
		return m.updateTypeSelect(msg)
	case ModeFormGmail:
		return m.updateGmailForm(msg)
	case ModeFormIMAP:
		return m.updateIMAPForm(msg)
	case ModeFormMbox:
		return m.updateMboxForm(msg)
	case ModeValidateResult:
		return m.handleValidateResultKeys(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	case ModeValidating:
		// Only allow escape during validation
		if msg.String() == "esc" {
			m.mode = ModeList
			m.validating = false
			return m, nil
		}
		return m, nil
	}
	return m, nil
}

// handleListKeys processes key events in the source list mode.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case msg.String() == "a":
		m.isNewSource = true
		m.editingSource = nil
		m.resetFormFields()
		m.mode = ModeSelectType
		m.typeSelect = m.buildTypeSelectForm()
		return m, m.typeSelect.Init()

	case msg.String() == "e":
		if len(m.sources) == 0 {
			return m, nil
		}
		src := m.sources[m.selectedIdx]
		m.isNewSource = false
		m.editingSource = &src
		cmd := m.startEditForm(src)
		return m, cmd

	case msg.String() == "d":
		if len(m.sources) == 0 {
			return m, nil
		}
		m.vals.DeleteConfirm = false
		m.confirmDelete = m.buildDeleteConfirmForm()
		m.mode = ModeConfirmDelete
		return m, m.confirmDelete.Init()

	case msg.String() == "enter":
		if len(m.sources) == 0 {
			return m, nil
		}
		src := m.sources[m.selectedIdx]
		m.mode = ModeValidating
		m.validating = true
		return m, tea.Batch(
			m.spinner.Tick,
			m.validateSource(src),
		)

	case key.Matches(msg, m.keys.Down):
		if len(m.sources) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.sources)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.sources) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.sources) - 1
			}
		}
		return m, nil
	}

	return m, nil
}

// handleValidateResultKeys processes key events on the validation result screen.
func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = ModeList
		m.validResult = ""
		m.validError = nil
		m.pendingSource = nil
		return m, nil
	case "r":
		if m.validError == nil {
			return m, nil
		}
		m.mode = ModeValidating
		m.validating = true
		if m.pendingSource != nil {
			return m, tea.Batch(
				m.spinner.Tick,
				m.validateAndSave(*m.pendingSource),
			)
		}
		if len(m.sources) > 0 {
			return m, tea.Batch(
				m.spinner.Tick,
				m.validateSource(m.sources[m.selectedIdx]),
			)
		}
		m.mode = ModeValidateResult
		m.validating = false
		return m, nil
	}
	return m, nil
}

// updateActiveForm dispatches non-key messages to the currently active form.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSelectType:
		return m.updateTypeSelect(msg)
	case ModeFormGmail:
		return m.updateGmailForm(msg)
	case ModeFormIMAP:
		return m.updateIMAPForm(msg)
	case ModeFormMbox:
		return m.updateMboxForm(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

// --- Type Selection ---

func (m *Model) buildTypeSelectForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Source Type").
				Description("Choose the kind of mailbox to read orders from").
				Options(
					huh.NewOption("Gmail - Google account via the Gmail API", "gmail"),
					huh.NewOption("IMAP - Any standard IMAP mailbox", "imap"),
					huh.NewOption("Mbox - Local mail archive file", "mbox"),
				).
				Value(&m.vals.SelectedType),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateTypeSelect(msg tea.Msg) (Model, tea.Cmd) {
	if m.typeSelect == nil {
		return m, nil
	}

	mdl, cmd := m.typeSelect.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.typeSelect = f
	}

	if m.typeSelect.State == huh.StateCompleted {
		return m.handleTypeSelected()
	}
	if m.typeSelect.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) handleTypeSelected() (Model, tea.Cmd) {
	switch m.vals.SelectedType {
	case string(model.SourceTypeGmail):
		m.mode = ModeFormGmail
		m.gmailForm = m.buildGmailForm()
		return m, m.gmailForm.Init()
	case string(model.SourceTypeIMAP):
		m.mode = ModeFormIMAP
		m.imapForm = m.buildIMAPForm()
		return m, m.imapForm.Init()
	case string(model.SourceTypeMbox):
		m.mode = ModeFormMbox
		m.mboxForm = m.buildMboxForm()
		return m, m.mboxForm.Init()
	default:
		m.mode = ModeList
		return m, nil
	}
}

// --- Gmail Form ---

func (m *Model) buildGmailForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this Gmail account").
				Placeholder("Personal Gmail").
				Value(&m.vals.Name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Credentials File").
				Description("Path to the OAuth client credentials JSON").
				Placeholder("~/.config/ordertracker/client_secret.json").
				Value(&m.vals.CredsFile).
				Validate(validateRequired("Credentials file")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateGmailForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.gmailForm == nil {
		return m, nil
	}

	mdl, cmd := m.gmailForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.gmailForm = f
	}

	if m.gmailForm.State == huh.StateCompleted {
		return m.saveGmailSource()
	}
	if m.gmailForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) saveGmailSource() (Model, tea.Cmd) {
	src := m.buildSourceConfig(string(model.SourceTypeGmail))
	src.Config[model.ConfigKeyCredentialsFile] = m.vals.CredsFile

	// The OAuth consent flow needs a browser, so it runs outside the
	// TUI. Until it completes there is no token to validate against.
	hint := fmt.Sprintf("Run 'order-tracker auth %q' to authorize", src.Name)
	return m, m.saveSource(src, hint)
}

// --- IMAP Form ---

func (m *Model) buildIMAPForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this mailbox").
				Placeholder("Work Mail").
				Value(&m.vals.Name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("IMAP Host").
				Description("IMAP server hostname").
				Placeholder("imap.example.com").
				Value(&m.vals.IMAPHost).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Description("IMAP server port (e.g., 993)").
				Placeholder("993").
				Value(&m.vals.IMAPPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Description("Mail account username").
				Placeholder("user@example.com").
				Value(&m.vals.Username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Account password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&m.vals.Password).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Mailbox").
				Description("Folder to read (empty for INBOX)").
				Placeholder("INBOX").
				Value(&m.vals.Mailbox),
			huh.NewConfirm().
				Title("Use TLS").
				Description("Enable TLS encryption for connections").
				Affirmative("Yes").
				Negative("No").
				Value(&m.vals.TLS),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateIMAPForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.imapForm == nil {
		return m, nil
	}

	mdl, cmd := m.imapForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.imapForm = f
	}

	if m.imapForm.State == huh.StateCompleted {
		return m.saveIMAPSource()
	}
	if m.imapForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) saveIMAPSource() (Model, tea.Cmd) {
	src := m.buildSourceConfig(string(model.SourceTypeIMAP))
	src.Config[model.ConfigKeyIMAPHost] = m.vals.IMAPHost
	src.Config[model.ConfigKeyIMAPPort] = m.vals.IMAPPort
	src.Config[model.ConfigKeyUsername] = m.vals.Username
	src.Config[model.ConfigKeyMailbox] = m.vals.Mailbox
	src.Config[model.ConfigKeyUseTLS] = fmt.Sprintf("%t", m.vals.TLS)

	// Store the password in the keyring, keyed by source ID
	if err := credential.Set(credential.PasswordKey(src.ID), m.vals.Password); err != nil {
		m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
		m.mode = ModeList
		return m, nil
	}

	m.mode = ModeValidating
	m.validating = true
	m.pendingSource = &src
	return m, tea.Batch(
		m.spinner.Tick,
		m.validateAndSave(src),
	)
}

// --- Mbox Form ---

func (m *Model) buildMboxForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this archive").
				Placeholder("Exported Mail").
				Value(&m.vals.Name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("File Path").
				Description("Path to the mbox archive file").
				Placeholder("~/mail/orders.mbox").
				Value(&m.vals.FilePath).
				Validate(validateRequired("File path")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateMboxForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.mboxForm == nil {
		return m, nil
	}

	mdl, cmd := m.mboxForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.mboxForm = f
	}

	if m.mboxForm.State == huh.StateCompleted {
		return m.saveMboxSource()
	}
	if m.mboxForm.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) saveMboxSource() (Model, tea.Cmd) {
	src := m.buildSourceConfig(string(model.SourceTypeMbox))
	src.Config[model.ConfigKeyFilePath] = m.vals.FilePath

	m.mode = ModeValidating
	m.validating = true
	m.pendingSource = &src
	return m, tea.Batch(
		m.spinner.Tick,
		m.validateAndSave(src),
	)
}

// --- Delete Confirmation ---

func (m *Model) buildDeleteConfirmForm() *huh.Form {
	sourceName := ""
	if m.selectedIdx < len(m.sources) {
		sourceName = m.sources[m.selectedIdx].Name
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete source %q?", sourceName)).
				Description(
					"This will remove the source configuration and " +
						"its synced orders.",
				).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.vals.DeleteConfirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmDelete == nil {
		return m, nil
	}

	mdl, cmd := m.confirmDelete.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmDelete = f
	}

	if m.confirmDelete.State == huh.StateCompleted {
		if m.vals.DeleteConfirm {
			src := m.sources[m.selectedIdx]
			return m, m.deleteSource(src)
		}
		m.mode = ModeList
		return m, nil
	}
	if m.confirmDelete.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the configuration UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeSelectType:
		return m.viewForm(m.typeSelect)
	case ModeFormGmail:
		return m.viewForm(m.gmailForm)
	case ModeFormIMAP:
		return m.viewForm(m.imapForm)
	case ModeFormMbox:
		return m.viewForm(m.mboxForm)
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	case ModeConfirmDelete:
		return m.viewForm(m.confirmDelete)
	default:
		return ""
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Mail Sources"))
	b.WriteString("\n\n")

	if len(m.sources) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		b.WriteString(emptyStyle.Render(
			"No sources configured.\nPress 'a' to add a new source.",
		))
	} else {
		for i, src := range m.sources {
			b.WriteString(m.renderSourceItem(i, src))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render(
		"a add | e edit | d delete | enter test | esc back",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderSourceItem(idx int, src model.SourceConfig) string {
	icon := sourceTypeIcon(src.Type)
	enabledLabel := "enabled"
	enabledColor := theme.ColorGreen
	if !src.Enabled {
		enabledLabel = "disabled"
		enabledColor = theme.ColorGray
	}

	name := src.Name
	if name == "" {
		name = "(unnamed)"
	}

	statusLabel := lipgloss.NewStyle().
		Foreground(enabledColor).
		Render(enabledLabel)

	line := fmt.Sprintf("%s  %s  [%s]  %s",
		icon, name, src.Type, statusLabel,
	)

	if idx == m.selectedIdx {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}

	content := f.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("r retry | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		detail := m.validResult
		if detail == "" {
			detail = "OK"
		}
		content = okStyle.Render("Connection successful") + "\n\n" +
			detail + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("enter/esc back")
	}

	return style.Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m *Model) resetFormFields() {
	*m.vals = formValues{TLS: true}
}

func (m *Model) startEditForm(src model.SourceConfig) tea.Cmd {
	m.resetFormFields()
	m.vals.Name = src.Name
	m.vals.CredsFile = src.ConfigValue(model.ConfigKeyCredentialsFile)
	m.vals.IMAPHost = src.ConfigValue(model.ConfigKeyIMAPHost)
	m.vals.IMAPPort = src.ConfigValue(model.ConfigKeyIMAPPort)
	m.vals.Username = src.ConfigValue(model.ConfigKeyUsername)
	m.vals.Password = "" // Never pre-fill credentials
	m.vals.Mailbox = src.ConfigValue(model.ConfigKeyMailbox)
	m.vals.TLS = src.UseTLS()
	m.vals.FilePath = src.ConfigValue(model.ConfigKeyFilePath)

	switch src.Type {
	case string(model.SourceTypeGmail):
		m.mode = ModeFormGmail
		m.gmailForm = m.buildGmailForm()
		return m.gmailForm.Init()
	case string(model.SourceTypeIMAP):
		m.mode = ModeFormIMAP
		m.imapForm = m.buildIMAPForm()
		return m.imapForm.Init()
	case string(model.SourceTypeMbox):
		m.mode = ModeFormMbox
		m.mboxForm = m.buildMboxForm()
		return m.mboxForm.Init()
	default:
		return nil
	}
}

func (m Model) buildSourceConfig(sourceType string) model.SourceConfig {
	src := model.SourceConfig{
		Type:    sourceType,
		Name:    m.vals.Name,
		Enabled: true,
		Config:  make(map[string]string),
	}

	if m.editingSource != nil {
		src.ID = m.editingSource.ID
	} else {
		src.ID = uuid.New().String()
	}

	return src
}

// loadSources returns a command that loads all sources from the store.
func (m Model) loadSources() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		sources, err := s.GetSources(ctx)
		return sourcesLoadedMsg{sources: sources, err: err}
	}
}

// saveSource returns a command that persists a source to the store.
func (m Model) saveSource(src model.SourceConfig, hint string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		err := s.UpsertSource(ctx, src)
		return sourceSavedInternalMsg{source: src, hint: hint, err: err}
	}
}

// deleteSource returns a command that removes a source, its synced
// orders, and any stored credentials.
func (m Model) deleteSource(src model.SourceConfig) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		// Best-effort keyring cleanup; a source has at most one of these
		_ = credential.Delete(credential.PasswordKey(src.ID))
		_ = credential.Delete(credential.TokenKey(src.ID))

		if err := s.DeleteOrdersBySource(ctx, src.ID); err != nil {
			return sourceDeletedInternalMsg{id: src.ID, err: err}
		}

		err := s.DeleteSource(ctx, src.ID)
		return sourceDeletedInternalMsg{id: src.ID, err: err}
	}
}

// validateSource tests the connection for an existing source.
func (m Model) validateSource(src model.SourceConfig) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		adapter, err := createAdapter(src)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}

		name, err := adapter.ValidateConnection(ctx)
		return ValidateResultMsg{Name: name, Err: err}
	}
}

// validateAndSave validates the connection then saves the source if successful.
func (m Model) validateAndSave(src model.SourceConfig) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		adapter, err := createAdapter(src)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}

		name, err := adapter.ValidateConnection(ctx)
		if err != nil {
			return ValidateResultMsg{Name: name, Err: err}
		}

		// Validation passed; persist the source
		if saveErr := s.UpsertSource(ctx, src); saveErr != nil {
			return ValidateResultMsg{
				Name: name,
				Err:  fmt.Errorf("connection OK but save failed: %w", saveErr),
			}
		}

		return sourceSavedInternalMsg{source: src, err: nil}
	}
}

// createAdapter builds a source adapter from a stored configuration,
// resolving credentials through the keyring.
func createAdapter(src model.SourceConfig) (source.Source, error) {
	switch src.Type {
	case string(model.SourceTypeGmail):
		return gmail.NewAdapter(
			src.ConfigValue(model.ConfigKeyCredentialsFile),
			gmail.KeyringTokenStore{},
			src.ID,
		), nil

	case string(model.SourceTypeIMAP):
		password, err := credential.Get(credential.PasswordKey(src.ID))
		if err != nil {
			return nil, fmt.Errorf("credential not found: %w", err)
		}
		return imap.NewAdapter(
			src.ConfigValue(model.ConfigKeyIMAPHost),
			src.ConfigValue(model.ConfigKeyIMAPPort),
			src.ConfigValue(model.ConfigKeyUsername),
			password,
			src.UseTLS(),
			src.ConfigValue(model.ConfigKeyMailbox),
			src.ID,
		), nil

	case string(model.SourceTypeMbox):
		return mbox.NewAdapter(src.ConfigValue(model.ConfigKeyFilePath), src.ID), nil

	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

// sourceTypeIcon returns a text icon for a source type.
func sourceTypeIcon(sourceType string) string {
	switch sourceType {
	case string(model.SourceTypeGmail):
		return "[G]"
	case string(model.SourceTypeIMAP):
		return "[I]"
	case string(model.SourceTypeMbox):
		return "[M]"
	default:
		return "[?]"
	}
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}
