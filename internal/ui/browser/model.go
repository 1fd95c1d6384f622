// File: internal/ui/browser/model.go
package browser

import (
	"blobnav/pkg/formatter"
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Navigator is the slice of the storage service the browser drives
type Navigator interface {
	ListEntries(ctx context.Context, providerName, containerName, path string) (storage.Listing, error)
	ResolveHandle(ctx context.Context, providerName, rawURL string) (storage.BlobHandle, error)
	ParentPath(path string) string
	DownloadTo(ctx context.Context, providerName, containerName, fullName, dest string) (string, error)
	DeleteBlob(ctx context.Context, providerName, containerName, fullName string) error
}

type listingMsg struct {
	listing storage.Listing
	err     error
}

type resolvedMsg struct {
	handle storage.BlobHandle
	err    error
}

type downloadedMsg struct {
	path string
	err  error
}

type deletedMsg struct {
	handle storage.BlobHandle
	err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	folderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model browses one container of one provider, a folder level at a time
type Model struct {
	ctx         context.Context
	nav         Navigator
	provider    string
	container   string
	downloadDir string

	path    string
	entries []storage.BlobHandle
	summary string
	cursor  int

	loading       bool
	confirmDelete bool
	status        string
	err           error
	spinner       spinner.Model
}

func New(ctx context.Context, nav Navigator, providerName, containerName, startPath, downloadDir string) Model {
	return Model{
		ctx:         ctx,
		nav:         nav,
		provider:    providerName,
		container:   containerName,
		downloadDir: downloadDir,
		path:        storage.ToQueryPrefix(startPath),
		loading:     true,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(m.path))
}

func (m Model) load(path string) tea.Cmd {
	return func() tea.Msg {
		listing, err := m.nav.ListEntries(m.ctx, m.provider, m.container, path)
		return listingMsg{listing: listing, err: err}
	}
}

func (m Model) enter(h storage.BlobHandle) tea.Cmd {
	return func() tea.Msg {
		handle, err := m.nav.ResolveHandle(m.ctx, m.provider, h.URL)
		return resolvedMsg{handle: handle, err: err}
	}
}

func (m Model) download(h storage.BlobHandle) tea.Cmd {
	return func() tea.Msg {
		path, err := m.nav.DownloadTo(m.ctx, m.provider, m.container, h.FullName(), m.downloadDir)
		return downloadedMsg{path: path, err: err}
	}
}

func (m Model) delete(h storage.BlobHandle) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{handle: h, err: m.nav.DeleteBlob(m.ctx, m.provider, m.container, h.FullName())}
	}
}

// Currently highlighted entry
func (m Model) Selected() (storage.BlobHandle, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return storage.BlobHandle{}, false
	}
	return m.entries[m.cursor], true
}

func (m Model) Path() string {
	return m.path
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case listingMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.path = msg.listing.Path
		m.entries = msg.listing.All()
		m.summary = formatter.Summary(msg.listing)
		if m.cursor >= len(m.entries) {
			m.cursor = max(len(m.entries)-1, 0)
		}
		return m, nil

	case resolvedMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			return m, nil
		}
		m.cursor = 0
		return m, m.load(msg.handle.FullName())

	case downloadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = "Downloaded to " + msg.path
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			return m, nil
		}
		m.status = "Deleted " + msg.handle.FullName()
		return m, m.load(m.path)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirmDelete {
		m.confirmDelete = false
		if key != "y" {
			m.status = "Delete cancelled"
			return m, nil
		}
		if h, ok := m.Selected(); ok {
			m.loading = true
			return m, m.delete(h)
		}
		return m, nil
	}

	// Ignore navigation while a request is in flight
	if m.loading && key != "q" {
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		h, ok := m.Selected()
		if !ok || h.IsFile {
			return m, nil
		}
		m.loading = true
		m.status = ""
		return m, m.enter(h)
	case "backspace", "left", "h":
		if m.path == "" {
			return m, nil
		}
		m.loading = true
		m.status = ""
		m.cursor = 0
		return m, m.load(m.nav.ParentPath(m.path))
	case "r":
		m.loading = true
		return m, m.load(m.path)
	case "d":
		h, ok := m.Selected()
		if !ok || !h.IsFile {
			return m, nil
		}
		m.loading = true
		m.status = "Downloading " + h.Name() + "..."
		return m, m.download(h)
	case "x", "delete":
		h, ok := m.Selected()
		if !ok || !h.IsFile {
			return m, nil
		}
		m.confirmDelete = true
		m.status = fmt.Sprintf("Delete %s? (y/N)", h.FullName())
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s/%s", m.provider, m.container, m.path)))
	s.WriteString("\n\n")

	if m.path != "" {
		s.WriteString("  ..\n")
	}
	for i, h := range m.entries {
		line := h.Name()
		if h.IsFile {
			line = fmt.Sprintf("%-40s %10s", line, storage.FormatBytes(h.SizeBytes))
		} else {
			line = folderStyle.Render(line + storage.Delimiter)
		}

		if i == m.cursor {
			s.WriteString("> " + selectedStyle.Render(line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}
	if len(m.entries) == 0 && !m.loading {
		s.WriteString("  (empty)\n")
	}

	s.WriteString("\n")
	if m.loading {
		s.WriteString(m.spinner.View() + " Loading...\n")
	} else if m.summary != "" {
		s.WriteString(m.summary + "\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.status != "" {
		s.WriteString(m.status + "\n")
	}

	s.WriteString(helpStyle.Render("[enter] open  [backspace] up  [d] download  [x] delete  [r] refresh  [q] quit"))
	s.WriteString("\n")
	return s.String()
}

// Runs the browser full-screen until the user quits or ctx is cancelled
func Run(ctx context.Context, nav Navigator, providerName, containerName, startPath, downloadDir string) error {
	p := tea.NewProgram(
		New(ctx, nav, providerName, containerName, startPath, downloadDir),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
