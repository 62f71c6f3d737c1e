package portal

import (
	"errors"
	"io"

	"github.com/ezlumper/haulpass-cli/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	render func(styles) string
	styles styles
	output string
}

func newModel(render func(styles) string) model {
	return model{
		render: render,
		styles: newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.render(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func run(render func(styles) string) (string, error) {
	p := tea.NewProgram(
		newModel(render),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}

// RenderOverview draws the member dashboard: identity, plan capabilities,
// credit balance and the recent-requests summary.
func RenderOverview(state application.SessionState, list application.RequestList, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderOverview(state, list, opts, s)
	})
}

// RenderRequests draws the full request history split into current and
// previous sections.
func RenderRequests(list application.RequestList, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderRequests(list, opts, s)
	})
}

// RenderStatement draws the billing history with aggregate totals. invoiceURL
// maps an item to its hosted invoice; pass nil to omit invoice lines.
func RenderStatement(statement application.Statement, invoiceURL func(id string) string, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderStatement(statement, invoiceURL, opts, s)
	})
}

// RenderTracking draws the live-tracking projection for the selected request.
func RenderTracking(state application.TrackingState, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderTracking(state, opts, s)
	})
}
