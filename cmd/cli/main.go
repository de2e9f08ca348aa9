package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tensorplex-labs/outrank/internal/config"
	"github.com/tensorplex-labs/outrank/internal/problem"
	"github.com/tensorplex-labs/outrank/internal/ranking"
	"github.com/tensorplex-labs/outrank/internal/scoring"
)

type model struct {
	choices []scoring.Method
	cursor  int
	doc     *problem.Problem
	engine  *scoring.Engine
	output  string
}

// initialModel loads the problem named on the command line, or the built-in
// example when none is given.
func initialModel(args []string) (*model, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}

	doc := problem.Example()
	if len(args) > 0 {
		if doc, err = problem.Load(args[0]); err != nil {
			return nil, err
		}
	}

	return &model{
		choices: []scoring.Method{scoring.MethodPrometheeII, scoring.MethodProsaC},
		doc:     doc,
		engine:  scoring.NewEngine(opts...),
	}, nil
}

func (m *model) score(method scoring.Method) string {
	in, err := m.doc.Input()
	if err != nil {
		return fmt.Sprintf("Error building input: %v\n", err)
	}

	engine := *m.engine
	engine.Method = method
	scores, err := engine.Score(in)
	if err != nil {
		return fmt.Sprintf("Error scoring %s: %v\n", m.doc.Name, err)
	}

	var b strings.Builder
	title := fmt.Sprintf("%s (%s)", m.doc.Name, method)
	if err := scoring.WriteReport(&b, title, m.doc.Labels(), scores, ranking.Rank(scores, true)); err != nil {
		return fmt.Sprintf("Error writing report: %v\n", err)
	}
	return b.String()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint
	switch msg := msg.(type) { //nolint
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}

		case "enter":
			m.output = m.score(m.choices[m.cursor])
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *model) View() string {
	if m.output != "" {
		return m.output
	}

	s := fmt.Sprintf("Score %q (%d alternatives, %d criteria) with:\n\n",
		m.doc.Name, len(m.doc.Matrix), len(m.doc.Criteria))

	for i, choice := range m.choices {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		s += fmt.Sprintf("%s %s\n", cursor, choice)
	}

	s += "\nPress q to quit.\n"
	return s
}

func (m *model) Init() tea.Cmd {
	return nil
}

func main() {
	m, err := initialModel(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
