// Package topics provides a topic-based help system for Cobra CLI applications.
// Topics are plain text or markdown files read from any afero filesystem, so a
// binary can ship them embedded and still let tests point at a directory.
package topics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// optionPrefix marks topics that document a single flag.
const optionPrefix = "option-"

// Manager manages help topics for a Cobra application
type Manager struct {
	fs         afero.Fs
	dir        string
	topics     map[string]*Topic
	extensions []string
	renderer   Renderer
}

// Topic represents a help topic
type Topic struct {
	Name     string
	FilePath string
	Content  string
}

// Options configures the Manager
type Options struct {
	// Extensions is the list of file extensions to consider as topics.
	// Defaults to [".txt", ".md"].
	Extensions []string

	// Renderer formats topic content. Defaults to PlainRenderer.
	Renderer Renderer
}

// New creates a Manager reading topics below dir on fs.
func New(fs afero.Fs, dir string, opts Options) *Manager {
	m := &Manager{
		fs:         fs,
		dir:        dir,
		topics:     make(map[string]*Topic),
		extensions: opts.Extensions,
		renderer:   opts.Renderer,
	}
	if len(m.extensions) == 0 {
		m.extensions = []string{".txt", ".md"}
	}
	if m.renderer == nil {
		m.renderer = PlainRenderer{}
	}
	return m
}

// Load scans the topics directory. A missing directory yields no topics.
func (m *Manager) Load() error {
	if _, err := m.fs.Stat(m.dir); os.IsNotExist(err) {
		return nil
	}

	return afero.Walk(m.fs, m.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if !m.supported(ext) {
			return nil
		}

		content, err := afero.ReadFile(m.fs, path)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(path), ext)
		m.topics[name] = &Topic{
			Name:     name,
			FilePath: path,
			Content:  string(content),
		}
		return nil
	})
}

func (m *Manager) supported(ext string) bool {
	for _, e := range m.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Get retrieves a topic by name. Flag-style names (--set) also match the
// "option-" topic for that flag.
func (m *Manager) Get(name string) (*Topic, bool) {
	name = strings.TrimLeft(name, "-")

	if topic, ok := m.topics[name]; ok {
		return topic, true
	}
	topic, ok := m.topics[optionPrefix+name]
	return topic, ok
}

// Names returns all topic names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render writes a topic through the configured renderer.
func (m *Manager) Render(w io.Writer, topic *Topic) {
	fmt.Fprint(w, m.renderer.Render(topic.Content, filepath.Ext(topic.FilePath)))
}

// List writes the topic index, general topics first and flag topics after.
func (m *Manager) List(w io.Writer, program string) {
	names := m.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, "No help topics available.")
		return
	}

	var general, options []string
	for _, name := range names {
		if strings.HasPrefix(name, optionPrefix) {
			options = append(options, strings.TrimPrefix(name, optionPrefix))
		} else {
			general = append(general, name)
		}
	}

	fmt.Fprintln(w, "Available help topics:")
	if len(general) > 0 {
		fmt.Fprintln(w, "\nGeneral topics:")
		for _, name := range general {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	if len(options) > 0 {
		fmt.Fprintln(w, "\nOption topics:")
		for _, name := range options {
			fmt.Fprintf(w, "  --%s\n", name)
		}
	}
	fmt.Fprintf(w, "\nUse '%s help <topic>' to read about a specific topic.\n", program)
}

// Install loads the topics and replaces the root's help command and help
// function with topic-aware versions.
func Install(root *cobra.Command, fs afero.Fs, dir string, opts Options) (*Manager, error) {
	m := New(fs, dir, opts)
	if err := m.Load(); err != nil {
		return nil, fmt.Errorf("failed to scan topics: %w", err)
	}

	originalHelp := root.HelpFunc()
	program := root.Name()

	helpCmd := &cobra.Command{
		Use:   "help [command or topic]",
		Short: "Help about any command or topic",
		Long: `Help provides help for any command or topic in the application.
Simply type ` + program + ` help [path to command or topic] for full details.

To see all available help topics:
  ` + program + ` help topics`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			completions := []string{"topics"}
			for _, c := range root.Commands() {
				if !c.Hidden {
					completions = append(completions, c.Name())
				}
			}
			completions = append(completions, m.Names()...)
			return completions, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				originalHelp(root, nil)
				return
			}
			if args[0] == "topics" {
				m.List(out, program)
				return
			}
			if topic, ok := m.Get(args[0]); ok {
				m.Render(out, topic)
				return
			}

			// Commands are resolved the way cobra's own help command does.
			target, _, err := root.Find(args)
			if err != nil || target == nil || target == root {
				fmt.Fprintf(out, "Unknown help topic %q\n", strings.Join(args, " "))
				originalHelp(root, nil)
				return
			}
			originalHelp(target, nil)
		},
	}

	for _, c := range root.Commands() {
		if c.Name() == "help" {
			root.RemoveCommand(c)
			break
		}
	}
	root.SetHelpCommand(helpCmd)

	// "<root> --help <topic>" shows the topic; subcommand help is untouched.
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == root {
			for _, arg := range args {
				if strings.HasPrefix(arg, "-") {
					continue
				}
				if topic, ok := m.Get(arg); ok {
					m.Render(cmd.OutOrStdout(), topic)
					return
				}
				break
			}
		}
		originalHelp(cmd, args)
	})

	return m, nil
}
