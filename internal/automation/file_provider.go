package automation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// Logger is the logging interface used by the automation package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// definitionExtensions are the file types a FileProvider reads.
var definitionExtensions = []string{".yaml", ".yml", ".json"}

// FileProvider serves the definitions found in a directory. Files are read
// in name order; a file that fails to parse is logged and skipped, and a
// definition already read from an earlier file wins.
type FileProvider[T provider.Element] struct {
	*provider.Static[T]

	dir    string
	parse  func(io.Reader) ([]T, error)
	logger Logger
}

// NewTypeFileProvider creates a provider of the module types in dir.
func NewTypeFileProvider(dir string, parser Parser, logger Logger) *FileProvider[*Descriptor] {
	return newFileProvider(dir, parser.ParseModuleTypes, logger)
}

// NewRuleFileProvider creates a provider of the rules in dir.
func NewRuleFileProvider(dir string, parser Parser, logger Logger) *FileProvider[*RuleDescriptor] {
	return newFileProvider(dir, parser.ParseRules, logger)
}

func newFileProvider[T provider.Element](dir string, parse func(io.Reader) ([]T, error), logger Logger) *FileProvider[T] {
	if logger == nil {
		logger = noopLogger{}
	}
	return &FileProvider[T]{
		Static: provider.NewStatic[T](),
		dir:    dir,
		parse:  parse,
		logger: logger,
	}
}

// Dir returns the directory the provider reads.
func (p *FileProvider[T]) Dir() string {
	return p.dir
}

// Load reads the directory and replaces the provider's content. It returns
// the number of definitions loaded. Only an unreadable directory is an
// error.
func (p *FileProvider[T]) Load() (int, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", p.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(definitionExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	var all []T
	for _, name := range names {
		path := filepath.Join(p.dir, name)
		items, err := p.readFile(path)
		if err != nil {
			p.logger.Warn("skipping definition file", "path", path, "error", err)
			continue
		}
		p.logger.Debug("definition file loaded", "path", path, "count", len(items))
		all = append(all, items...)
	}

	p.Replace(all)
	return len(p.GetAll()), nil
}

func (p *FileProvider[T]) readFile(path string) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the configured definitions directory
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	return p.parse(f)
}
