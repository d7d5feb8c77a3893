// Package vmdl provides parsing capabilities for VMDL documents.
package vmdl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// MaxLineSize is the longest line the Scanner accepts.
const MaxLineSize = 1024 * 1024

// Scanner wraps a bufio.Scanner with line numbering.
type Scanner struct {
	*bufio.Scanner
	lineNum int
}

// NewScanner creates a new Scanner from an io.Reader.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Scanner{Scanner: s}
}

// NextLine advances the scanner and returns the current line number and text.
func (s *Scanner) NextLine() (int, string, bool) {
	if !s.Scan() {
		return s.lineNum, "", false
	}
	s.lineNum++
	return s.lineNum, s.Text(), true
}

// ContextPolicy decides when an object context entered with "key:" ends.
type ContextPolicy int

const (
	// ContextDeepen keeps every entered context active until the end of the
	// document. Siblings of an object must be written with dotted keys.
	ContextDeepen ContextPolicy = iota

	// ContextIndent leaves a context once a line is indented no deeper than
	// the line that declared it.
	ContextIndent
)

func (p ContextPolicy) String() string {
	if p == ContextIndent {
		return "indent"
	}
	return "deepen"
}

// Parser provides configurable parsing functionality.
type Parser struct {
	policy        ContextPolicy
	indentFunc    func(string) int
	skipEmptyLine func(string) bool
	skipComment   func(string) bool
	logger        *slog.Logger
}

// NewParser creates a new Parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		policy:        ContextDeepen,
		indentFunc:    countIndent,
		skipEmptyLine: func(line string) bool { return strings.TrimSpace(line) == "" },
		skipComment:   func(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), "#") },
		logger:        slog.New(slog.DiscardHandler),
	}
}

// WithContextPolicy configures how object contexts are closed.
func (p *Parser) WithContextPolicy(policy ContextPolicy) *Parser {
	p.policy = policy
	return p
}

// WithIndentFunc configures how the indentation of a raw line is measured.
// Only ContextIndent consults it.
func (p *Parser) WithIndentFunc(fn func(string) int) *Parser {
	if fn != nil {
		p.indentFunc = fn
	}
	return p
}

// WithSkipEmptyLine configures the empty line skip function.
func (p *Parser) WithSkipEmptyLine(fn func(string) bool) *Parser {
	if fn != nil {
		p.skipEmptyLine = fn
	}
	return p
}

// WithSkipComment configures the comment skip function.
func (p *Parser) WithSkipComment(fn func(string) bool) *Parser {
	if fn != nil {
		p.skipComment = fn
	}
	return p
}

// WithLogger sets the logger used for debug tracing of context changes.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Parse parses a VMDL document with the default parser.
func Parse(content string) (Value, error) {
	return NewParser().Parse(content)
}

// Parse parses a VMDL document held in memory.
func (p *Parser) Parse(content string) (Value, error) {
	return p.ParseReader(strings.NewReader(content))
}

// ParseReader parses a VMDL document from an io.Reader. The first malformed
// line or key conflict aborts the parse and no partial tree is returned.
func (p *Parser) ParseReader(r io.Reader) (Value, error) {
	flat, err := p.flatten(NewScanner(r))
	if err != nil {
		return Value{}, err
	}
	return buildHierarchy(flat)
}

// frame is an object context entered by a "key:" line.
type frame struct {
	path   string
	indent int
}

// flatten resolves every line to its dotted key-path. Later lines overwrite
// earlier ones at the same path.
func (p *Parser) flatten(scanner *Scanner) (map[string]string, error) {
	flat := make(map[string]string)
	var stack []frame

	for {
		lineNum, line, ok := scanner.NextLine()
		if !ok {
			break
		}

		if p.skipEmptyLine(line) || p.skipComment(line) {
			continue
		}

		trimmed := strings.TrimSpace(line)
		sep := strings.IndexAny(trimmed, "=:")
		if sep < 0 {
			return nil, malformedLine(lineNum, line)
		}
		key := strings.TrimSpace(trimmed[:sep])
		value := strings.TrimSpace(trimmed[sep+1:])

		indent := 0
		if p.policy == ContextIndent {
			indent = p.indentFunc(line)
			for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
				p.logger.Debug("leaving object context",
					"path", stack[len(stack)-1].path,
					"line", lineNum,
				)
				stack = stack[:len(stack)-1]
			}
		}

		fullPath := key
		if len(stack) > 0 {
			fullPath = stack[len(stack)-1].path + "." + key
		}
		flat[fullPath] = value

		if trimmed[sep] == ':' && value == "" {
			p.logger.Debug("entering object context",
				"path", fullPath,
				"line", lineNum,
				"policy", p.policy.String(),
			)
			stack = append(stack, frame{path: fullPath, indent: indent})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", scanner.lineNum+1, err)
	}
	return flat, nil
}

// countIndent counts leading spaces and tabs.
func countIndent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
