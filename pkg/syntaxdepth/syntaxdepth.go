// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package syntaxdepth computes per-line brace depth from a Tree-sitter
// syntax tree, so the naive character count in package scanner can be
// checked against it.
//
// Only '{' and '}' punctuation tokens are counted. Braces inside strings,
// template literals, regex literals and comments are not tokens of their own
// in the tree and are ignored without any special handling. The '}' that
// closes a template substitution pairs with '${' and is skipped.
package syntaxdepth

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/scopeprobe/pkg/scanner"
)

// Language is a grammar supported by the Analyzer.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangGo         Language = "go"
)

var extLanguages = map[string]Language{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".go":  LangGo,
}

// LanguageForPath picks a grammar from the file extension.
func LanguageForPath(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extLanguages[ext]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("no grammar for %q files", ext)
}

// Analyzer parses source and reports brace depth per line.
// It is safe for concurrent use.
type Analyzer struct {
	logger *slog.Logger

	// Parsers are not thread-safe; pool one set per language.
	pools map[Language]*sync.Pool
}

// NewAnalyzer creates an Analyzer. A nil logger uses slog.Default().
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	grammars := map[Language]*sitter.Language{
		LangTypeScript: typescript.GetLanguage(),
		LangTSX:        tsx.GetLanguage(),
		LangJavaScript: javascript.GetLanguage(),
		LangGo:         golang.GetLanguage(),
	}
	a := &Analyzer{
		logger: logger,
		pools:  make(map[Language]*sync.Pool, len(grammars)),
	}
	for lang, grammar := range grammars {
		a.pools[lang] = &sync.Pool{New: func() any {
			p := sitter.NewParser()
			p.SetLanguage(grammar)
			return p
		}}
	}
	return a
}

// LineDepths returns the brace depth after each line of src. The result has
// one entry per line, split the same way as scanner.SplitLines, so "\r\n" and
// lone "\r" endings are treated as newlines.
func (a *Analyzer) LineDepths(ctx context.Context, lang Language, src []byte) ([]int, error) {
	pool, ok := a.pools[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)

	// Tree-sitter only advances rows on '\n'.
	src = []byte(scanner.NormalizeNewlines(string(src)))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		a.logger.Warn("syntaxdepth.syntax_errors",
			"language", string(lang),
			"error_count", countErrors(root),
		)
	}

	lines := lineCount(src)
	deltas := make([]int, lines)
	walkBraces(root, func(row uint32, delta int) {
		if int(row) < lines {
			deltas[row] += delta
		}
	})

	depths := make([]int, lines)
	depth := 0
	for i, d := range deltas {
		depth += d
		depths[i] = depth
	}
	return depths, nil
}

// walkBraces visits every '{' and '}' token in the tree.
func walkBraces(node *sitter.Node, visit func(row uint32, delta int)) {
	if node == nil || node.IsMissing() {
		return
	}
	count := int(node.ChildCount())
	if count == 0 {
		switch node.Type() {
		case "{":
			visit(node.StartPoint().Row, 1)
		case "}":
			if parent := node.Parent(); parent == nil || parent.Type() != "template_substitution" {
				visit(node.StartPoint().Row, -1)
			}
		}
		return
	}
	for i := 0; i < count; i++ {
		walkBraces(node.Child(i), visit)
	}
}

func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	n := 0
	if node.IsError() || node.IsMissing() {
		n++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		n += countErrors(node.Child(i))
	}
	return n
}

// lineCount matches scanner.SplitLines for newline-normalized src: a trailing
// newline does not start an extra line.
func lineCount(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := strings.Count(string(src), "\n")
	if src[len(src)-1] != '\n' {
		n++
	}
	return n
}

// Divergence marks the first line of a run where the heuristic depth and the
// syntax tree depth disagree.
type Divergence struct {
	Line      int `json:"line"` // 1-based
	Heuristic int `json:"heuristic"`
	Syntax    int `json:"syntax"`
}

// String renders the divergence as a diagnostic line.
func (d Divergence) String() string {
	return fmt.Sprintf("Depth diverges at line %d: heuristic %d, syntax %d", d.Line, d.Heuristic, d.Syntax)
}

// Compare reports one Divergence per run of lines where heuristic and syntax
// differ. A new run starts when the two agree again and then differ, or when
// the size of the difference changes.
func Compare(heuristic, syntax []int) []Divergence {
	n := len(heuristic)
	if len(syntax) < n {
		n = len(syntax)
	}
	var out []Divergence
	prevDiff := 0
	for i := 0; i < n; i++ {
		diff := heuristic[i] - syntax[i]
		if diff != 0 && diff != prevDiff {
			out = append(out, Divergence{Line: i + 1, Heuristic: heuristic[i], Syntax: syntax[i]})
		}
		prevDiff = diff
	}
	return out
}
