package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"

	"github.com/you-not-fish/basicc/internal/compiler"
	"github.com/you-not-fish/basicc/internal/syntax"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// dumpChars prints every classified character of filename.
func dumpChars(w io.Writer, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	c, err := syntax.NewClassifier(filename, f)
	if err != nil {
		return err
	}
	table := newTable(w, "POSITION", "CHAR", "CLASS")
	for {
		ch := c.Next()
		if ch.Ch == syntax.EOF {
			table.Append([]string{ch.Pos.String(), "EOF", ch.Class.String()})
			break
		}
		table.Append([]string{ch.Pos.String(), strconv.QuoteRune(ch.Ch), ch.Class.String()})
	}
	table.Render()
	return nil
}

// dumpTokens scans filename and prints all tokens with positions.
func dumpTokens(w io.Writer, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	c, err := syntax.NewClassifier(filename, f)
	if err != nil {
		return err
	}
	s := syntax.NewScanner(c)

	table := newTable(w, "POSITION", "TOKEN", "LITERAL")
	for {
		s.Next()
		if s.Err() != nil {
			break
		}
		table.Append([]string{s.Pos().String(), s.Token().String(), formatLiteral(s.Literal())})
		if s.Token().IsEOF() {
			break
		}
	}
	table.Render()
	return s.Err()
}

// formatLiteral formats a literal for display, escaping special characters.
func formatLiteral(lit string) string {
	if lit == "" {
		return ""
	}
	var b strings.Builder
	b.WriteRune('"')
	for _, r := range lit {
		switch r {
		case '\t':
			b.WriteString("\\t")
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune('"')
	return b.String()
}

// dumpAST parses filename and prints the statements parsed before the
// first error, if any.
func dumpAST(w io.Writer, filename, format string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	p, err := syntax.NewParser(filename, f)
	if err != nil {
		return err
	}
	stmts, perr := p.ParseProgram()

	switch format {
	case "json":
		if err := syntax.FprintJSON(w, stmts); err != nil {
			return err
		}
	case "raw":
		spew.Fdump(w, stmts)
	case "text":
		for _, s := range stmts {
			syntax.Fprint(w, s)
		}
	default:
		return fmt.Errorf("unknown AST format %q", format)
	}
	return perr
}

// dumpSymbols prints the storage layout of a compiled program.
func dumpSymbols(w io.Writer, res *compiler.Result) {
	table := newTable(w, "NAME", "SLOT", "OFFSET", "SIZE", "DIMS")
	for _, s := range res.Symbols {
		dims := "-"
		if s.Dims != nil {
			dims = strings.Trim(fmt.Sprint(s.Dims), "[]")
		}
		table.Append([]string{
			s.Name,
			strconv.Itoa(s.Slot),
			"#" + strconv.Itoa(4*s.Slot),
			strconv.Itoa(s.Size),
			dims,
		})
	}
	table.Render()

	if len(res.Functions) > 0 {
		fmt.Fprintf(w, "\nfunctions: FN %s\n", strings.Join(res.Functions, ", FN "))
	}
	if len(res.Helpers) > 0 {
		fmt.Fprintf(w, "helpers: %s\n", strings.Join(res.Helpers, ", "))
	}
	fmt.Fprintf(w, "variables: %d words\n", res.Words)
}
