package e2e

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/you-not-fish/basicc/internal/compiler"
)

// TestE2E runs end-to-end tests for all .bas files in testdata/.
// Each test:
//  1. Compiles the program to an assembly listing (in-process)
//  2. Assembles the listing and runs it on the simulated machine
//  3. Prints every variable in allocation order
//  4. Compares the dump against the .golden file
func TestE2E(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*.bas")
	if err != nil {
		t.Fatal(err)
	}
	if len(testFiles) == 0 {
		t.Fatal("no .bas test files found in testdata/")
	}

	for _, testFile := range testFiles {
		name := strings.TrimSuffix(filepath.Base(testFile), ".bas")
		t.Run(name, func(t *testing.T) {
			runE2ETest(t, testFile)
		})
	}
}

// runE2ETest runs a single end-to-end test.
func runE2ETest(t *testing.T, basFile string) {
	t.Helper()

	goldenFile := strings.TrimSuffix(basFile, ".bas") + ".golden"
	expected, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}

	// Step 1: Compile .bas -> .s.
	outFile := filepath.Join(t.TempDir(), "out.s")
	res, err := compiler.CompileFile(basFile, outFile, compiler.DefaultConfig)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := os.Stat(outFile); err != nil {
		t.Fatalf("listing not written: %v", err)
	}

	// Step 2: Run on the simulator.
	ex, err := compiler.Execute(res, compiler.DefaultConfig)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, res.Listing)
	}

	// Step 3: Compare the variable dump.
	var got bytes.Buffer
	for _, s := range res.Symbols {
		vals := ex.Values[s.Name]
		if s.Dims == nil {
			fmt.Fprintf(&got, "%s = %d\n", s.Name, vals[0])
		} else {
			fmt.Fprintf(&got, "%s = %v\n", s.Name, vals)
		}
	}
	if want := string(expected); got.String() != want {
		t.Errorf("output mismatch (-want +got):\n%s", diff.Diff(want, got.String()))
	}
}
