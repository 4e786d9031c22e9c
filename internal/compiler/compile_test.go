package compiler

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/basicc/internal/codegen"
	"github.com/you-not-fish/basicc/internal/semantic"
	"github.com/you-not-fish/basicc/internal/syntax"
)

func compile(t *testing.T, src string) (*Result, string) {
	t.Helper()
	var buf bytes.Buffer
	res, err := Compile("test.bas", strings.NewReader(src), &buf, DefaultConfig)
	require.NoError(t, err)
	return res, buf.String()
}

func execute(t *testing.T, src string, cfg Config) *Execution {
	t.Helper()
	var buf bytes.Buffer
	res, err := Compile("test.bas", strings.NewReader(src), &buf, cfg)
	require.NoError(t, err)
	ex, err := Execute(res, cfg)
	require.NoError(t, err, buf.String())
	return ex
}

func value(t *testing.T, ex *Execution, name string) int32 {
	t.Helper()
	v, ok := ex.Value(name)
	require.True(t, ok, "no variable %s", name)
	return v
}

var labelRE = regexp.MustCompile(`(?m)^(L\d+):$`)

func TestSkippedPrintHasNoLabel(t *testing.T) {
	res, out := compile(t, "10 LET A=1\n20 PRINT A\n30 END\n")

	var labels []string
	for _, m := range labelRE.FindAllStringSubmatch(out, -1) {
		labels = append(labels, m[1])
	}
	assert.Equal(t, []string{"L10", "L30"}, labels)
	assert.Contains(t, out, "L30:\n\tB        L30\n")
	assert.Equal(t, 3, res.Statements)
	assert.Empty(t, res.Helpers)
	assert.Equal(t, out, string(res.Listing))
}

func TestNoOutputOnError(t *testing.T) {
	tests := []struct {
		src    string
		target interface{}
	}{
		{"10 LET A = 1 @\n20 END\n", new(*syntax.LexicalError)},
		{"10 LET = 1\n20 END\n", new(*syntax.SyntaxError)},
		{"10 END\n10 END\n", new(*semantic.SemanticError)},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		_, err := Compile("test.bas", strings.NewReader(tt.src), &buf, DefaultConfig)
		require.Error(t, err, tt.src)
		assert.True(t, errors.As(err, tt.target), "%T", err)
		assert.Zero(t, buf.Len(), tt.src)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := DefaultConfig
	cfg.StackSize = 10
	_, err := Compile("test.bas", strings.NewReader("10 END\n"), &bytes.Buffer{}, cfg)
	assert.EqualError(t, err, "stack size 10 must be a positive multiple of 4")
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "prog.bas")
	require.NoError(t, os.WriteFile(in, []byte("10 LET A = 7 / 2\n20 END\n"), 0o644))

	out := filepath.Join(dir, "prog.s")
	res, err := CompileFile(in, out, DefaultConfig)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, res.Listing, data)
	assert.Equal(t, []string{"sdiv"}, res.Helpers)

	_, err = CompileFile(in, filepath.Join(dir, "missing", "prog.s"), DefaultConfig)
	var gerr *codegen.GenerationError
	require.ErrorAs(t, err, &gerr)

	_, err = CompileFile(filepath.Join(dir, "nope.bas"), out, DefaultConfig)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.bas")
	require.NoError(t, os.WriteFile(bad, []byte("10 GOTO 5\n20 END\n"), 0o644))
	badOut := filepath.Join(dir, "bad.s")
	_, err = CompileFile(bad, badOut, DefaultConfig)
	require.Error(t, err)
	_, statErr := os.Stat(badOut)
	assert.True(t, os.IsNotExist(statErr), "output written for failed compile")
}

func TestDivision(t *testing.T) {
	ex := execute(t, `
10 LET A = -7 / 2
20 LET B = 7 / 0
30 LET C = 100 / 7
40 LET D = (-9) / (-3)
50 LET E = 9 / (-4)
60 END
`, DefaultConfig)
	assert.Equal(t, int32(-3), value(t, ex, "A"))
	assert.Equal(t, int32(0), value(t, ex, "B"))
	assert.Equal(t, int32(14), value(t, ex, "C"))
	assert.Equal(t, int32(3), value(t, ex, "D"))
	assert.Equal(t, int32(-2), value(t, ex, "E"))
}

func TestPower(t *testing.T) {
	src := `
10 LET A = 2 ^ 3
20 LET B = 0 ^ 5
30 LET C = 5 ^ (-1)
40 LET D = 3 ^ 0
50 LET E = -2 ^ 3
60 LET F = 2 ^ 3 ^ 2
70 END
`
	ex := execute(t, src, DefaultConfig)
	assert.Equal(t, int32(8), value(t, ex, "A"))
	assert.Equal(t, int32(0), value(t, ex, "B"))
	assert.Equal(t, int32(0), value(t, ex, "C"))
	assert.Equal(t, int32(0), value(t, ex, "D"))
	assert.Equal(t, int32(-8), value(t, ex, "E"))
	assert.Equal(t, int32(512), value(t, ex, "F"))

	cfg := DefaultConfig
	cfg.PowZeroExponentOne = true
	ex = execute(t, src, cfg)
	assert.Equal(t, int32(1), value(t, ex, "D"))
	assert.Equal(t, int32(0), value(t, ex, "C"))
}

const loops = `
10 FOR I = 1 TO 10
20 LET S = S + I
30 NEXT I
40 FOR J = 10 TO 1 STEP -3
50 LET T = T + J
60 NEXT J
70 FOR K = 5 TO 1
80 LET U = U + 1
90 NEXT K
100 END
`

func TestLoops(t *testing.T) {
	ex := execute(t, loops, DefaultConfig)
	assert.Equal(t, int32(45), value(t, ex, "S"))
	assert.Equal(t, int32(10), value(t, ex, "I"))
	assert.Equal(t, int32(0), value(t, ex, "T"))
	assert.Equal(t, int32(10), value(t, ex, "J"))
	assert.Equal(t, int32(0), value(t, ex, "U"))
	assert.Equal(t, int32(5), value(t, ex, "K"))
}

func TestInclusiveLoops(t *testing.T) {
	cfg := DefaultConfig
	cfg.InclusiveFor = true
	ex := execute(t, loops, cfg)
	assert.Equal(t, int32(55), value(t, ex, "S"))
	assert.Equal(t, int32(11), value(t, ex, "I"))
	assert.Equal(t, int32(10+7+4+1), value(t, ex, "T"))
	assert.Equal(t, int32(-2), value(t, ex, "J"))
	assert.Equal(t, int32(0), value(t, ex, "U"))
	assert.Equal(t, int32(5), value(t, ex, "K"))
}

func TestNestedLoopsAndArrays(t *testing.T) {
	ex := execute(t, `
10 DIM M(3, 4)
20 DATA 7, 12, 23
30 READ M(0, 1), M(1, 2), M(2, 3)
40 LET S = 0
50 FOR I = 0 TO 3
60 FOR J = 0 TO 4
70 LET S = S + M(I, J)
80 NEXT J
90 NEXT I
100 LET X = M(2, 3) + M(1, 2)
110 END
`, DefaultConfig)
	assert.Equal(t, int32(42), value(t, ex, "S"))
	assert.Equal(t, int32(35), value(t, ex, "X"))
	m := ex.Values["M"]
	require.Len(t, m, 12)
	assert.Equal(t, int32(7), m[1])
	assert.Equal(t, int32(12), m[1*4+2])
	assert.Equal(t, int32(23), m[2*4+3])
	assert.Equal(t, int32(0), m[0])
}

func TestLeadingMinus(t *testing.T) {
	ex := execute(t, `
10 LET A = -2 + 5
20 LET B = -3 * 2 + 10
30 LET C = -1 - 1
40 LET D = -2 ^ 2
50 LET E = -(2 + 5)
60 END
`, DefaultConfig)
	assert.Equal(t, int32(3), value(t, ex, "A"))
	assert.Equal(t, int32(4), value(t, ex, "B"))
	assert.Equal(t, int32(-2), value(t, ex, "C"))
	assert.Equal(t, int32(-4), value(t, ex, "D"))
	assert.Equal(t, int32(-7), value(t, ex, "E"))
}

func TestDivideMinInt(t *testing.T) {
	cfg := DefaultConfig
	cfg.MaxSteps = 100_000
	ex := execute(t, `
10 DATA -2147483648, 2147483647
20 READ A, M
30 LET B = A / 2
40 LET C = A / 1
50 LET D = M / 2
60 END
`, cfg)
	assert.Equal(t, int32(-1073741824), value(t, ex, "B"))
	assert.Equal(t, int32(-2147483648), value(t, ex, "C"))
	assert.Equal(t, int32(1073741823), value(t, ex, "D"))
}

func TestListingHeader(t *testing.T) {
	_, out := compile(t, "10 END\n")
	assert.True(t, strings.HasPrefix(out, "/* BASIC COMPILER */\n/* source: test.bas */\n\t.global  main\nmain:\n"), out)
}

func TestGosubAndIf(t *testing.T) {
	ex := execute(t, `
10 LET N = 0
20 GOSUB 100
30 IF N < 5 THEN 20
40 LET D = N * 2
50 GOTO 200
100 LET N = N + 1
110 RETURN
200 END
`, DefaultConfig)
	assert.Equal(t, int32(5), value(t, ex, "N"))
	assert.Equal(t, int32(10), value(t, ex, "D"))
}

func TestReadDataAndFunctions(t *testing.T) {
	ex := execute(t, `
10 DIM V(3)
20 DATA 4, -9, 16
30 READ V(0), V(1), V(2)
40 DEF FN S(X, Y) = X * X + Y
50 LET A = FN S(V(0), 1)
60 LET B = ABS(V(1)) + SQR(V(2)) + INT(7)
70 LET C = SQR(2147395600) + SQR(-4)
80 END
`, DefaultConfig)
	assert.Equal(t, []int32{4, -9, 16}, ex.Values["V"])
	assert.Equal(t, int32(17), value(t, ex, "A"))
	assert.Equal(t, int32(9+4+7), value(t, ex, "B"))
	assert.Equal(t, int32(46340), value(t, ex, "C"))
}

func TestStepLimit(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig
	cfg.MaxSteps = 1000
	res, err := Compile("loop.bas", strings.NewReader("10 GOTO 20\n20 GOTO 10\n30 END\n"), &buf, cfg)
	require.NoError(t, err)
	_, err = Execute(res, cfg)
	assert.ErrorContains(t, err, "step limit exceeded")
}
