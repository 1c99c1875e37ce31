package data

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const univariateTS = `# comment line
@problemName Toy
@timeStamps false
@missing true
@univariate true
@equalLength true
@seriesLength 4
@classLabel true 1 2
@data
1.0,2.0,3.0,4.0:1
4,?,2,1:2
`

const multivariateTS = `@problemName ToyMV
@timeStamps false
@univariate false
@dimensions 2
@equalLength false
@classLabel true walk run
@data
1,2,3:4,5,6:walk
1,2:3,4,5,6:run
`

func TestReadTS_Univariate(t *testing.T) {
	f, err := ReadTS(strings.NewReader(univariateTS))
	require.NoError(t, err)
	assert.Equal(t, "Toy", f.Name)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"dim_0"}, f.Columns)
	assert.Equal(t, DefaultTarget, f.Target)
	assert.Equal(t, []string{"1", "2"}, f.Labels)
	assert.Equal(t, []float64{1, 2, 3, 4}, f.X[0][0])
	assert.True(t, math.IsNaN(f.X[1][0][1]))
}

func TestReadTS_Multivariate(t *testing.T) {
	f, err := ReadTS(strings.NewReader(multivariateTS))
	require.NoError(t, err)
	assert.Equal(t, 2, f.X.NumDims())
	assert.False(t, f.X.EqualLength())
	assert.Equal(t, []float64{3, 4, 5, 6}, f.X[1][1])
	assert.Equal(t, []string{"run", "walk"}, f.ClassLabels())
}

func TestReadTS_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		line int
	}{
		{"undeclared label", "@classLabel true a b\n@data\n1,2:c\n", 3},
		{"bad number", "@classLabel true a\n@data\n1,x:a\n", 3},
		{"dimension count", "@dimensions 2\n@classLabel true a\n@data\n1,2:a\n", 4},
		{"series length", "@equalLength true\n@seriesLength 3\n@classLabel true a\n@data\n1,2:a\n", 5},
		{"timestamps", "@timeStamps true\n@data\n", 2},
		{"no data tag", "@problemName x\n", 1},
		{"stray text", "hello\n", 1},
		{"ragged dims", "@classLabel true a\n@data\n1:2:a\n1:a\n", 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ReadTS(strings.NewReader(c.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, c.line, pe.Line)
		})
	}
}

func TestWriteTS_RoundTrip(t *testing.T) {
	orig := Motions(8, 1)
	orig.X[0][2][5] = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, WriteTS(&buf, orig))
	assert.Contains(t, buf.String(), "@missing true")
	assert.Contains(t, buf.String(), "@dimensions 6")

	back, err := ReadTS(&buf)
	require.NoError(t, err)
	assert.Equal(t, orig.Name, back.Name)
	assert.Equal(t, orig.Labels, back.Labels)
	assert.True(t, math.IsNaN(back.X[0][2][5]))
	assert.Equal(t, orig.X[3][4], back.X[3][4])
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadUCRFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Old_TRAIN.txt")
	writeFile(t, path, "  1.0000000e+00  1.5 2.5 3.5\n\n -1.0000000e+00 0.5 NaN NaN\n")

	f, err := LoadUCRFile(path, "Old")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "-1"}, f.Labels)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, f.X[0][0])
	assert.Equal(t, []float64{0.5}, f.X[1][0], "trailing NaN padding is trimmed")

	bad := filepath.Join(dir, "Bad_TRAIN.tsv")
	writeFile(t, bad, "1\t1\t2\n2\tfoo\t3\n1\t1\t1\n")
	_, err = LoadUCRFile(bad, "Bad")
	assert.ErrorIs(t, err, ErrMalformed)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestStreamUCR_EarlyStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Long_TEST.tsv")
	var sb strings.Builder
	for range 500 {
		sb.WriteString("1\t0.1\t0.2\t0.3\n")
	}
	writeFile(t, path, sb.String())

	rows := make(chan Sample)
	done, err := StreamUCR(path, rows)
	require.NoError(t, err)
	first := <-rows
	assert.Equal(t, 1, first.Line)
	close(done)
	for range rows {
	}
}

func TestLoad_ResolutionOrder(t *testing.T) {
	root := t.TempDir()

	_, err := Load(root, "GunPoint", Train)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.Contains(t, err.Error(), "GunPoint_TRAIN.tsv")

	writeFile(t, filepath.Join(root, "GunPoint", "GunPoint_TRAIN.tsv"), "2\t1\t2\t3\n")
	f, err := LoadGunPoint(root, Train)
	require.NoError(t, err)
	assert.Equal(t, "GunPoint", f.Name)

	train, test := CylinderBellFunnel(6, 1), CylinderBellFunnel(3, 2)
	require.NoError(t, WriteDataset(root, "CBF", train, test))
	X, y, err := LoadXY(root, "CBF", Test)
	require.NoError(t, err)
	assert.Len(t, X, 3)
	assert.Equal(t, test.Labels, y)
}

func TestParseSplitAndDefaultRoot(t *testing.T) {
	s, err := ParseSplit("train")
	require.NoError(t, err)
	assert.Equal(t, Train, s)
	_, err = ParseSplit("validation")
	assert.Error(t, err)

	t.Setenv(DataDirEnv, "/srv/ucr")
	assert.Equal(t, "/srv/ucr", DefaultRoot())
	t.Setenv(DataDirEnv, "")
	assert.Equal(t, "data", DefaultRoot())
}

func TestSynthetic(t *testing.T) {
	cbf := CylinderBellFunnel(9, 42)
	assert.Equal(t, 9, cbf.Len())
	assert.Equal(t, 128, cbf.X.NumTimepoints())
	assert.Equal(t, []string{"bell", "cylinder", "funnel"}, cbf.ClassLabels())
	assert.Equal(t, cbf.X, CylinderBellFunnel(9, 42).X, "same seed, same data")

	m := Motions(8, 3)
	assert.Equal(t, 6, m.X.NumDims())
	assert.Equal(t, 100, m.X.NumTimepoints())
	assert.Len(t, m.ClassLabels(), 4)
}

func TestFrame_Head(t *testing.T) {
	f := CylinderBellFunnel(12, 1)
	h := f.Head(10)
	assert.Equal(t, 10, h.Len())
	assert.Len(t, h.Labels, 10)
	assert.Equal(t, 12, f.Head(50).Len())
	assert.True(t, f.HasColumn("class_val"))
	assert.True(t, f.HasColumn("dim_0"))
	assert.False(t, f.HasColumn("dim_1"))
}
