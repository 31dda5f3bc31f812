package ioraxtax

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/gnames/gnbold/pkg/misclass"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOut = "7;tax=Arthropoda,Insecta,Diptera,Chironomidae,Chironomus,Chironomus_riparius;\t" +
	"Arthropoda,Insecta,Diptera,Chironomidae,Polypedilum,Polypedilum_nubifer\t" +
	"1.0,1.0,0.99,0.98,0.97,0.4\n" +
	"7;tax=Arthropoda,Insecta,Diptera,Chironomidae,Chironomus,Chironomus_riparius;\t" +
	"Arthropoda,Insecta,Diptera,Chironomidae,Chironomus,Chironomus_riparius\t" +
	"1.0,1.0,0.99,0.98,0.02,0.01\n" +
	"broken row\n" +
	"8;tax=Arthropoda,Insecta,Diptera,Chironomidae,Chironomus,Chironomus_riparius;\t" +
	"Arthropoda,Insecta,Diptera,Chironomidae,Chironomus,Chironomus_riparius\t" +
	"1.0,1.0,1.0,1.0,0.95,0.9\n"

func query(id int64, seq string) misclass.Query {
	var t specimen.Taxonomy
	t.Set(specimen.Kingdom, "Animalia")
	t.Set(specimen.Phylum, "Arthropoda")
	t.Set(specimen.Class, "Insecta")
	t.Set(specimen.Order, "Diptera")
	t.Set(specimen.Family, "Chironomidae")
	t.Set(specimen.Genus, "Chironomus")
	t.Set(specimen.Species, "Chironomus riparius")
	return misclass.Query{ID: id, Sequence: seq, Lineage: t}
}

func TestReadResults(t *testing.T) {
	assert := assert.New(t)
	res, err := readResults(strings.NewReader(sampleOut))
	require.Nil(t, err)
	require.Equal(t, 2, len(res))

	assert.Equal(int64(7), res[0].ID)
	assert.Equal("Polypedilum", res[0].Lineage.Name(specimen.Genus))
	assert.Equal("Polypedilum nubifer", res[0].Lineage.Name(specimen.Species))
	assert.Equal("", res[0].Lineage.Name(specimen.Kingdom))
	assert.InDelta(0.97, res[0].Scores[specimen.Genus], 1e-9)

	assert.Equal(int64(8), res[1].ID)
	assert.Equal("Chironomus", res[1].Lineage.Name(specimen.Genus))
}

func TestHeader(t *testing.T) {
	q := query(12, "ACGT")
	assert.Equal(t,
		"12;tax=Arthropoda,Insecta,Diptera,Chironomidae,Chironomus,Chironomus_riparius;",
		header(q),
	)
}

func TestWriteQueryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.fasta")
	err := writeQueryFile(path, []misclass.Query{
		query(1, "ACGT"),
		query(2, ""),
	})
	require.Nil(t, err)
	bs, err := os.ReadFile(path)
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], ">1;tax="))
	assert.Equal(t, "ACGT", lines[1])
}

func TestNewSetupError(t *testing.T) {
	_, err := New("no-such-raxtax-binary", "missing.fasta")
	assert.NotNil(t, err)

	dir := t.TempDir()
	script := fakeRaxtax(t, dir)
	_, err = New(script, filepath.Join(dir, "missing.fasta"))
	assert.NotNil(t, err)
}

func TestClassify(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script is not supported")
	}
	dir := t.TempDir()
	script := fakeRaxtax(t, dir)
	db := filepath.Join(dir, "ref.fasta")
	require.Nil(t, os.WriteFile(db, []byte(">1;tax=a,b,c,d,e,f;\nACGT\n"), 0644))

	c, err := New(script, db)
	require.Nil(t, err)

	res, err := c.Classify(context.Background(), []misclass.Query{
		query(7, "ACGTACGT"),
		query(8, "ACGTACGA"),
	})
	require.Nil(t, err)
	require.Equal(t, 2, len(res))
	assert.Equal(t, "Polypedilum", res[0].Lineage.Name(specimen.Genus))
}

func TestClassifyFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script is not supported")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "raxtax")
	body := "#!/bin/sh\necho 'database is corrupt' >&2\nexit 3\n"
	require.Nil(t, os.WriteFile(script, []byte(body), 0755))
	db := filepath.Join(dir, "ref.fasta")
	require.Nil(t, os.WriteFile(db, nil, 0644))

	c, err := New(script, db)
	require.Nil(t, err)
	_, err = c.Classify(context.Background(), []misclass.Query{query(7, "ACGT")})
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "database is corrupt")
}

// fakeRaxtax writes a script that mimics the raxtax output layout.
func fakeRaxtax(t *testing.T, dir string) string {
	t.Helper()
	out := filepath.Join(dir, "sample.out")
	require.Nil(t, os.WriteFile(out, []byte(sampleOut), 0644))

	script := filepath.Join(dir, "raxtax")
	body := `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -i) query="$2"; shift ;;
  esac
  shift
done
res="${query%.fasta}.out"
mkdir -p "$res"
cp "` + out + `" "$res/raxtax.out"
`
	require.Nil(t, os.WriteFile(script, []byte(body), 0755))
	return script
}
