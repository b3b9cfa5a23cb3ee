package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ojsconvert/internal/config"
	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
	"git.home.luguber.info/inful/ojsconvert/internal/journal"
)

const legacyExport = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE issues SYSTEM "native.dtd">
<issues>
  <issue published="true" current="false">
    <title locale="en_US">Spring issue</title>
    <year>2016</year>
    <section>
      <title locale="en_US">Economics</title>
      <abbrev locale="en_US">ECO</abbrev>
      <article language="en">
        <title locale="en_US">Markets</title>
        <author primary_contact="true">
          <firstname>Grace</firstname>
          <lastname>Hopper</lastname>
          <email>grace@example.org</email>
        </author>
        <galley locale="en_US">
          <label>PDF</label>
          <file>
            <embed filename="markets.pdf" mime_type="application/pdf" encoding="base64">JVBERi0xLjQK</embed>
          </file>
        </galley>
      </article>
    </section>
  </issue>
</issues>`

// sandbox isolates a test from any configuration in the environment or working directory.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{config.EnvSchemaBase, config.EnvJournal, config.EnvMetricsFile} {
		t.Setenv(k, "")
	}
	return dir
}

// run parses args like main does and executes the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cli := &CLI{}
	g := &Global{Out: &buf}
	parser, err := kong.New(cli,
		kong.Name("ojsconvert"),
		kong.Vars{"version": "test"},
		kong.Bind(g),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	if err != nil {
		return buf.String(), err
	}
	err = ctx.Run(cli)
	return buf.String(), err
}

func writeLegacy(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "legacy.xml")
	require.NoError(t, os.WriteFile(path, []byte(legacyExport), 0o600))
	return path
}

func TestRoute(t *testing.T) {
	sandbox(t)

	out, err := run(t, "route", "--from", "3.1.0", "--to", "3.3.0")
	require.NoError(t, err)
	assert.Equal(t, "3.1.0 -> 3.1.1 -> 3.2.0 -> 3.3.0 (3 hops)\n", out)
}

func TestRoute_NotFound(t *testing.T) {
	sandbox(t)

	_, err := run(t, "route", "--from", "3.5.0", "--to", "2.4.8")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRoute))
	assert.Contains(t, err.Error(), "2.4.8 -> [3.0.0]")
}

func TestEdges(t *testing.T) {
	sandbox(t)

	out, err := run(t, "edges")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[0], "FROM"))
	assert.True(t, strings.HasPrefix(lines[1], "2.4.8"))

	out, err = run(t, "edges", "-f", "json")
	require.NoError(t, err)
	var views []edgeView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 9)
	assert.Equal(t, "3.4.0", views[8].From)
	assert.Equal(t, "3.5.0", views[8].To)
	assert.NotEmpty(t, views[8].Stage)

	out, err = run(t, "edges", "-f", "adjacency")
	require.NoError(t, err)
	assert.Contains(t, out, "3.4.0 -> [3.5.0]")
}

func TestEdges_RejectsUnknownFormat(t *testing.T) {
	sandbox(t)

	_, err := run(t, "edges", "-f", "yaml")
	require.Error(t, err)
}

func TestConvert_WritesOutputJournalAndMetrics(t *testing.T) {
	dir := sandbox(t)
	in := writeLegacy(t, dir)
	outPath := filepath.Join(dir, "out.xml")
	db := filepath.Join(dir, "journal.db")
	prom := filepath.Join(dir, "metrics", "ojsconvert.prom")

	_, err := run(t, "convert", "--from", "2.4.8", "--to", "3.5.0",
		"--in", in, "--out", outPath, "--journal", db, "--metrics-file", prom)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	xml := string(data)
	assert.Contains(t, xml, `xmlns="http://pkp.sfu.ca"`)
	assert.Contains(t, xml, "<publication")
	assert.NotContains(t, xml, "DOCTYPE")

	metrics, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "ojsconvert_hop_results_total")
	assert.Contains(t, string(metrics), `outcome="success"`)

	out, err := run(t, "history", "--journal", db, "-f", "json")
	require.NoError(t, err)
	var runs []journal.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, journal.StatusCompleted, runs[0].Status)
	assert.Equal(t, 9, runs[0].HopsCompleted)
	assert.Equal(t, "2.4.8", runs[0].From)

	out, err = run(t, "history", "--journal", db, "--run", runs[0].RunID)
	require.NoError(t, err)
	assert.Contains(t, out, journal.TypeRunStarted)
	assert.Contains(t, out, journal.TypeRunCompleted)
	assert.Equal(t, 11, strings.Count(out, "\n"))
}

func TestConvert_FailureWritesNothing(t *testing.T) {
	dir := sandbox(t)
	in := writeLegacy(t, dir)
	outPath := filepath.Join(dir, "out.xml")
	db := filepath.Join(dir, "journal.db")

	_, err := run(t, "convert", "--from", "3.5.0", "--to", "2.4.8",
		"--in", in, "--out", outPath, "--journal", db)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRoute))
	assert.NoFileExists(t, outPath)

	out, err := run(t, "history", "--journal", db)
	require.NoError(t, err)
	assert.Contains(t, out, journal.StatusFailed)
	assert.Contains(t, out, "route")
}

func TestConvert_MissingInput(t *testing.T) {
	dir := sandbox(t)

	_, err := run(t, "convert", "--from", "2.4.8", "--to", "3.0.0",
		"--in", filepath.Join(dir, "missing.xml"), "--out", filepath.Join(dir, "out.xml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestConvert_TraceGoesToOut(t *testing.T) {
	dir := sandbox(t)
	in := writeLegacy(t, dir)

	out, err := run(t, "convert", "--from", "2.4.8", "--to", "3.0.0",
		"--in", in, "--out", filepath.Join(dir, "out.xml"), "--trace")
	require.NoError(t, err)
	assert.Contains(t, out, "Resolved route")
	assert.Contains(t, out, "hop=")

	out, err = run(t, "convert", "--from", "2.4.8", "--to", "3.0.0",
		"--in", in, "--out", filepath.Join(dir, "out2.xml"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConvert_StrictWithoutGrammarsSkipsValidation(t *testing.T) {
	dir := sandbox(t)
	in := writeLegacy(t, dir)
	outPath := filepath.Join(dir, "out.xml")

	_, err := run(t, "convert", "--from", "2.4.8", "--to", "3.0.0",
		"--in", in, "--out", outPath, "--validate-strict", "--schema-base", filepath.Join(dir, "none"))
	require.NoError(t, err)
	assert.FileExists(t, outPath)
}

func TestConvert_UsesConfigFile(t *testing.T) {
	dir := sandbox(t)
	in := writeLegacy(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFilename),
		[]byte("journal:\n  path: from-config.db\n"), 0o600))

	_, err := run(t, "convert", "--from", "2.4.8", "--to", "3.0.0",
		"--in", in, "--out", filepath.Join(dir, "out.xml"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-config.db"))

	out, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, journal.StatusCompleted)
}

func TestConvert_BadConfigFails(t *testing.T) {
	dir := sandbox(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFilename),
		[]byte("logging:\n  format: xml\n"), 0o600))

	_, err := run(t, "edges")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestValidate_NoGrammar(t *testing.T) {
	dir := sandbox(t)
	in := writeLegacy(t, dir)

	_, err := run(t, "validate", "--schema-version", "2.4.8", "--in", in)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestHistory_RequiresJournal(t *testing.T) {
	sandbox(t)

	_, err := run(t, "history")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestHistory_UnknownRun(t *testing.T) {
	dir := sandbox(t)

	_, err := run(t, "history", "--journal", filepath.Join(dir, "j.db"), "--run", "nope")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryJournal))
}

func TestValidate_LegacyAgainstDTD(t *testing.T) {
	grammars, err := filepath.Abs("../../../test/testdata/grammars")
	require.NoError(t, err)
	dir := sandbox(t)
	in := writeLegacy(t, dir)

	out, err := run(t, "validate", "--schema-version", "2.4.8", "--in", in, "--schema-base", grammars)
	require.NoError(t, err)
	assert.Contains(t, out, "valid against 2.4.8")

	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte(strings.Replace(legacyExport, `published="true"`, `published="maybe"`, 1)), 0o600))

	out, err = run(t, "validate", "--schema-version", "2.4.8", "--in", bad, "--schema-base", grammars)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Contains(t, out, `Value "maybe" for attribute published of issue is not among the enumerated set (at /issues/issue)`)
}
