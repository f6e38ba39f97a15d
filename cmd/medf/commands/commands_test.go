package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/medf/am"
	"github.com/teranos/medf/errors"
	"github.com/teranos/medf/hashtree"
	"github.com/teranos/medf/medf"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()
	os.Exit(m.Run())
}

// workspace isolates HOME and the working directory and returns the latter.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	chdir(t, dir)
	am.Reset()
	t.Cleanup(am.Reset)
	return dir
}

// resetFlags restores every flag of cmd and its children to its default.
// Commands are package globals, so values would otherwise leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type runResult struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) runResult {
	t.Helper()
	resetFlags(RootCmd)
	var stdout, stderr bytes.Buffer
	code := Main(args, &stdout, &stderr)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func mustRun(t *testing.T, args ...string) runResult {
	t.Helper()
	r := run(t, args...)
	require.Equal(t, ExitOK, r.code, "medf %v\nstdout: %s\nstderr: %s", args, r.stdout, r.stderr)
	return r
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

// packedFile writes a packed template document and returns its path.
func packedFile(t *testing.T, name string) string {
	t.Helper()
	mustRun(t, "init", "--out", name, "--id", "doc-1")
	mustRun(t, "pack", name)
	return name
}

func editBlock(t *testing.T, path, id, text string) {
	t.Helper()
	doc, err := medf.Load(path)
	require.NoError(t, err)
	doc.Block(id).Text = text
	require.NoError(t, medf.Save(path, doc))
}

func TestInitPackVerify(t *testing.T) {
	workspace(t)

	r := mustRun(t, "init", "--out", "doc.json")
	assert.Contains(t, r.stdout, "[OK] wrote doc.json")

	r = mustRun(t, "pack", "doc.json")
	assert.Contains(t, r.stdout, "[OK] packed doc.json")
	assert.Contains(t, r.stdout, "blocks: 1")

	r = mustRun(t, "verify", "doc.json")
	assert.Contains(t, r.stdout, "[OK] doc.json: ok")
	assert.Contains(t, r.stdout, "signature: absent")

	r = mustRun(t, "verify", "doc.json", "--json")
	out := decodeJSON(t, r.stdout)
	assert.Equal(t, "doc.json", out["file"])
	assert.Equal(t, "ok", out["outcome"])
	assert.Equal(t, "absent", out["signature"])
	assert.Equal(t, "not-applicable", out["trust_decision"])
}

func TestInit_Stdout(t *testing.T) {
	workspace(t)

	r := mustRun(t, "init", "--id", "notice-42", "--issuer", "city-hall")
	doc, err := medf.Parse([]byte(r.stdout))
	require.NoError(t, err)
	assert.Equal(t, "notice-42", doc.ID)
	assert.Equal(t, "city-hall", doc.Issuer)
	assert.Equal(t, medf.CurrentVersion, doc.Version)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "Hello MEDF", doc.Blocks[0].Text)
	assert.False(t, doc.IsHashed())
}

func TestInit_RefusesOverwrite(t *testing.T) {
	workspace(t)
	mustRun(t, "init", "--out", "doc.json")

	r := run(t, "init", "--out", "doc.json")
	assert.Equal(t, ExitOperational, r.code)
	assert.Contains(t, r.stderr, "--force")

	mustRun(t, "init", "--out", "doc.json", "--force")
}

func TestInit_UsesConfiguredDefaults(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("medf.toml", []byte(`
[document]
issuer = "records-office"
document_type = "report"
language = "en"
format = "text"
`), 0644))

	r := mustRun(t, "init")
	doc, err := medf.Parse([]byte(r.stdout))
	require.NoError(t, err)
	assert.Equal(t, "records-office", doc.Issuer)
	assert.Equal(t, "report", doc.DocumentType)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "text", doc.Blocks[0].Format)
}

func TestVerify_TamperedBlock(t *testing.T) {
	workspace(t)
	path := packedFile(t, "doc.json")
	editBlock(t, path, "example", "Hello MEDF!")

	r := run(t, "verify", path)
	assert.Equal(t, ExitFailed, r.code)
	assert.Contains(t, r.stdout, "[NG] doc.json: block-hash-mismatch")
	assert.Contains(t, r.stdout, "block: example")
	assert.NotContains(t, r.stderr, "Error:")

	r = run(t, "verify", path, "--json")
	assert.Equal(t, ExitFailed, r.code)
	out := decodeJSON(t, r.stdout)
	assert.Equal(t, "block-hash-mismatch", out["outcome"])
	assert.Equal(t, "example", out["block_id"])
	assert.Len(t, out["expected"], 64, "JSON output carries full digests")
}

func TestVerify_Unpacked(t *testing.T) {
	workspace(t)
	mustRun(t, "init", "--out", "doc.json")

	r := run(t, "verify", "doc.json", "--explain")
	assert.Equal(t, ExitFailed, r.code)
	assert.Contains(t, r.stdout, "missing-hash")
	assert.Contains(t, r.stdout, "run 'medf pack'")
}

func TestVerify_OperationalErrors(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("broken.json", []byte(`{"medf_version":`), 0644))
	require.NoError(t, os.WriteFile("future.json", []byte(
		`{"medf_version":"9.0","id":"x","snapshot":"2026-01-01T00:00:00Z","blocks":[]}`), 0644))

	for _, args := range [][]string{
		{"verify", "missing.json"},
		{"verify", "broken.json"},
		{"verify", "future.json"},
		{"verify"},
	} {
		r := run(t, args...)
		assert.Equal(t, ExitOperational, r.code, "medf %v", args)
		assert.Contains(t, r.stderr, "Error:", "medf %v", args)
	}
}

func TestVerify_JSONReportsLoadErrors(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("stamped.json", []byte(
		`{"medf_version":"0.2","id":"x","snapshot":"2026-01-01T00:00:00Z","issued_at":"2026-01-01","blocks":[]}`), 0644))

	r := run(t, "verify", "missing.json", "--json")
	assert.Equal(t, ExitOperational, r.code)
	out := decodeJSON(t, r.stdout)
	assert.Equal(t, "missing.json", out["file"])
	assert.Contains(t, out["error"], "missing.json")
	assert.NotContains(t, out, "outcome")

	r = run(t, "verify", "stamped.json", "--json")
	assert.Equal(t, ExitOperational, r.code)
	out = decodeJSON(t, r.stdout)
	assert.Equal(t, "stamped.json", out["file"])
	assert.Contains(t, out["error"], "issued_at")
	assert.Contains(t, out["hints"], `move producer-specific fields under "extensions"`)
}

func TestVerify_HelpDescribesStrictKeys(t *testing.T) {
	workspace(t)

	r := mustRun(t, "verify", "--help")
	assert.Contains(t, r.stdout, "issued_at")
	assert.Contains(t, r.stdout, `Move producer-specific fields under "extensions"`)
}

// A document hashed by the reference Python tool with empty references and
// extensions verifies, and packing it again changes nothing.
func TestVerify_ReferenceToolDocument(t *testing.T) {
	src, err := filepath.Abs(filepath.Join("..", "..", "..", "hashtree", "testdata", "empty-collections.medf.json"))
	require.NoError(t, err)
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	workspace(t)
	require.NoError(t, os.WriteFile("doc.json", data, 0644))

	r := mustRun(t, "verify", "doc.json")
	assert.Contains(t, r.stdout, "[OK] doc.json: ok")

	before, err := medf.Load("doc.json")
	require.NoError(t, err)
	mustRun(t, "pack", "doc.json")
	after, err := medf.Load("doc.json")
	require.NoError(t, err)
	assert.Equal(t, before.DocHash.Value, after.DocHash.Value)

	saved, err := os.ReadFile("doc.json")
	require.NoError(t, err)
	assert.Contains(t, string(saved), `"references": []`)
	assert.Contains(t, string(saved), `"extensions": {}`)
	mustRun(t, "verify", "doc.json")
}

func TestVerify_DigestWidth(t *testing.T) {
	workspace(t)
	path := packedFile(t, "doc.json")
	editBlock(t, path, "example", "changed")

	doc, err := medf.Load(path)
	require.NoError(t, err)
	stored := doc.Block("example").Hash.Value

	r := run(t, "verify", path)
	assert.Contains(t, r.stdout, stored[:12]+"…")
	assert.NotContains(t, r.stdout, stored)

	r = run(t, "verify", path, "--full")
	assert.Contains(t, r.stdout, stored)

	t.Setenv("MEDF_VERIFY_DIGEST_WIDTH", "0")
	am.Reset()
	r = run(t, "verify", path)
	assert.Contains(t, r.stdout, stored)
}

func TestSign_RequiresPackedDocument(t *testing.T) {
	workspace(t)
	mustRun(t, "keygen", "--out", "key.pem")
	mustRun(t, "init", "--out", "doc.json")
	before, err := os.ReadFile("doc.json")
	require.NoError(t, err)

	r := run(t, "sign", "doc.json", "--key", "key.pem")
	assert.Equal(t, ExitOperational, r.code)
	assert.Contains(t, r.stderr, "medf pack")

	after, err := os.ReadFile("doc.json")
	require.NoError(t, err)
	assert.Equal(t, before, after, "refused sign must leave the file untouched")
}

func TestSign_RequiresKey(t *testing.T) {
	workspace(t)
	path := packedFile(t, "doc.json")

	r := run(t, "sign", path)
	assert.Equal(t, ExitOperational, r.code)
	assert.Contains(t, r.stderr, "keygen")

	r = run(t, "sign", path, "--key", "absent.pem")
	assert.Equal(t, ExitOperational, r.code)
}

func TestKeygenSignVerify(t *testing.T) {
	workspace(t)

	r := mustRun(t, "keygen", "--out", "key.pem", "--json")
	did := decodeJSON(t, r.stdout)["public_key"].(string)
	assert.Regexp(t, `^did:key:z6Mk`, did)

	info, err := os.Stat("key.pem")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	path := packedFile(t, "doc.json")
	r = mustRun(t, "sign", path, "--key", "key.pem")
	assert.Contains(t, r.stdout, did)

	r = mustRun(t, "verify", path, "--json")
	out := decodeJSON(t, r.stdout)
	assert.Equal(t, "ok", out["outcome"])
	assert.Equal(t, "present-valid", out["signature"])
	assert.Equal(t, "not-evaluated", out["trust_decision"])

	r = mustRun(t, "verify", path, "--json", "--no-signature")
	out = decodeJSON(t, r.stdout)
	assert.Equal(t, "present-unverified", out["signature"])
	assert.NotEmpty(t, out["warnings"])

	r = run(t, "keygen", "--out", "key.pem")
	assert.Equal(t, ExitOperational, r.code, "keygen must not overwrite a key")
}

func TestSign_KeyPathFromEnvironment(t *testing.T) {
	workspace(t)
	mustRun(t, "keygen", "--out", "key.pem")
	path := packedFile(t, "doc.json")

	t.Setenv("MEDF_SIGNING_KEY_PATH", "key.pem")
	am.Reset()
	mustRun(t, "sign", path)

	doc, err := medf.Load(path)
	require.NoError(t, err)
	assert.True(t, doc.IsSigned())
}

func TestRepackAfterSign_InvalidatesSignature(t *testing.T) {
	workspace(t)
	mustRun(t, "keygen", "--out", "key.pem")
	path := packedFile(t, "doc.json")
	mustRun(t, "sign", path, "--key", "key.pem")

	editBlock(t, path, "example", "edited after signing")
	r := mustRun(t, "pack", path)
	assert.Contains(t, r.stdout, "run 'medf sign' again")

	r = run(t, "verify", path, "--json")
	assert.Equal(t, ExitFailed, r.code)
	out := decodeJSON(t, r.stdout)
	assert.Equal(t, "signature-invalid", out["outcome"])
	assert.Equal(t, "present-invalid", out["signature"])
}

func TestDiff(t *testing.T) {
	workspace(t)
	oldPath := packedFile(t, "v1.json")

	doc, err := medf.Load(oldPath)
	require.NoError(t, err)
	doc.Block("example").Text = "Hello again"
	doc.Blocks = append(doc.Blocks, medf.Block{ID: "appendix", Role: "body", Format: "markdown", Text: "more"})
	require.NoError(t, hashtree.Pack(doc))
	require.NoError(t, medf.Save("v2.json", doc))

	r := mustRun(t, "diff", "v1.json", "v2.json")
	assert.Contains(t, r.stdout, "~ example")
	assert.Contains(t, r.stdout, "+ appendix")
	assert.Contains(t, r.stdout, "1 changed, 1 added, 0 removed, 0 unchanged")

	r = mustRun(t, "diff", "v2.json", "v1.json", "--json")
	out := decodeJSON(t, r.stdout)
	assert.Equal(t, []any{"appendix"}, out["removed"])
	assert.Equal(t, []any{}, out["added"])
	require.Len(t, out["changed"], 1)

	r = run(t, "diff", "v1.json", "v2.json", "--exit-code")
	assert.Equal(t, ExitFailed, r.code)

	mustRun(t, "diff", "v1.json", "v1.json", "--exit-code")
}

func TestAliases(t *testing.T) {
	workspace(t)
	mustRun(t, "template", "--out", "doc.json")

	r := mustRun(t, "hash", "doc.json")
	assert.Contains(t, r.stdout, "packed doc.json")
	assert.Contains(t, r.stderr, "Deprecated command name")

	mustRun(t, "check", "doc.json")
	mustRun(t, "compare", "doc.json", "doc.json")

	r = mustRun(t, "verify", "doc.json")
	assert.NotContains(t, r.stderr, "Deprecated")
}

func TestResolveAlias(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		want      []string
		wantAlias string
	}{
		{"current name", []string{"verify", "a.json"}, []string{"verify", "a.json"}, ""},
		{"alias", []string{"check", "a.json"}, []string{"verify", "a.json"}, "check"},
		{"after flags", []string{"-vv", "--no-color", "hash", "a.json"}, []string{"-vv", "--no-color", "pack", "a.json"}, "hash"},
		{"config value skipped", []string{"--config", "check", "compare", "a", "b"}, []string{"--config", "check", "diff", "a", "b"}, "compare"},
		{"config inline value", []string{"--config=x.toml", "template"}, []string{"--config=x.toml", "init"}, "template"},
		{"only first word", []string{"verify", "check"}, []string{"verify", "check"}, ""},
		{"after terminator", []string{"--", "hash"}, []string{"--", "hash"}, ""},
		{"empty", nil, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, alias := ResolveAlias(tt.args)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAlias, alias)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailed, ExitCode(failed("x")))
	assert.Equal(t, ExitFailed, ExitCode(errors.Wrap(failed("x"), "context")))
	assert.Equal(t, ExitOperational, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitOperational, ExitCode(errors.ErrKey))

	workspace(t)
	r := run(t, "frobnicate")
	assert.Equal(t, ExitOperational, r.code)
}

func TestConvert(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("notice.md", []byte(`Issued by the records office.

# Road Closure {:id=closure}

Main Street closes on Monday.

## Detours

Use Oak Avenue.
<!-- summary: Main Street closure -->
`), 0644))

	r := mustRun(t, "convert", "notice.md", "notice.json",
		"--id", "notice-7", "--issuer", "city", "--type", "public_notice",
		"--language", "EN", "--reference", "https://example.org/a",
		"--reference", "https://example.org/b", "--snapshot", "2026-02-04T10:00:00Z", "--pack")
	assert.Contains(t, r.stdout, "converted notice.md -> notice.json")

	doc, err := medf.Load("notice.json")
	require.NoError(t, err)
	assert.Equal(t, "notice-7", doc.ID)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "public_notice", doc.DocumentType)
	assert.Equal(t, "2026-02-04T10:00:00Z", doc.Snapshot)
	assert.Equal(t, []string{"intro", "closure", "detours"}, doc.BlockIDs())
	require.Len(t, doc.References, 2)
	assert.Equal(t, "source", doc.References[1].Type)
	assert.NotNil(t, doc.Index)
	assert.True(t, doc.IsHashed())

	mustRun(t, "verify", "notice.json")
	mustRun(t, "validate", "notice.json")
}

func TestConvert_Errors(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("in.md", []byte("# Title\n"), 0644))

	assert.Equal(t, ExitOperational, run(t, "convert", "in.md", "out.json", "--snapshot", "yesterday").code)
	assert.Equal(t, ExitOperational, run(t, "convert", "in.md", "out.json", "--language", "not a tag").code)
	assert.Equal(t, ExitOperational, run(t, "convert", "absent.md", "out.json").code)

	mustRun(t, "convert", "in.md", "out.json")
	doc, err := medf.Load("out.json")
	require.NoError(t, err)
	assert.Len(t, doc.ID, 36, "default id is a UUID")
	assert.False(t, doc.IsHashed())

	assert.Equal(t, ExitOperational, run(t, "convert", "in.md", "out.json").code)
}

func TestValidate(t *testing.T) {
	dir := workspace(t)
	packedFile(t, "good.json")
	require.NoError(t, os.WriteFile("noid.json", []byte(
		`{"medf_version":"0.2.1","snapshot":"2026-01-01T00:00:00Z","blocks":[]}`), 0644))
	require.NoError(t, os.WriteFile("dupes.json", []byte(`{"medf_version":"0.2.1","id":"d","snapshot":"2026-01-01T00:00:00Z","blocks":[
{"block_id":"a","role":"body","format":"text","text":"1"},
{"block_id":"a","role":"body","format":"text","text":"2"}]}`), 0644))
	require.NoError(t, os.WriteFile("garbage.json", []byte(`not json`), 0644))

	r := mustRun(t, "validate", "good.json")
	assert.Contains(t, r.stdout, "[OK] good.json")

	r = run(t, "validate", "good.json", "noid.json", "dupes.json", "garbage.json", "--json")
	assert.Equal(t, ExitFailed, r.code)
	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &results))
	require.Len(t, results, 4)
	assert.Equal(t, true, results[0]["valid"])
	assert.Equal(t, "/", results[1]["path"])
	assert.Equal(t, "/blocks", results[2]["path"])
	assert.Equal(t, false, results[3]["valid"])

	assert.Equal(t, ExitOperational, run(t, "validate", "absent.json").code)
	assert.Equal(t, ExitOperational, run(t, "validate", "good.json", "--schema", filepath.Join(dir, "none.json")).code)
}

func TestConfigSetGetShow(t *testing.T) {
	dir := workspace(t)

	r := mustRun(t, "config", "set", "document.issuer", "acme")
	assert.Contains(t, r.stdout, filepath.Join(dir, "medf.toml"))

	r = mustRun(t, "config", "get", "document.issuer")
	assert.Equal(t, "acme\n", r.stdout)

	r = mustRun(t, "config", "show")
	assert.Contains(t, r.stdout, "[document]")
	assert.Contains(t, r.stdout, "acme")

	r = mustRun(t, "config", "show", "--format", "yaml")
	assert.Contains(t, r.stdout, "issuer: acme")

	r = mustRun(t, "config", "show", "--sources")
	assert.Contains(t, r.stdout, "document.issuer = acme")
	assert.Contains(t, r.stdout, "(project")

	assert.Equal(t, ExitOperational, run(t, "config", "get", "document.nope").code)
	assert.Equal(t, ExitOperational, run(t, "config", "set", "verify.digest_width", "-3").code)
	assert.Equal(t, ExitOperational, run(t, "config", "show", "--format", "xml").code)
}

func TestExplicitConfigFile(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("ci.toml", []byte("[verify]\ndigest_width = 0\n"), 0644))
	path := packedFile(t, "doc.json")

	doc, err := medf.Load(path)
	require.NoError(t, err)

	r := mustRun(t, "--config", "ci.toml", "pack", path)
	assert.Contains(t, r.stdout, doc.DocHash.Value)

	assert.Equal(t, ExitOperational, run(t, "--config", "absent.toml", "pack", path).code)
}

func TestVersion(t *testing.T) {
	workspace(t)

	r := mustRun(t, "version")
	assert.Contains(t, r.stdout, "medf ")
	assert.Contains(t, r.stdout, "format "+medf.CurrentVersion)

	r = mustRun(t, "version", "--json")
	out := decodeJSON(t, r.stdout)
	assert.Equal(t, medf.CurrentVersion, out["format_version"])
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup, mirroring testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(dir) {
		dir, err = os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("testing: chdir: " + err.Error())
		}
	})
}
