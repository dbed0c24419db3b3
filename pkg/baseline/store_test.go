package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/autorecon/pkg/engine"
)

const report = `<nmaprun><host><ports>
<port portid="22"><state state="open"/><service name="ssh"/></port>
<port portid="80"><state state="open"/><service name="http"/></port>
</ports></host></nmaprun>`

func TestStore_Path(t *testing.T) {
	s := NewStore("scans")
	assert.Equal(t, filepath.Join("scans", "baseline_192.168.1.1.xml"), s.Path("192.168.1.1"))
	assert.Equal(t, filepath.Join("scans", "baseline_"+SanitizeTarget("10.0.0.0/24")+".xml"), s.Path("10.0.0.0/24"))
	assert.Equal(t, "scans", filepath.Dir(s.Path("../etc/passwd")))
	assert.Equal(t, s.Path("host.example"), s.Path("host.example"))
}

func TestStore_LifeCycle(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "scans")
	s := NewStore(root)

	ok, err := s.Exists("10.0.0.5")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Load("10.0.0.5")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save("10.0.0.5", []byte(report)))

	ok, err = s.Exists("10.0.0.5")
	require.NoError(t, err)
	assert.True(t, ok)

	snap, err := s.Load("10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, []string{"22/ssh", "80/http"}, snap.Strings())
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Save("host", []byte(report)))

	replacement := `<nmaprun><host><ports><port portid="443"><state state="open"/><service name="https"/></port></ports></host></nmaprun>`
	require.NoError(t, s.Save("host", []byte(replacement)))
	require.NoError(t, s.Save("host", []byte(replacement)))

	snap, err := s.Load("host")
	require.NoError(t, err)
	assert.Equal(t, []string{"443/https"}, snap.Strings())
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	require.NoError(t, s.Save("a", []byte(report)))
	require.NoError(t, s.Save("b", []byte(report)))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"baseline_a.xml", "baseline_b.xml"}, names)
}

func TestStore_SaveFailure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := NewStore(filepath.Join(blocker, "scans"))
	err := s.Save("host", []byte(report))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailed)

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "mkdir", we.Op)
}

func TestStore_LoadMalformed(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Save("host", []byte("<nmaprun><host>")))

	snap, err := s.Load("host")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.True(t, engine.IsReportKind(err, engine.ReportMalformed))
	assert.Equal(t, 0, snap.Len())
}

func TestStore_SaveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "current.xml")
	require.NoError(t, os.WriteFile(src, []byte(report), 0o644))

	s := NewStore(filepath.Join(dir, "scans"))
	require.NoError(t, s.SaveFile("host", src))

	got, err := os.ReadFile(s.Path("host"))
	require.NoError(t, err)
	assert.Equal(t, report, string(got))

	assert.Error(t, s.SaveFile("host", filepath.Join(dir, "missing.xml")))
}

func TestSanitizeTarget(t *testing.T) {
	assert.Equal(t, "scanme.nmap.org", SanitizeTarget("scanme.nmap.org"))
	assert.Regexp(t, `^fe80__1@[0-9a-f]{8}$`, SanitizeTarget("fe80::1"))
	assert.Regexp(t, `^@[0-9a-f]{8}$`, SanitizeTarget(""))
	assert.Equal(t, SanitizeTarget("10.0.0.0/24"), SanitizeTarget("10.0.0.0/24"))
}

func TestSanitizeTarget_DistinctTargetsDoNotCollide(t *testing.T) {
	targets := []string{"a/b", "a_b", "a:b", "a\\b", "a b", "a_b@00000000"}
	seen := make(map[string]string)
	for _, target := range targets {
		name := SanitizeTarget(target)
		if prev, ok := seen[name]; ok {
			t.Fatalf("%q and %q both map to %q", prev, target, name)
		}
		seen[name] = target
	}
}

func TestStore_LossyTargetsKeepSeparateBaselines(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Save("a/b", []byte(report)))

	ok, err := s.Exists("a_b")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEqual(t, s.Path("a/b"), s.Path("a_b"))
}
