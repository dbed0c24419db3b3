package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap" args="nmap -p 1-1000 -sV -oX out.xml 192.168.1.1">
<host>
<status state="up"/>
<address addr="192.168.1.1" addrtype="ipv4"/>
<ports>
<port protocol="tcp" portid="22"><state state="open" reason="syn-ack"/><service name="ssh" product="OpenSSH" version="8.2p1"/></port>
<port protocol="tcp" portid="80"><state state="open" reason="syn-ack"/><service name="http" product="nginx"/></port>
<port protocol="tcp" portid="443"><state state="closed"/><service name="https"/></port>
<port protocol="tcp" portid="8080"><state state="filtered"/></port>
<port protocol="tcp" portid="9000"><state state="open"/></port>
</ports>
</host>
</nmaprun>`

func TestParseReport(t *testing.T) {
	snap, err := ParseReportBytes([]byte(sampleReport))
	require.NoError(t, err)

	assert.Equal(t, []string{"22/ssh", "80/http", "9000/unknown"}, snap.Strings())
}

func TestParseReport_Idempotent(t *testing.T) {
	first, err := ParseReportBytes([]byte(sampleReport))
	require.NoError(t, err)
	second, err := ParseReportBytes([]byte(sampleReport))
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestParseReport_OnlyExactOpenState(t *testing.T) {
	doc := `<nmaprun><host><ports>
<port portid="21"><state state="Open"/><service name="ftp"/></port>
<port portid="23"><state state="open|filtered"/><service name="telnet"/></port>
<port portid="25"><state state=" open"/><service name="smtp"/></port>
<port portid="53"><service name="domain"/></port>
<port portid="110"><state state="unknown"/></port>
</ports></host></nmaprun>`

	snap, err := ParseReportBytes([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestParseReport_MultipleHostsAndPortsBlocks(t *testing.T) {
	doc := `<nmaprun>
<host><ports><port portid="80"><state state="open"/><service name="http"/></port></ports></host>
<host>
<ports><port portid="80"><state state="open"/><service name="http"/></port></ports>
<ports><port portid="3306"><state state="open"/><service name="mysql"/></port></ports>
</host>
</nmaprun>`

	snap, err := ParseReportBytes([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"80/http", "3306/mysql"}, snap.Strings())
}

func TestParseReport_EmptyServiceNameIsUnknown(t *testing.T) {
	doc := `<nmaprun><host><ports><port portid="631"><state state="open"/><service name=""/></port></ports></host></nmaprun>`

	snap, err := ParseReportBytes([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"631/unknown"}, snap.Strings())
}

func TestParseReport_TrailingMiscIsAllowed(t *testing.T) {
	doc := "<?xml version=\"1.0\"?>\n<nmaprun><host><ports>" +
		`<port portid="22"><state state="open"/><service name="ssh"/></port>` +
		"</ports></host></nmaprun>\n<!-- Nmap done -->\n<?xml-stylesheet href=\"nmap.xsl\"?>\n\n"

	snap, err := ParseReportBytes([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"22/ssh"}, snap.Strings())
}

func TestParseReport_ZeroOpenPortsIsNotAnError(t *testing.T) {
	snap, err := ParseReportBytes([]byte(`<nmaprun><host><ports/></host></nmaprun>`))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())

	snap, err = ParseReportBytes([]byte(`<nmaprun/>`))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestParseReport_Malformed(t *testing.T) {
	cases := map[string]string{
		"truncated":   `<nmaprun><host><ports><port portid="22">`,
		"empty":       ``,
		"not xml":     `{"ports": [22]}`,
		"bad portid":  `<nmaprun><host><ports><port portid="ssh"><state state="open"/></port></ports></host></nmaprun>`,
		"port range":  `<nmaprun><host><ports><port portid="70000"><state state="open"/></port></ports></host></nmaprun>`,
		"zero portid": `<nmaprun><host><ports><port portid="0"><state state="open"/></port></ports></host></nmaprun>`,
		"padded portid": `<nmaprun><host><ports><port portid=" 080 "><state state="open"/><service name="http"/></port></ports></host></nmaprun>`,
		"signed portid": `<nmaprun><host><ports><port portid="+80"><state state="open"/></port></ports></host></nmaprun>`,
		"trailing content": `<nmaprun><host><ports><port portid="80"><state state="open"/><service name="http"/></port></ports></host></nmaprun>` +
			`<nmaprun><host><ports>`,
		"second root": `<nmaprun/><nmaprun/>`,
		"trailing text": `<nmaprun/>garbage`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			snap, err := ParseReportBytes([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrReportUnreadable)
			assert.True(t, IsReportKind(err, ReportMalformed))
			assert.NotNil(t, snap)
			assert.Equal(t, 0, snap.Len())
		})
	}
}

func TestParseReportFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "scan.xml")
		require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o644))

		snap, err := ParseReportFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Len())
	})

	t.Run("missing", func(t *testing.T) {
		path := filepath.Join(dir, "nope.xml")
		snap, err := ParseReportFile(path)
		require.Error(t, err)
		assert.True(t, IsReportKind(err, ReportMissing))
		assert.Contains(t, err.Error(), path)
		assert.Equal(t, 0, snap.Len())
	})

	t.Run("malformed keeps path", func(t *testing.T) {
		path := filepath.Join(dir, "broken.xml")
		require.NoError(t, os.WriteFile(path, []byte("<nmaprun><host>"), 0o644))

		_, err := ParseReportFile(path)
		require.Error(t, err)
		assert.True(t, IsReportKind(err, ReportMalformed))
		assert.Contains(t, err.Error(), path)
	})
}
