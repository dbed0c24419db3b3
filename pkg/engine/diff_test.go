package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSnapshot(t *testing.T, ids ...string) Snapshot {
	t.Helper()
	s := NewSnapshot()
	for _, raw := range ids {
		id, err := ParseServiceID(raw)
		require.NoError(t, err)
		s.Add(id)
	}
	return s
}

func TestCompare_NewServiceRaisesAlert(t *testing.T) {
	baseline := mustSnapshot(t, "80/http")
	current := mustSnapshot(t, "80/http", "22/ssh")

	diff := Compare(current, baseline)

	assert.Equal(t, []string{"22/ssh"}, diff.Added.Strings())
	assert.Empty(t, diff.Removed.Strings())
	assert.True(t, diff.Alert)
}

func TestCompare_ClosedServiceDoesNotAlert(t *testing.T) {
	baseline := mustSnapshot(t, "80/http", "22/ssh")
	current := mustSnapshot(t, "80/http")

	diff := Compare(current, baseline)

	assert.Empty(t, diff.Added.Strings())
	assert.Equal(t, []string{"22/ssh"}, diff.Removed.Strings())
	assert.False(t, diff.Alert)
}

func TestCompare_SameSnapshot(t *testing.T) {
	for _, s := range []Snapshot{
		NewSnapshot(),
		mustSnapshot(t, "22/ssh"),
		mustSnapshot(t, "22/ssh", "80/http", "443/https"),
	} {
		diff := Compare(s, s)
		assert.False(t, diff.Alert)
		assert.Equal(t, 0, diff.Added.Len())
		assert.Equal(t, 0, diff.Removed.Len())
	}
}

func TestCompare_AgainstEmpty(t *testing.T) {
	s := mustSnapshot(t, "22/ssh", "80/http")

	diff := Compare(s, NewSnapshot())
	assert.True(t, diff.Added.Equal(s))
	assert.Equal(t, 0, diff.Removed.Len())
	assert.True(t, diff.Alert)

	diff = Compare(NewSnapshot(), s)
	assert.True(t, diff.Removed.Equal(s))
	assert.Equal(t, 0, diff.Added.Len())
	assert.False(t, diff.Alert)
}

func TestCompare_ServiceSwapOnSamePort(t *testing.T) {
	baseline := mustSnapshot(t, "80/http")
	current := mustSnapshot(t, "80/http-proxy")

	diff := Compare(current, baseline)

	assert.Equal(t, []string{"80/http-proxy"}, diff.Added.Strings())
	assert.Equal(t, []string{"80/http"}, diff.Removed.Strings())
	assert.True(t, diff.Alert)
}

func TestCompare_DoesNotMutateInputs(t *testing.T) {
	baseline := mustSnapshot(t, "80/http", "22/ssh")
	current := mustSnapshot(t, "80/http", "25/smtp")

	Compare(current, baseline)

	assert.Equal(t, []string{"22/ssh", "80/http"}, baseline.Strings())
	assert.Equal(t, []string{"25/smtp", "80/http"}, current.Strings())
}
