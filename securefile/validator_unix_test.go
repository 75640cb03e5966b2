//go:build !windows
// +build !windows

package securefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvOracle() *Oracle {
	return &Oracle{LookupEnv: func(string) (string, bool) { return "", false }}
}

func TestUnixPolicyOwnerTrusted(t *testing.T) {
	policy := newPlatformPolicy(noEnvOracle())
	euid := uint32(os.Geteuid())

	ok, _ := policy.OwnerTrusted(&FileAttributes{UserID: euid}, "/x")
	assert.True(t, ok, "effective uid must be trusted")

	ok, _ = policy.OwnerTrusted(&FileAttributes{UserID: 0}, "/x")
	assert.True(t, ok, "root must be trusted")

	ok, reason := policy.OwnerTrusted(&FileAttributes{UserID: euid + 12345}, "/x")
	assert.False(t, ok, "unrelated uid must not be trusted")
	assert.Contains(t, reason, "owned by uid")
}

func TestUnixPolicySudoRelaxation(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("sudo relaxation only applies when effective uid is root")
	}
	oracle := &Oracle{LookupEnv: func(name string) (string, bool) {
		if name == "SUDO_UID" {
			return "1500", true
		}
		return "", false
	}}
	policy := newPlatformPolicy(oracle)

	ok, _ := policy.OwnerTrusted(&FileAttributes{UserID: 1500}, "/x")
	assert.True(t, ok, "SUDO_UID owner must be trusted when running as root")

	ok, _ = policy.OwnerTrusted(&FileAttributes{UserID: 1501}, "/x")
	assert.False(t, ok, "other uids stay untrusted")
}

func TestUnixPolicyWriteGrant(t *testing.T) {
	policy := newPlatformPolicy(noEnvOracle())

	tests := []struct {
		name     string
		mode     os.FileMode
		insecure bool
	}{
		{"owner only", 0700, false},
		{"group read", 0750, false},
		{"group write", 0770, true},
		{"other write", 0707, true},
		{"world writable", 0777, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			granted, _ := policy.UntrustedWriteGrant(&FileAttributes{Type: TypeDirectory, Mode: tt.mode}, "/x")
			assert.Equal(t, tt.insecure, granted)
		})
	}
}

func TestUnixSudoUIDParsing(t *testing.T) {
	tests := []struct {
		name  string
		value string
		found bool
		want  uint32
		ok    bool
	}{
		{"valid", "1000", true, 1000, true},
		{"absent", "", false, 0, false},
		{"garbage", "not-a-uid", true, 0, false},
		{"negative", "-5", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &Oracle{LookupEnv: func(string) (string, bool) { return tt.value, tt.found }}
			uid, ok := oracle.SudoUID()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, uid)
			}
		})
	}
}

// A directory with group/other write anywhere on the chain must fail, and
// the failure must name a real directory.
func TestValidateRealWorldWritableDirectory(t *testing.T) {
	base := t.TempDir()
	loose := filepath.Join(base, "loose")
	require.NoError(t, os.Mkdir(loose, 0o777))
	require.NoError(t, os.Chmod(loose, 0o777))

	v := NewValidator(afero.NewOsFs(), NewOracle())
	err := v.Validate(filepath.Join(loose, "sub"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInsecurePath)

	var pse *PathSecurityError
	require.ErrorAs(t, err, &pse)
	assert.NotEmpty(t, pse.Dir)
	assert.NotEmpty(t, pse.Reason)
}
