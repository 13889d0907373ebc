package quiz

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-guide/internal/domain"
)

func TestDefaultBankCoversAllTraits(t *testing.T) {
	bank, err := DefaultBank()
	require.NoError(t, err)
	for _, tr := range domain.AllTraits {
		assert.NotZerof(t, bank.Size(tr), "trait %s has no questions", tr)
	}
}

func TestLoadBankRejectsMissingTrait(t *testing.T) {
	data := []byte(`{"R":["a"],"I":["b"],"A":["c"],"S":["d"],"E":["e"]}`)
	_, err := LoadBank(data, "inline")
	require.Error(t, err)

	var bankErr *BankError
	require.True(t, errors.As(err, &bankErr))
	assert.Equal(t, "inline", bankErr.Source)
	assert.NotEmpty(t, bankErr.Problems)
}

func TestLoadBankRejectsEmptyTraitList(t *testing.T) {
	data := []byte(`{"R":[],"I":["b"],"A":["c"],"S":["d"],"E":["e"],"C":["f"]}`)
	_, err := LoadBank(data, "inline")
	require.Error(t, err)
}

func TestLoadBankRejectsMalformedJSON(t *testing.T) {
	_, err := LoadBank([]byte(`{"R": [`), "inline")
	require.Error(t, err)
}

func TestLoadBankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	data := []byte(`{"R":["r"],"I":["i"],"A":["a"],"S":["s"],"E":["e"],"C":["c1","c2"]}`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	bank, err := LoadBankFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, bank.Questions(domain.TraitConventional))

	_, err = LoadBankFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestBankIsNotAffectedByCallerMutation(t *testing.T) {
	src := map[domain.Trait][]string{domain.TraitRealistic: {"r1"}}
	bank := NewBank(src)
	src[domain.TraitRealistic][0] = "changed"

	qs := bank.Questions(domain.TraitRealistic)
	qs[0] = "changed again"

	assert.Equal(t, []string{"r1"}, bank.Questions(domain.TraitRealistic))
}
