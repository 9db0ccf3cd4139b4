package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sablefin/parsevm/loader"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// identContainerBytes returns an Encode'd loader.Container for a trivial
// single-terminal grammar, just enough for the store to round-trip bytes
// through loader.Decode without caring about their parse semantics.
func identContainerBytes() []byte {
	return loader.Encode(loader.Container{
		Names: []string{"IDENT"},
	})
}

func Test_PutGrammar_DedupesByHash(t *testing.T) {
	assert := assert.New(t)

	st := openTestStore(t)
	raw := identContainerBytes()

	first, err := st.PutGrammar(raw)
	assert.NoError(err)

	second, err := st.PutGrammar(raw)
	assert.NoError(err)

	assert.Equal(first.ID, second.ID)
	assert.Equal(first.Hash, second.Hash)
}

func Test_GrammarByID_NotFound(t *testing.T) {
	assert := assert.New(t)

	st := openTestStore(t)
	_, err := st.GrammarByID(uuid.New())
	assert.True(errors.Is(err, ErrNotFound))
}

func Test_LogParseAttempt_Succeeds(t *testing.T) {
	assert := assert.New(t)

	st := openTestStore(t)
	rec, err := st.PutGrammar(identContainerBytes())
	assert.NoError(err)

	_, err = st.LogParseAttempt(rec.ID, 42, "OK")
	assert.NoError(err)
}
