package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// branchy returns on both sides of a conditional branch
const branchy = `.method Branchy
  0: ldarg.0
  1: brtrue 3
  2: ret
  3: ret
.end
`

// throwing has a block that can only leave the method by raising
const throwing = `.method Throwing
  0: ldarg.0
  1: brtrue 4
  2: ldnull
  3: throw
  4: ret
.end
`

// guarded runs a catch and a finally around a call
const guarded = `.method Guarded
  0: nop
  1: leave 5
  2: pop
  3: leave 5
  4: endfinally
  5: ret
  .try 0 to 2 catch System.Exception handler 2 to 4
  .try 0 to 4 finally handler 4 to 5
.end
`

// broken ends a finally that does not exist
const broken = `.method Broken
  0: endfinally
  1: ret
.end
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quietLogger() zerolog.Logger {
	return zerolog.Nop()
}
