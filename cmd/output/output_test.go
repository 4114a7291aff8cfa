package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/cmd/output"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.JSON(&buf, map[string]int{"index": 1}))
	assert.Equal(t, "{\n  \"index\": 1\n}\n", buf.String())

	require.Error(t, output.JSON(&buf, func() {}))
}
