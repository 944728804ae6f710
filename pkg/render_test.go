package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotSource(t *testing.T) {
	root := DefaultFormatter().Build(buildTree(t, listing(
		"root 1 0 init /sbin/init",
		"alice 500 1 sshd sshd: alice@pts/0",
	)))
	render := NewDotRender()
	defer render.Close()

	data, err := render.Dot(root, "test")
	require.NoError(t, err)
	dot := string(data)
	assert.Contains(t, dot, `label="test";`)
	assert.Contains(t, dot, `n_0 [ label="INIT\n{user=root}"  ]`)
	assert.Contains(t, dot, `n_0_0 [ label="sshd: alice@pts/0\n{user=alice}"  ]`)
	assert.Contains(t, dot, `n_0 -> n_0_0 [ color="red" ]`)
}
