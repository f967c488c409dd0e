package kv

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var natsKeyPattern = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

// TestNATSKeyEncoding 编码后的键满足 NATS 键字符集且可逆.
func TestNATSKeyEncoding(t *testing.T) {
	for _, key := range []string{"site:site-a", "site:租户 1", "a/b*c"} {
		stored := encodeKey(key)
		assert.Regexp(t, natsKeyPattern, stored)

		back, ok := decodeKey(stored)
		assert.True(t, ok)
		assert.Equal(t, key, back)
	}

	_, ok := decodeKey("not base64!")
	assert.False(t, ok)
}
