package s3

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// PutResult 写入结果：实际写入字节数与 SHA-256 十六进制摘要.
type PutResult struct {
	Size     int64
	Checksum string
}

// checksumReader 在读取的同时计算摘要与长度，数据只流过一次.
type checksumReader struct {
	r      io.Reader
	hasher hash.Hash
	n      int64
}

func newChecksumReader(r io.Reader) *checksumReader {
	h := sha256.New()

	return &checksumReader{r: io.TeeReader(r, h), hasher: h}
}

func (c *checksumReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}

func (c *checksumReader) result() PutResult {
	return PutResult{Size: c.n, Checksum: hex.EncodeToString(c.hasher.Sum(nil))}
}

// Checksum 计算一段内容的 SHA-256，与写入时的算法一致.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
