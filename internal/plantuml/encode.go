package plantuml

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
	"io"
)

// plantumlAlphabet is base64 with PlantUML's digit-first ordering; it is
// URL safe.
const plantumlAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var encoding = base64.NewEncoding(plantumlAlphabet).WithPadding(base64.NoPadding)

// Encode compresses source with raw DEFLATE and encodes it for use in a
// PlantUML server URL.
func Encode(source string) (string, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := io.WriteString(fw, source); err != nil {
		return "", fmt.Errorf("compressing source: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("flushing compressed source: %w", err)
	}
	return encoding.EncodeToString(buf.Bytes()), nil
}
