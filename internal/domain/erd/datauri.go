package erd

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const dataURIPrefix = "data:text/plain;base64,"

// EncodeDataURI wraps diagram source into the payload sent as erdImageUrl.
func EncodeDataURI(src string) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString([]byte(src))
}

// DecodeDataURI reverses EncodeDataURI. Values without the data: scheme are
// treated as raw diagram source and returned unchanged.
func DecodeDataURI(v string) (string, error) {
	if !strings.HasPrefix(v, "data:") {
		return v, nil
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(v, "data:"), ",")
	if !ok {
		return "", fmt.Errorf("malformed data uri: missing ','")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return payload, nil
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode data uri payload: %w", err)
	}
	return string(raw), nil
}
