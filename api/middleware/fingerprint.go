package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"mime"
	"mime/multipart"
	"sort"
	"strings"
)

// fingerprintOf identifies a request body for idempotency checks. Multipart
// forms are hashed by their parts, since every client build of the same
// form picks a fresh boundary.
func fingerprintOf(contentType string, body []byte) string {
	if mediaType, params, err := mime.ParseMediaType(contentType); err == nil &&
		mediaType == "multipart/form-data" && params["boundary"] != "" {
		if sum, err := multipartFingerprint(body, params["boundary"]); err == nil {
			return sum
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type formPart struct {
	name     string
	fileName string
	kind     string
	digest   string
}

func multipartFingerprint(body []byte, boundary string) (string, error) {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	var parts []formPart
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		sum := sha256.New()
		if _, err := io.Copy(sum, part); err != nil {
			return "", err
		}
		parts = append(parts, formPart{
			name:     part.FormName(),
			fileName: part.FileName(),
			kind:     strings.ToLower(part.Header.Get("Content-Type")),
			digest:   hex.EncodeToString(sum.Sum(nil)),
		})
	}
	// clients may order fields differently between attempts
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].name != parts[j].name {
			return parts[i].name < parts[j].name
		}
		return parts[i].fileName < parts[j].fileName
	})

	total := sha256.New()
	writeField(total, "multipart")
	for _, p := range parts {
		writeField(total, p.name)
		writeField(total, p.fileName)
		writeField(total, p.kind)
		writeField(total, p.digest)
	}
	return hex.EncodeToString(total.Sum(nil)), nil
}

// writeField length-prefixes value so adjacent fields cannot run together.
func writeField(h hash.Hash, value string) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(value)))
	h.Write(size[:])
	h.Write([]byte(value))
}
