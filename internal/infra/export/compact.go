package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"tileproof/internal/domain"
)

// compactMagic versions the compact framing independently of the JSON bundle
// version.
var compactMagic = []byte{'T', 'P', 'C', 1}

// ExportCompact is the deflate-compressed form of ExportJSON, framed with a
// magic prefix so a truncated or foreign blob fails fast.
func (e *Exporter) ExportCompact(chain domain.ProofChain, exportedAt string) ([]byte, error) {
	encoded, err := e.ExportJSON(chain, exportedAt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(compactMagic)
	writer, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(encoded); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportCompact inflates a compact blob and defers to ImportJSON.
func (e *Exporter) ImportCompact(data []byte) (ImportReport, error) {
	if len(data) < len(compactMagic) || !bytes.Equal(data[:len(compactMagic)], compactMagic) {
		return ImportReport{}, fmt.Errorf("not a compact bundle")
	}
	reader := flate.NewReader(bytes.NewReader(data[len(compactMagic):]))
	defer reader.Close()
	encoded, err := io.ReadAll(reader)
	if err != nil {
		return ImportReport{}, fmt.Errorf("inflate bundle: %w", err)
	}
	return e.ImportJSON(encoded)
}
