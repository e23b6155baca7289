package export

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	qrcode "github.com/skip2/go-qrcode"

	"tileproof/internal/config"
	"tileproof/internal/domain"
)

// QRPart is one chunk of a bundle split for QR transport. Payload is
// base64-encoded compact bundle bytes.
type QRPart struct {
	Part    int    `json:"part"`
	Total   int    `json:"total"`
	ChainID string `json:"chain_id"`
	Payload string `json:"payload"`
}

// SplitQR exports the chain in compact form and splits it into parts no
// larger than chunkBytes of raw payload each. chunkBytes <= 0 selects the
// configured default.
func (e *Exporter) SplitQR(chain domain.ProofChain, exportedAt string, chunkBytes int) ([]QRPart, error) {
	if chunkBytes <= 0 {
		chunkBytes = config.Default().QRChunkBytes
	}
	compact, err := e.ExportCompact(chain, exportedAt)
	if err != nil {
		return nil, err
	}

	total := (len(compact) + chunkBytes - 1) / chunkBytes
	parts := make([]QRPart, 0, total)
	for i := 0; i < total; i++ {
		end := min((i+1)*chunkBytes, len(compact))
		parts = append(parts, QRPart{
			Part:    i + 1,
			Total:   total,
			ChainID: chain.ChainID,
			Payload: base64.StdEncoding.EncodeToString(compact[i*chunkBytes : end]),
		})
	}
	return parts, nil
}

// ReassembleQR validates part numbering strictly and reconstructs the chain.
// Missing, duplicate, or mixed-chain parts are errors, never silent gaps.
func (e *Exporter) ReassembleQR(parts []QRPart) (ImportReport, error) {
	if len(parts) == 0 {
		return ImportReport{}, errors.New("no parts supplied")
	}

	sorted := make([]QRPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Part < sorted[j].Part })

	total := sorted[0].Total
	chainID := sorted[0].ChainID
	if total != len(sorted) {
		return ImportReport{}, fmt.Errorf("have %d parts, set declares %d", len(sorted), total)
	}
	compact := make([]byte, 0)
	for i, part := range sorted {
		if part.Total != total {
			return ImportReport{}, fmt.Errorf("part %d declares total %d, expected %d", part.Part, part.Total, total)
		}
		if part.ChainID != chainID {
			return ImportReport{}, fmt.Errorf("part %d belongs to chain %s, expected %s", part.Part, part.ChainID, chainID)
		}
		if part.Part != i+1 {
			return ImportReport{}, fmt.Errorf("missing or duplicate part: expected %d, got %d", i+1, part.Part)
		}
		payload, err := base64.StdEncoding.DecodeString(part.Payload)
		if err != nil {
			return ImportReport{}, fmt.Errorf("part %d payload: %w", part.Part, err)
		}
		compact = append(compact, payload...)
	}
	return e.ImportCompact(compact)
}

// RenderQRPNG encodes one part as a QR code PNG at the given pixel size.
func RenderQRPNG(part QRPart, size int) ([]byte, error) {
	content := fmt.Sprintf("%d/%d:%s:%s", part.Part, part.Total, part.ChainID, part.Payload)
	return qrcode.Encode(content, qrcode.Medium, size)
}
