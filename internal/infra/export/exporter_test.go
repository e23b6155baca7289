package export

import (
	"strings"
	"testing"

	"tileproof/internal/domain"
)

func sampleChain(t *testing.T) domain.ProofChain {
	t.Helper()
	original := domain.CommitmentSummary{Root: strings.Repeat("a", 64), Width: 256, Height: 256, TileSize: 32}
	cropped := domain.CommitmentSummary{Root: strings.Repeat("b", 64), Width: 128, Height: 128}
	grayed := domain.CommitmentSummary{Root: strings.Repeat("c", 64), Width: 128, Height: 128}

	return domain.ProofChain{
		ChainID:  "chain-test-1",
		Original: original,
		Steps: []domain.ChainStep{
			{
				Index:  0,
				Input:  original,
				Output: cropped,
				Proof: domain.TransformationProof{
					Kind:        domain.KindCrop,
					Original:    original,
					Transformed: cropped,
					Valid:       true,
					Crop:        &domain.CropProof{Region: domain.Rect{Width: 128, Height: 128}, DimensionsMatch: true},
				},
			},
			{
				Index:  1,
				Input:  cropped,
				Output: grayed,
				Proof: domain.TransformationProof{
					Kind:        domain.KindGrayscale,
					Original:    cropped,
					Transformed: grayed,
					Valid:       true,
					Grayscale:   &domain.GrayscaleProof{},
				},
			},
		},
		Running:   grayed,
		CreatedAt: "2026-08-27T10:00:00Z",
	}
}

func TestExportImportJSONRoundTrip(t *testing.T) {
	exporter := NewExporter(nil)
	chain := sampleChain(t)

	encoded, err := exporter.ExportJSON(chain, "2026-08-27T11:00:00Z")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	report, err := exporter.ImportJSON(encoded)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Tampered {
		t.Fatalf("clean round trip reported tampered: %v", report.Warnings)
	}
	if report.Chain.ChainID != chain.ChainID {
		t.Fatalf("chain id %q", report.Chain.ChainID)
	}
	if report.Chain.StepCount() != 2 {
		t.Fatalf("step count %d", report.Chain.StepCount())
	}
	if report.Chain.Final().Root != chain.Final().Root {
		t.Fatal("final commitment lost in round trip")
	}
	if report.Chain.Steps[0].Proof.Crop == nil || report.Chain.Steps[1].Proof.Grayscale == nil {
		t.Fatal("proof variants lost in round trip")
	}
}

func TestExportJSONDeterministic(t *testing.T) {
	exporter := NewExporter(nil)
	chain := sampleChain(t)

	first, err := exporter.ExportJSON(chain, "2026-08-27T11:00:00Z")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := exporter.ExportJSON(chain, "2026-08-27T11:00:00Z")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("identical chain exported differently")
	}
}

func TestImportDetectsTampering(t *testing.T) {
	exporter := NewExporter(nil)
	encoded, err := exporter.ExportJSON(sampleChain(t), "2026-08-27T11:00:00Z")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	tampered := strings.Replace(string(encoded), strings.Repeat("c", 64), strings.Repeat("d", 64), -1)
	report, err := exporter.ImportJSON([]byte(tampered))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !report.Tampered {
		t.Fatal("root swap not reported as tampering")
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	exporter := NewExporter(nil)
	if _, err := exporter.ImportJSON([]byte("{{{")); err == nil {
		t.Fatal("expected error for unparseable bundle")
	}
	if _, err := exporter.ImportJSON([]byte(`{"version":"v1"}`)); err == nil {
		t.Fatal("expected error for missing chain_id")
	}
}

func TestExportImportCompactRoundTrip(t *testing.T) {
	exporter := NewExporter(nil)
	chain := sampleChain(t)

	compact, err := exporter.ExportCompact(chain, "2026-08-27T11:00:00Z")
	if err != nil {
		t.Fatalf("export compact: %v", err)
	}
	encoded, err := exporter.ExportJSON(chain, "2026-08-27T11:00:00Z")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if len(compact) >= len(encoded) {
		t.Fatalf("compact form (%d bytes) not smaller than JSON (%d bytes)", len(compact), len(encoded))
	}

	report, err := exporter.ImportCompact(compact)
	if err != nil {
		t.Fatalf("import compact: %v", err)
	}
	if report.Tampered || report.Chain.StepCount() != 2 {
		t.Fatalf("compact round trip lost data: %+v", report.Warnings)
	}

	if _, err := exporter.ImportCompact([]byte("nope")); err == nil {
		t.Fatal("expected error for foreign blob")
	}
}

func TestSplitAndReassembleQR(t *testing.T) {
	exporter := NewExporter(nil)
	chain := sampleChain(t)

	parts, err := exporter.SplitQR(chain, "2026-08-27T11:00:00Z", 200)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}
	for i, part := range parts {
		if part.Part != i+1 || part.Total != len(parts) || part.ChainID != chain.ChainID {
			t.Fatalf("part %d metadata %+v", i, part)
		}
	}

	// Out-of-order delivery reassembles fine.
	shuffled := []QRPart{parts[len(parts)-1]}
	shuffled = append(shuffled, parts[:len(parts)-1]...)
	report, err := exporter.ReassembleQR(shuffled)
	if err != nil {
		t.Fatalf("reassemble: %v", err)
	}
	if report.Chain.ChainID != chain.ChainID || report.Tampered {
		t.Fatal("reassembled chain does not match")
	}
}

func TestReassembleQRRejectsBadSets(t *testing.T) {
	exporter := NewExporter(nil)
	parts, err := exporter.SplitQR(sampleChain(t), "2026-08-27T11:00:00Z", 100)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(parts) < 3 {
		t.Fatalf("need at least 3 parts, got %d", len(parts))
	}

	if _, err := exporter.ReassembleQR(nil); err == nil {
		t.Fatal("empty set accepted")
	}
	if _, err := exporter.ReassembleQR(parts[:len(parts)-1]); err == nil {
		t.Fatal("missing part accepted")
	}
	duplicated := append([]QRPart{parts[0]}, parts[:len(parts)-1]...)
	if _, err := exporter.ReassembleQR(duplicated); err == nil {
		t.Fatal("duplicate part accepted")
	}
	mixed := make([]QRPart, len(parts))
	copy(mixed, parts)
	mixed[1].ChainID = "other-chain"
	if _, err := exporter.ReassembleQR(mixed); err == nil {
		t.Fatal("mixed-chain set accepted")
	}
}

func TestRenderQRPNG(t *testing.T) {
	exporter := NewExporter(nil)
	parts, err := exporter.SplitQR(sampleChain(t), "2026-08-27T11:00:00Z", 400)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	pngBytes, err := RenderQRPNG(parts[0], 256)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(pngBytes) == 0 || string(pngBytes[1:4]) != "PNG" {
		t.Fatal("output is not a PNG")
	}
}

func TestVerificationURLAndWidget(t *testing.T) {
	chain := sampleChain(t)

	url := VerificationURL("https://verify.example.com/v/", chain)
	want := "https://verify.example.com/v/chain-test-1?root=" + strings.Repeat("c", 64)
	if url != want {
		t.Fatalf("url %q, want %q", url, want)
	}

	html, err := WidgetHTML("https://verify.example.com/v", chain)
	if err != nil {
		t.Fatalf("widget: %v", err)
	}
	if !strings.Contains(html, url) {
		t.Fatal("widget missing verification link")
	}
	if !strings.Contains(html, "2 transformation(s)") {
		t.Fatal("widget missing step count")
	}

	hostile := chain
	hostile.ChainID = `"><script>`
	escaped, err := WidgetHTML("https://verify.example.com/v", hostile)
	if err != nil {
		t.Fatalf("widget: %v", err)
	}
	if strings.Contains(escaped, "<script>") {
		t.Fatal("chain id not escaped")
	}
}
