package export

import (
	"fmt"
	"html/template"
	"strings"

	"tileproof/internal/config"
	"tileproof/internal/domain"
)

// VerificationURL is the public verify link for a chain's final commitment.
// An empty baseURL selects the configured default.
func VerificationURL(baseURL string, chain domain.ProofChain) string {
	if baseURL == "" {
		baseURL = config.Default().VerifyBaseURL
	}
	return fmt.Sprintf("%s/%s?root=%s", strings.TrimRight(baseURL, "/"), chain.ChainID, chain.Final().Root)
}

var widgetTemplate = template.Must(template.New("widget").Parse(`<div class="tileproof-widget" data-chain="{{.ChainID}}">
  <a href="{{.URL}}" rel="noopener">Verified image</a>
  <span class="tileproof-root">{{.Root}}</span>
  <span class="tileproof-steps">{{.Steps}} transformation(s)</span>
</div>
`))

// WidgetHTML renders an embeddable verification badge for the chain. All
// values pass through html/template escaping.
func WidgetHTML(baseURL string, chain domain.ProofChain) (string, error) {
	var builder strings.Builder
	err := widgetTemplate.Execute(&builder, struct {
		ChainID string
		URL     string
		Root    string
		Steps   int
	}{
		ChainID: chain.ChainID,
		URL:     VerificationURL(baseURL, chain),
		Root:    chain.Final().Root,
		Steps:   chain.StepCount(),
	})
	if err != nil {
		return "", err
	}
	return builder.String(), nil
}
