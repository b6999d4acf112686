package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// uniprotPrefix is the CURIE prefix GOlr indexes proteins under.
const uniprotPrefix = "UniProtKB:"

// mygeneFields maps CURIE prefixes to MyGene.info query fields.
var mygeneFields = map[string]string{
	"HGNC":     "hgnc",
	"NCBIGene": "entrezgene",
	"ENSEMBL":  "ensembl.gene",
}

// MyGeneClient resolves gene identifiers to UniProtKB accessions.
type MyGeneClient struct {
	*httpDoer
	queryURL string
}

// NewMyGeneClient creates a MyGene.info client.
func NewMyGeneClient(opts Options) (*MyGeneClient, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("mygene: invalid base URL %q", opts.BaseURL)
	}
	return &MyGeneClient{
		httpDoer: newHTTPDoer("mygene", opts),
		queryURL: strings.TrimSuffix(opts.BaseURL, "/") + "/query",
	}, nil
}

// GeneToUniprot returns the UniProtKB CURIEs of a gene, Swiss-Prot entries
// first. A gene MyGene does not know yields an empty list.
func (c *MyGeneClient) GeneToUniprot(ctx context.Context, geneID string) ([]string, error) {
	prefix, local, ok := strings.Cut(geneID, ":")
	if !ok || local == "" {
		return []string{}, nil
	}
	q := local
	if field, ok := mygeneFields[prefix]; ok {
		q = field + ":" + local
	}

	params := url.Values{"q": {q}, "fields": {"uniprot"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("mygene: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, c.invalidResponse("body is not JSON")
	}

	var swissProt, trembl []string
	gjson.GetBytes(body, "hits").ForEach(func(_, hit gjson.Result) bool {
		swissProt = appendAccessions(swissProt, hit.Get("uniprot.Swiss-Prot"))
		trembl = appendAccessions(trembl, hit.Get("uniprot.TrEMBL"))
		return true
	})
	return dedupe(append(swissProt, trembl...)), nil
}

func appendAccessions(dst []string, r gjson.Result) []string {
	for _, acc := range stringList(r) {
		if acc == "" {
			continue
		}
		if !strings.HasPrefix(acc, uniprotPrefix) {
			acc = uniprotPrefix + acc
		}
		dst = append(dst, acc)
	}
	return dst
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
