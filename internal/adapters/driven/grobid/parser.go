// Package grobid provides a PDF fulltext parser backed by a GROBID
// service. GROBID returns TEI XML; this adapter reduces it to the
// title, abstract and body sections that the chunker needs.
package grobid

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.PDFParser = (*Parser)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8070"
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the GROBID parser.
type Config struct {
	// BaseURL is the GROBID service URL (default: http://localhost:8070).
	BaseURL string

	// Timeout is the per-document timeout. Fulltext processing of a long
	// paper can take minutes (default: 300s).
	Timeout time.Duration

	// RequestsPerSecond caps the submission rate. GROBID queues jobs
	// internally and returns 503 when saturated; pacing submissions
	// avoids that. 0 means unlimited.
	RequestsPerSecond float64
}

// Parser uploads PDFs to GROBID's processFulltextDocument endpoint.
type Parser struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewParser creates a new GROBID parser.
func NewParser(cfg Config) *Parser {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Parser{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		baseURL: cfg.BaseURL,
	}
}

// ParseFulltext implements driven.PDFParser. The PMID is taken from the
// PDF filename, without extension.
func (p *Parser) ParseFulltext(ctx context.Context, path string) (*domain.Article, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("input", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/api/processFulltextDocument",
		strings.NewReader(body.String()),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("grobid error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("grobid error (status %d): %s", resp.StatusCode, string(respBody))
	}

	tei, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	article, err := ParseTEI(tei)
	if err != nil {
		return nil, fmt.Errorf("parse tei for %s: %w", filepath.Base(path), err)
	}

	name := filepath.Base(path)
	article.PMID = strings.TrimSuffix(name, filepath.Ext(name))
	return article, nil
}

// Ping validates the GROBID service is alive via its health endpoint.
func (p *Parser) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/isalive", http.NoBody)
	if err != nil {
		return fmt.Errorf("grobid: failed to create ping request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("grobid: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("grobid: service returned status %d", resp.StatusCode)
	}
	return nil
}

// teiDocument mirrors just the parts of GROBID's TEI output we consume.
type teiDocument struct {
	XMLName xml.Name `xml:"TEI"`
	Header  struct {
		Title    string `xml:"fileDesc>titleStmt>title"`
		Abstract struct {
			Divs []teiDiv  `xml:"div"`
			Ps   []teiPara `xml:"p"`
		} `xml:"profileDesc>abstract"`
	} `xml:"teiHeader"`
	Body struct {
		Divs []teiDiv `xml:"div"`
	} `xml:"text>body"`
}

// teiDiv is one TEI division: an optional head plus paragraphs.
type teiDiv struct {
	Head string    `xml:"head"`
	Ps   []teiPara `xml:"p"`
}

// teiPara is a paragraph flattened to its text. GROBID nests <ref> and
// <formula> elements inside paragraphs; a plain string field would lose
// their text, so we walk the tokens and keep all character data.
type teiPara string

func (p *teiPara) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name == start.Name {
				*p = teiPara(b.String())
				return nil
			}
		}
	}
}

// ParseTEI converts GROBID TEI XML to a structured article. Inline
// markup inside paragraphs (references, formulas) is flattened to its
// character data.
func ParseTEI(data []byte) (*domain.Article, error) {
	var doc teiDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	article := &domain.Article{
		Title: strings.TrimSpace(doc.Header.Title),
	}

	// Abstracts come back either as bare paragraphs or wrapped in divs,
	// depending on the GROBID version.
	var abstract []string
	for _, p := range doc.Header.Abstract.Ps {
		if s := strings.TrimSpace(string(p)); s != "" {
			abstract = append(abstract, s)
		}
	}
	for _, div := range doc.Header.Abstract.Divs {
		for _, p := range div.Ps {
			if s := strings.TrimSpace(string(p)); s != "" {
				abstract = append(abstract, s)
			}
		}
	}
	article.Abstract = strings.Join(abstract, "\n")

	for _, div := range doc.Body.Divs {
		var paras []string
		for _, p := range div.Ps {
			if s := strings.TrimSpace(string(p)); s != "" {
				paras = append(paras, s)
			}
		}
		text := strings.Join(paras, "\n")
		if text == "" && strings.TrimSpace(div.Head) == "" {
			continue
		}
		article.Sections = append(article.Sections, domain.Section{
			Heading: strings.TrimSpace(div.Head),
			Text:    text,
		})
	}

	return article, nil
}
