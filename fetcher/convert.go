package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Format is the representation returned for fetched pages
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Document is the structured form of a page for the json and yaml formats
type Document struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Pages whose readable article is shorter than this are converted whole
const minArticleWords = 50

// Convert renders an HTML page in the given format
func Convert(page, pageURL string, format Format) (string, error) {
	switch format {
	case FormatHTML, "":
		return page, nil
	case FormatMarkdown:
		_, md, err := extract(page, pageURL)
		return md, err
	case FormatJSON:
		doc, err := newDocument(page, pageURL)
		if err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(out), nil
	case FormatYAML:
		doc, err := newDocument(page, pageURL)
		if err != nil {
			return "", err
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		return string(out), nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

func newDocument(page, pageURL string) (*Document, error) {
	title, md, err := extract(page, pageURL)
	if err != nil {
		return nil, err
	}
	return &Document{URL: pageURL, Title: title, Content: md}, nil
}

// extract returns the page title and its main content as markdown
func extract(page, pageURL string) (title, content string, err error) {
	parsedURL, _ := url.Parse(pageURL)
	article, rerr := readability.FromReader(strings.NewReader(page), parsedURL)
	if rerr == nil && article.Node != nil {
		title = article.Title()
		if md, mdErr := htmltomarkdown.ConvertNode(article.Node); mdErr == nil {
			text := strings.TrimSpace(string(md))
			if len(strings.Fields(text)) >= minArticleWords {
				return title, text, nil
			}
		}
	}

	if title == "" {
		title = documentTitle(page)
	}
	md, err := htmltomarkdown.ConvertString(page)
	if err != nil {
		return "", "", fmt.Errorf("converting to markdown: %w", err)
	}
	return title, strings.TrimSpace(md), nil
}

func documentTitle(page string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(page))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
