// Package articletext extracts readable body text from a news article page.
// 헤드라인 공급자가 summary 를 주지 않을 때 분석 입력을 보강하는 용도다.
package articletext

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

const fetchTimeout = 15 * time.Second

// MaxExcerptLen 은 분석 프롬프트에 넣을 본문 발췌의 상한(룬)이다.
const MaxExcerptLen = 600

var client = &http.Client{Timeout: fetchTimeout}

// FetchExcerpt 는 기사 URL 에서 본문을 추출해 발췌를 반환한다.
// 실패는 에러로 돌려주되, 호출 측은 발췌 없이 진행해도 된다 (보강일 뿐이다).
func FetchExcerpt(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", err
	}

	text := ExtractText(doc)
	if text == "" {
		return "", fmt.Errorf("no readable text extracted from %s", articleURL)
	}
	return Excerpt(text, MaxExcerptLen), nil
}

// ExtractText 는 파싱된 HTML 문서에서 본문 텍스트를 뽑는다.
// readability 를 먼저 쓰고, 비어 있으면 trafilatura 로 한 번 더 시도한다.
func ExtractText(doc *html.Node) string {
	if article, err := readability.FromDocument(doc, nil); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}

	result, err := trafilatura.ExtractDocument(doc, trafilatura.Options{})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(result.ContentText)
}

// Excerpt 는 공백을 정리하고 최대 max 룬으로 자른다.
func Excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	rs := []rune(text)
	if len(rs) <= max {
		return text
	}
	return string(rs[:max])
}
