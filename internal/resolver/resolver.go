// Package resolver decides how a user-supplied link should be fetched:
// directly over HTTP, through a cloud-storage public-link API, or by handing
// the link to the delegated downloader.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"audio_extract_bot/entity"
	"audio_extract_bot/pkg/logger"
)

const (
	yandexPublicAPI = "https://cloud-api.yandex.net/v1/disk/public/resources/download"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	directRe     = regexp.MustCompile(`(?i)\.(mp4|mov|mkv|webm|avi)(\?|$)`)
	mailruURLRe  = regexp.MustCompile(`dispatcher.*?weblink_get.*?url":"(.*?)"`)
	mailruNameRe = regexp.MustCompile(`"name":"([^"]+)"`)
	unsafeFileRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

type Resolver struct {
	client      *http.Client
	l           logger.Interface
	yadiskToken string

	// yandexAPI is swapped for a test server in unit tests.
	yandexAPI string
}

func NewResolver(l logger.Interface, yadiskToken string) *Resolver {
	return &Resolver{
		client:      &http.Client{Timeout: 20 * time.Second},
		l:           l,
		yadiskToken: yadiskToken,
		yandexAPI:   yandexPublicAPI,
	}
}

var _ entity.SourceResolver = (*Resolver)(nil)

// Resolve classifies the link. Provider API failures degrade to a delegated
// download instead of failing the request; only links that are not http(s)
// at all are rejected.
func (r *Resolver) Resolve(ctx context.Context, link string) (entity.ResolvedSource, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return entity.ResolvedSource{}, errors.Wrapf(entity.ErrUnsupportedLink, "not an http(s) link: %q", link)
	}
	link = u.String()

	if directRe.MatchString(link) {
		return entity.ResolvedSource{
			Kind:      entity.SourceDirect,
			URL:       link,
			DirectURL: link,
			Filename:  SanitizeFilename(path.Base(u.Path)),
		}, nil
	}

	if strings.Contains(u.Host, "disk.yandex") || strings.Contains(u.Host, "yadi.sk") {
		src, err := r.resolveYandex(ctx, link, u)
		if err == nil {
			return src, nil
		}
		r.l.Warn("yandex public link resolution failed, delegating: %v", err)
		return delegated(link), nil
	}

	if strings.Contains(u.Host, "cloud.mail.ru") && strings.Contains(u.Path, "/public") {
		src, err := r.resolveMailru(ctx, link, u)
		if err == nil {
			return src, nil
		}
		r.l.Warn("mail.ru public link resolution failed, delegating: %v", err)
		return delegated(link), nil
	}

	return delegated(link), nil
}

func delegated(link string) entity.ResolvedSource {
	return entity.ResolvedSource{Kind: entity.SourceDelegated, URL: link}
}

// resolveYandex asks the Yandex Disk public API for a one-shot direct
// download URL of the shared file.
func (r *Resolver) resolveYandex(ctx context.Context, link string, u *url.URL) (entity.ResolvedSource, error) {
	api := fmt.Sprintf("%s?public_key=%s", r.yandexAPI, url.QueryEscape(link))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api, nil)
	if err != nil {
		return entity.ResolvedSource{}, errors.Wrap(err, "yandex api request")
	}
	if r.yadiskToken != "" {
		req.Header.Set("Authorization", "OAuth "+r.yadiskToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return entity.ResolvedSource{}, errors.Wrap(err, "yandex api call")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.ResolvedSource{}, errors.Errorf("yandex api status %d", resp.StatusCode)
	}

	var payload struct {
		Href string `json:"href"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return entity.ResolvedSource{}, errors.Wrap(err, "yandex api decode")
	}
	if payload.Href == "" {
		return entity.ResolvedSource{}, errors.New("yandex api returned no href")
	}

	return entity.ResolvedSource{
		Kind:      entity.SourceCloudAPI,
		URL:       link,
		DirectURL: payload.Href,
		Filename:  SanitizeFilename(path.Base(u.Path)),
	}, nil
}

// resolveMailru scrapes the public page for the weblink dispatcher URL; the
// direct link is <dispatcher>/<x>/<y> where x/y are the trailing public-link
// path segments.
func (r *Resolver) resolveMailru(ctx context.Context, link string, u *url.URL) (entity.ResolvedSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return entity.ResolvedSource{}, errors.Wrap(err, "mail.ru page request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", link)

	resp, err := r.client.Do(req)
	if err != nil {
		return entity.ResolvedSource{}, errors.Wrap(err, "mail.ru page fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.ResolvedSource{}, errors.Errorf("mail.ru page status %d", resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return entity.ResolvedSource{}, errors.Wrap(err, "mail.ru page read")
	}

	m := mailruURLRe.FindSubmatch(page)
	if m == nil {
		return entity.ResolvedSource{}, errors.New("no weblink dispatcher URL in mail.ru page")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return entity.ResolvedSource{}, errors.New("mail.ru public link has no share id")
	}
	tail := parts[len(parts)-2:]
	direct := fmt.Sprintf("%s/%s/%s", string(m[1]), tail[0], tail[1])

	filename := SanitizeFilename(tail[1])
	if nm := mailruNameRe.FindSubmatch(page); nm != nil {
		filename = SanitizeFilename(string(nm[1]))
	}

	return entity.ResolvedSource{
		Kind:      entity.SourceCloudAPI,
		URL:       link,
		DirectURL: direct,
		Filename:  filename,
	}, nil
}

// SanitizeFilename strips everything that is not safe in a local file name.
func SanitizeFilename(name string) string {
	name = unsafeFileRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}
