// Package feed renders the RSS feed, sitemap and robots.txt of the blog.
package feed

import (
	"Go_Blog/internal/metrics"
	"Go_Blog/model"
	"Go_Blog/utils"
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"strings"
	"time"
)

const excerptLength = 200

// ArticleSource lists the published articles, newest first.
type ArticleSource interface {
	Published(ctx context.Context) ([]model.Article, error)
}

// Site describes the blog in feeds.
type Site struct {
	Title       string
	Description string
	URL         string
	Author      string
}

// Generator builds feeds and caches the rendered documents. Article writes
// delete the cached copies, so documents are rebuilt on the next request.
type Generator struct {
	articles ArticleSource
	cache    utils.Cache
	ttl      time.Duration
	site     Site
}

// NewGenerator builds a Generator. cache may be nil.
func NewGenerator(articles ArticleSource, cache utils.Cache, ttl time.Duration, site Site) *Generator {
	site.URL = strings.TrimRight(site.URL, "/")
	return &Generator{articles: articles, cache: cache, ttl: ttl, site: site}
}

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Author      string  `xml:"author,omitempty"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (g *Generator) articleURL(id uint64) string {
	return fmt.Sprintf("%s/article/%d", g.site.URL, id)
}

// RSS returns the RSS 2.0 document.
func (g *Generator) RSS(ctx context.Context) ([]byte, error) {
	return g.cached(ctx, utils.CacheKeyFeedRSS, g.buildRSS)
}

// Sitemap returns the sitemap.xml document.
func (g *Generator) Sitemap(ctx context.Context) ([]byte, error) {
	return g.cached(ctx, utils.CacheKeyFeedSitemap, g.buildSitemap)
}

// Robots returns robots.txt pointing crawlers at the sitemap.
func (g *Generator) Robots() []byte {
	return []byte(fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", g.site.URL))
}

func (g *Generator) cached(ctx context.Context, key string, build func(context.Context) ([]byte, error)) ([]byte, error) {
	if g.cache != nil {
		var doc string
		if err := g.cache.Get(ctx, key, &doc); err == nil {
			metrics.CacheHit("feed", true)
			return []byte(doc), nil
		}
		metrics.CacheHit("feed", false)
	}
	out, err := build(ctx)
	if err != nil {
		return nil, err
	}
	if g.cache != nil {
		if err := g.cache.Set(ctx, key, string(out), g.ttl); err != nil {
			log.Printf("feed cache set %s: %v", key, err)
		}
	}
	return out, nil
}

func (g *Generator) buildRSS(ctx context.Context) ([]byte, error) {
	articles, err := g.articles.Published(ctx)
	if err != nil {
		return nil, err
	}
	lastBuild := time.Unix(0, 0).UTC()
	items := make([]rssItem, 0, len(articles))
	for _, a := range articles {
		description := a.Description
		if strings.TrimSpace(description) == "" {
			description = Excerpt(a.Content, excerptLength)
		}
		link := g.articleURL(a.ID)
		item := rssItem{
			Title:       a.Title,
			Link:        link,
			Description: description,
			Author:      g.site.Author,
			PubDate:     a.PublishedAt.UTC().Format(time.RFC1123Z),
			GUID:        rssGUID{Value: link, IsPermaLink: true},
		}
		if a.Category != 0 {
			item.Category = fmt.Sprint(a.Category)
		}
		items = append(items, item)
		if a.LastUpdated.After(lastBuild) {
			lastBuild = a.LastUpdated.UTC()
		}
	}
	doc := rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         g.site.Title,
			Link:          g.site.URL,
			Description:   g.site.Description,
			LastBuildDate: lastBuild.Format(time.RFC1123Z),
			AtomLink:      atomLink{Href: g.site.URL + "/api/rss", Rel: "self", Type: "application/rss+xml"},
			Items:         items,
		},
	}
	return marshalXML(doc)
}

func (g *Generator) buildSitemap(ctx context.Context) ([]byte, error) {
	articles, err := g.articles.Published(ctx)
	if err != nil {
		return nil, err
	}
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{Loc: g.site.URL + "/"})
	for _, a := range articles {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     g.articleURL(a.ID),
			LastMod: a.LastUpdated.UTC().Format("2006-01-02"),
		})
	}
	return marshalXML(set)
}

func marshalXML(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
