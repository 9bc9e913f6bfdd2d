// Package netscape parses and generates the Netscape Bookmark File Format,
// the HTML microformat every major browser uses for bookmark import/export.
package netscape

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UntitledFolder is the name assigned to folders whose heading is empty.
const UntitledFolder = "Untitled Folder"

// ParsedBookmark is one bookmark extracted from an export file.
// Folder holds the nearest enclosing top-level folder name; empty means
// the bookmark sits at the root.
type ParsedBookmark struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Folder  string `json:"folder,omitempty"`
	AddDate int64  `json:"add_date,omitempty"`
}

// ParseResult is the outcome of parsing a bookmark file.
// If Errors is non-empty the bookmark and folder lists may be partial or
// empty and must not be imported.
type ParseResult struct {
	Bookmarks []ParsedBookmark `json:"bookmarks"`
	Folders   []string         `json:"folders"`
	Errors    []string         `json:"errors,omitempty"`
}

// transparentContainers are browser-managed top-level containers whose names
// never become folders; their children inherit the surrounding folder scope.
var transparentContainers = map[string]bool{
	"other bookmarks":  true,
	"mobile bookmarks": true,
}

type parseState struct {
	bookmarks  []ParsedBookmark
	folders    []string
	folderSeen map[string]bool
}

// Parse extracts bookmarks and top-level folder names from the full text of a
// Netscape bookmark file. It fails only when no <DL> list exists anywhere in
// the document, which signals the input is not a bookmark export at all.
func Parse(html string) (result ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ParseResult{Errors: []string{fmt.Sprintf("failed to parse bookmark file: %v", r)}}
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ParseResult{Errors: []string{fmt.Sprintf("failed to parse bookmark file: %v", err)}}
	}

	root := doc.Find("dl").First()
	if root.Length() == 0 {
		return ParseResult{Errors: []string{"no bookmark list found: not a Netscape bookmark file"}}
	}

	st := &parseState{folderSeen: make(map[string]bool)}
	walkList(root, "", st)

	return ParseResult{Bookmarks: st.bookmarks, Folders: st.folders}
}

// walkList processes the <DT> entries of one <DL>, threading the enclosing
// folder name through recursive calls.
func walkList(dl *goquery.Selection, currentFolder string, st *parseState) {
	dl.ChildrenFiltered("dt").Each(func(_ int, dt *goquery.Selection) {
		if h3 := dt.ChildrenFiltered("h3").First(); h3.Length() > 0 {
			walkFolder(dt, h3, currentFolder, st)
			return
		}
		if a := dt.ChildrenFiltered("a").First(); a.Length() > 0 {
			if bm, ok := parseAnchor(a, currentFolder); ok {
				st.bookmarks = append(st.bookmarks, bm)
			}
		}
	})
}

func walkFolder(dt, h3 *goquery.Selection, currentFolder string, st *parseState) {
	name := strings.TrimSpace(h3.Text())
	if name == "" {
		name = UntitledFolder
	}

	// Toolbar/other/mobile containers are pass-through: their name is never
	// recorded and children keep the enclosing folder scope.
	next := name
	if isTransparent(h3, name) {
		next = currentFolder
	} else if !st.folderSeen[name] {
		st.folderSeen[name] = true
		st.folders = append(st.folders, name)
	}

	// The nested list is either a child of the <DT> (HTML5 tree building) or
	// its next sibling (as literally written in export files).
	sub := dt.ChildrenFiltered("dl").First()
	if sub.Length() == 0 {
		sub = dt.NextFiltered("dl").First()
	}
	if sub.Length() > 0 {
		walkList(sub, next, st)
	}
}

func isTransparent(h3 *goquery.Selection, name string) bool {
	if v, ok := h3.Attr("personal_toolbar_folder"); ok && strings.EqualFold(v, "true") {
		return true
	}
	return transparentContainers[strings.ToLower(name)]
}

// parseAnchor converts an <A> element into a bookmark, dropping anything that
// is not an http(s) URL (javascript:, place:, chrome: and friends).
func parseAnchor(a *goquery.Selection, currentFolder string) (ParsedBookmark, bool) {
	href, ok := a.Attr("href")
	if !ok || !isHTTPURL(href) {
		return ParsedBookmark{}, false
	}

	title := strings.TrimSpace(a.Text())
	if title == "" {
		title = href
	}

	bm := ParsedBookmark{Title: title, URL: href, Folder: currentFolder}
	if raw, ok := a.Attr("add_date"); ok {
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			bm.AddDate = ts
		}
	}
	return bm, true
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
